package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
)

// reminderStore persists one flat JSON file of reminders per guild under
// <dataDir>/reminder.
type reminderStore struct {
	dir string
}

// NewReminderStore creates a file-backed reminder store rooted at dataDir.
func NewReminderStore(dataDir string) interfaces.ReminderStore {
	return &reminderStore{dir: filepath.Join(dataDir, "reminder")}
}

type reminderDocument struct {
	Settings  entities.ReminderSettings `json:"settings"`
	Reminders []*entities.Reminder      `json:"reminders"`
}

func (s *reminderStore) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}

// Load returns a guild's reminders and settings. A guild without a file gets
// no reminders and the enabled default.
func (s *reminderStore) Load(ctx context.Context, guildID string) ([]*entities.Reminder, entities.ReminderSettings, error) {
	var doc reminderDocument
	err := readJSON(s.path(guildID), &doc)
	if os.IsNotExist(err) {
		return nil, entities.ReminderSettings{Enabled: true}, nil
	}
	if err != nil {
		return nil, entities.ReminderSettings{}, err
	}
	return doc.Reminders, doc.Settings, nil
}

// Save persists a guild's reminders and settings atomically. Guilds left
// without reminders keep their settings file so the toggle survives.
func (s *reminderStore) Save(ctx context.Context, guildID string, reminders []*entities.Reminder, settings entities.ReminderSettings) error {
	return writeJSONAtomic(s.path(guildID), reminderDocument{
		Settings:  settings,
		Reminders: reminders,
	})
}

// GuildIDs returns every guild with a reminder file.
func (s *reminderStore) GuildIDs(ctx context.Context) ([]string, error) {
	return guildIDsIn(s.dir)
}
