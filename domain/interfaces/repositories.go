package interfaces

import (
	"context"

	"github.com/Impetoast/Catcord/domain/entities"
)

// ConfigStore defines the interface for durable per-guild relay configuration.
// Implementations persist one JSON document per guild and must write
// atomically on every mutation.
type ConfigStore interface {
	// GetOrCreate loads a guild's configuration, creating and persisting the
	// default one on first use.
	GetOrCreate(ctx context.Context, guildID string, defaultProvider entities.Provider) (*entities.GuildConfig, error)

	// Save persists a guild's configuration atomically.
	Save(ctx context.Context, config *entities.GuildConfig) error

	// LoadAll returns the configurations of every known guild.
	LoadAll(ctx context.Context) ([]*entities.GuildConfig, error)
}

// MirrorStore tracks the correspondence between relayed source messages and
// their mirrored copies. Writes to one record are serialized per source
// message; unrelated records never contend. Retention is bounded.
type MirrorStore interface {
	// Get returns a copy of the record for a source message, if tracked.
	Get(key entities.MirrorKey) (*entities.MirrorRecord, bool)

	// RecordMirror registers a mirrored message for a source message,
	// creating the record on first use.
	RecordMirror(key entities.MirrorKey, groupName, targetChannelID, mirroredMessageID string)

	// Evict drops the record for a source message.
	Evict(key entities.MirrorKey)
}

// ThreadMirrorStore tracks threads mirrored across a relay group, keyed by
// source thread.
type ThreadMirrorStore interface {
	// GetThread returns a copy of the record for a source thread, if tracked.
	GetThread(threadID string) (*entities.ThreadMirrorRecord, bool)

	// RecordThreadMirror registers a mirrored thread under a target parent
	// channel.
	RecordThreadMirror(threadID, name, targetChannelID, mirroredThreadID string)
}

// ReminderStore defines the interface for the flat per-guild reminder files.
type ReminderStore interface {
	// Load returns a guild's reminders and settings.
	Load(ctx context.Context, guildID string) ([]*entities.Reminder, entities.ReminderSettings, error)

	// Save persists a guild's reminders and settings atomically.
	Save(ctx context.Context, guildID string, reminders []*entities.Reminder, settings entities.ReminderSettings) error

	// GuildIDs returns every guild with a reminder file.
	GuildIDs(ctx context.Context) ([]string, error)
}
