package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// legacyGroupName is the group a pre-groups config file is migrated into.
const legacyGroupName = "default"

// configStore persists one JSON document per guild under <dataDir>/relay.
type configStore struct {
	dir string
}

// NewConfigStore creates a file-backed config store rooted at dataDir.
func NewConfigStore(dataDir string) interfaces.ConfigStore {
	return &configStore{dir: filepath.Join(dataDir, "relay")}
}

func (s *configStore) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}

// GetOrCreate loads a guild's configuration, creating and persisting the
// default one on first use. Legacy single-mapping files are migrated into a
// single default group on load.
func (s *configStore) GetOrCreate(ctx context.Context, guildID string, defaultProvider entities.Provider) (*entities.GuildConfig, error) {
	config, err := s.load(guildID)
	if os.IsNotExist(err) {
		config = entities.NewGuildConfig(guildID, defaultProvider)
		if err := s.Save(ctx, config); err != nil {
			return nil, err
		}
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Save persists a guild's configuration atomically.
func (s *configStore) Save(ctx context.Context, config *entities.GuildConfig) error {
	if config.GuildID == "" {
		return fmt.Errorf("cannot save config without guild ID")
	}
	return writeJSONAtomic(s.path(config.GuildID), config)
}

// LoadAll returns the configurations of every known guild.
func (s *configStore) LoadAll(ctx context.Context) ([]*entities.GuildConfig, error) {
	ids, err := guildIDsIn(s.dir)
	if err != nil {
		return nil, err
	}

	configs := make([]*entities.GuildConfig, 0, len(ids))
	for _, id := range ids {
		config, err := s.load(id)
		if err != nil {
			log.WithError(err).WithField("guild_id", id).Error("Skipping unreadable guild config")
			continue
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// configDocument mirrors the persisted schema, carrying the legacy
// single-mapping field alongside the current one so old files stay loadable.
type configDocument struct {
	Power    *bool                 `json:"power,omitempty"`
	Provider entities.Provider     `json:"provider"`
	Groups   []entities.RelayGroup `json:"groups"`
	Access   entities.AccessList   `json:"access"`
	Options  entities.Options      `json:"options"`

	// Legacy schema: one flat channel->language mapping, no groups.
	LegacyMapping map[string]string `json:"mapping,omitempty"`
}

func (s *configStore) load(guildID string) (*entities.GuildConfig, error) {
	var doc configDocument
	if err := readJSON(s.path(guildID), &doc); err != nil {
		return nil, err
	}

	config := &entities.GuildConfig{
		GuildID:  guildID,
		Power:    true,
		Provider: doc.Provider,
		Groups:   doc.Groups,
		Access:   doc.Access,
		Options:  doc.Options,
	}
	if doc.Power != nil {
		config.Power = *doc.Power
	}
	if config.Groups == nil {
		config.Groups = []entities.RelayGroup{}
	}

	if len(doc.LegacyMapping) > 0 && len(doc.Groups) == 0 {
		group := entities.RelayGroup{Name: legacyGroupName, Power: true}
		for channelID, language := range doc.LegacyMapping {
			group.Channels = append(group.Channels, entities.ChannelMapping{
				ChannelID: channelID,
				Language:  language,
			})
		}
		config.Groups = []entities.RelayGroup{group}
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"channels": len(group.Channels),
		}).Info("Migrated legacy relay mapping into default group")
	}

	return config, nil
}
