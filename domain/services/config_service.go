package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
)

// ConfigService owns every mutation of guild relay configuration. Mutations
// from the same guild serialize on a per-guild lock; different guilds never
// block each other. Every successful mutation is persisted atomically and the
// resolver index is rebuilt before the lock is released.
type ConfigService struct {
	store           interfaces.ConfigStore
	resolver        *GroupResolver
	defaultProvider entities.Provider

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	cache  map[string]*entities.GuildConfig
	cacheM sync.RWMutex
}

// NewConfigService creates a config service backed by the given store.
func NewConfigService(store interfaces.ConfigStore, resolver *GroupResolver, defaultProvider entities.Provider) *ConfigService {
	return &ConfigService{
		store:           store,
		resolver:        resolver,
		defaultProvider: defaultProvider,
		locks:           make(map[string]*sync.Mutex),
		cache:           make(map[string]*entities.GuildConfig),
	}
}

// WarmUp loads every persisted guild config and builds the resolver index.
// Called once at startup.
func (s *ConfigService) WarmUp(ctx context.Context) error {
	configs, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load guild configs: %w", err)
	}
	s.cacheM.Lock()
	for _, config := range configs {
		s.cache[config.GuildID] = config
	}
	s.cacheM.Unlock()
	for _, config := range configs {
		s.resolver.Rebuild(config)
	}
	return nil
}

// Config returns a copy of a guild's configuration, creating the default one
// on first use.
func (s *ConfigService) Config(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	s.cacheM.RLock()
	cached, ok := s.cache[guildID]
	s.cacheM.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	config, err := s.store.GetOrCreate(ctx, guildID, s.defaultProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for guild %s: %w", guildID, err)
	}
	s.cacheM.Lock()
	s.cache[guildID] = config
	s.cacheM.Unlock()
	s.resolver.Rebuild(config)
	return config.Clone(), nil
}

// mutate applies fn to a guild's config under the guild lock, persisting and
// re-indexing only when fn succeeds. A failed fn leaves config, cache, and
// index untouched.
func (s *ConfigService) mutate(ctx context.Context, guildID string, fn func(*entities.GuildConfig) error) error {
	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	s.cacheM.RLock()
	current, ok := s.cache[guildID]
	s.cacheM.RUnlock()
	if !ok {
		loaded, err := s.store.GetOrCreate(ctx, guildID, s.defaultProvider)
		if err != nil {
			return fmt.Errorf("failed to load config for guild %s: %w", guildID, err)
		}
		current = loaded
	}

	updated := current.Clone()
	if err := fn(updated); err != nil {
		return err
	}

	if err := s.store.Save(ctx, updated); err != nil {
		return fmt.Errorf("failed to persist config for guild %s: %w", guildID, err)
	}

	s.cacheM.Lock()
	s.cache[guildID] = updated
	s.cacheM.Unlock()
	s.resolver.Rebuild(updated)
	return nil
}

// CreateGroup adds a new empty relay group.
func (s *ConfigService) CreateGroup(ctx context.Context, guildID, name string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		return c.AddGroup(name)
	})
}

// DeleteGroup removes a group and its mappings.
func (s *ConfigService) DeleteGroup(ctx context.Context, guildID, name string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		return c.DeleteGroup(name)
	})
}

// SetChannel maps a channel to a language inside a group.
func (s *ConfigService) SetChannel(ctx context.Context, guildID, groupName, channelID, language string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		return c.SetChannel(groupName, channelID, language)
	})
}

// RemoveChannel drops a channel mapping from a group.
func (s *ConfigService) RemoveChannel(ctx context.Context, guildID, groupName, channelID string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		return c.RemoveChannel(groupName, channelID)
	})
}

// SetGroupPower toggles relaying for one group without touching its mappings.
func (s *ConfigService) SetGroupPower(ctx context.Context, guildID, groupName string, on bool) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		return c.SetGroupPower(groupName, on)
	})
}

// SetPower toggles relaying for the whole guild.
func (s *ConfigService) SetPower(ctx context.Context, guildID string, on bool) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		c.Power = on
		return nil
	})
}

// SetProvider switches the guild's translation provider.
func (s *ConfigService) SetProvider(ctx context.Context, guildID string, provider entities.Provider) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		if !provider.Valid() {
			return entities.NewConfigError("unknown provider %q", provider)
		}
		c.Provider = provider
		return nil
	})
}

// SetReplyMode toggles the translated reply-context block.
func (s *ConfigService) SetReplyMode(ctx context.Context, guildID string, on bool) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		c.Options.ReplyMode = on
		return nil
	})
}

// SetThreadMirroring toggles thread mirroring.
func (s *ConfigService) SetThreadMirroring(ctx context.Context, guildID string, on bool) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		c.Options.ThreadMirroring = on
		return nil
	})
}

// SetReactionMirroring toggles reaction mirroring.
func (s *ConfigService) SetReactionMirroring(ctx context.Context, guildID string, on bool) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		c.Options.ReactionMirroring = on
		return nil
	})
}

// AccessAddRole whitelists a role for configuration commands.
func (s *ConfigService) AccessAddRole(ctx context.Context, guildID, roleID string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		if c.Access.ContainsAnyRole([]string{roleID}) {
			return entities.NewConfigError("role <@&%s> is already whitelisted", roleID)
		}
		c.Access.Roles = append(c.Access.Roles, roleID)
		return nil
	})
}

// AccessAddUser whitelists a user for configuration commands.
func (s *ConfigService) AccessAddUser(ctx context.Context, guildID, userID string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		if c.Access.ContainsUser(userID) {
			return entities.NewConfigError("user <@%s> is already whitelisted", userID)
		}
		c.Access.Users = append(c.Access.Users, userID)
		return nil
	})
}

// AccessRemoveRole removes a role from the whitelist.
func (s *ConfigService) AccessRemoveRole(ctx context.Context, guildID, roleID string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		for i, id := range c.Access.Roles {
			if id == roleID {
				c.Access.Roles = append(c.Access.Roles[:i], c.Access.Roles[i+1:]...)
				return nil
			}
		}
		return entities.NewConfigError("role <@&%s> is not whitelisted", roleID)
	})
}

// AccessRemoveUser removes a user from the whitelist.
func (s *ConfigService) AccessRemoveUser(ctx context.Context, guildID, userID string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		for i, id := range c.Access.Users {
			if id == userID {
				c.Access.Users = append(c.Access.Users[:i], c.Access.Users[i+1:]...)
				return nil
			}
		}
		return entities.NewConfigError("user <@%s> is not whitelisted", userID)
	})
}

// AccessClear empties the whitelist; administrators retain access.
func (s *ConfigService) AccessClear(ctx context.Context, guildID string) error {
	return s.mutate(ctx, guildID, func(c *entities.GuildConfig) error {
		c.Access = entities.AccessList{}
		return nil
	})
}

func (s *ConfigService) guildLock(guildID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[guildID] = lock
	}
	return lock
}
