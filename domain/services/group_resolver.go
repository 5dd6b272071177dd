package services

import (
	"sync"

	"github.com/Impetoast/Catcord/domain/entities"
)

// Resolution is the routing decision for one mapped channel: the enclosing
// group, the channel's own language, and the sibling channels a message must
// fan out to.
type Resolution struct {
	GuildID        string
	GroupName      string
	SourceLanguage string
	Siblings       []entities.ChannelMapping
}

// GroupResolver answers "which group does this channel relay in" in O(1) on
// the hot path. The index is rebuilt whenever a guild's configuration
// mutates; channels of powered-off groups (or powered-off guilds) are simply
// absent from it.
type GroupResolver struct {
	mu sync.RWMutex
	// byGuild maps guild ID -> channel ID -> resolution.
	byGuild map[string]map[string]Resolution
}

// NewGroupResolver creates an empty resolver index.
func NewGroupResolver() *GroupResolver {
	return &GroupResolver{
		byGuild: make(map[string]map[string]Resolution),
	}
}

// Rebuild replaces a guild's slice of the index from its current config.
func (r *GroupResolver) Rebuild(config *entities.GuildConfig) {
	index := make(map[string]Resolution)
	if config.Power {
		for _, group := range config.Groups {
			if !group.Power {
				continue
			}
			for _, mapping := range group.Channels {
				index[mapping.ChannelID] = Resolution{
					GuildID:        config.GuildID,
					GroupName:      group.Name,
					SourceLanguage: mapping.Language,
					Siblings:       group.Siblings(mapping.ChannelID),
				}
			}
		}
	}

	r.mu.Lock()
	r.byGuild[config.GuildID] = index
	r.mu.Unlock()
}

// Resolve looks up the routing decision for a channel. The second return is
// false when the channel is unmapped or its group is powered off.
func (r *GroupResolver) Resolve(guildID, channelID string) (Resolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, ok := r.byGuild[guildID]
	if !ok {
		return Resolution{}, false
	}
	resolution, ok := index[channelID]
	return resolution, ok
}

// Forget drops a guild from the index.
func (r *GroupResolver) Forget(guildID string) {
	r.mu.Lock()
	delete(r.byGuild, guildID)
	r.mu.Unlock()
}
