package entities

// Provider identifies which translation backend a guild uses.
type Provider string

const (
	ProviderDeepL  Provider = "deepl"
	ProviderOpenAI Provider = "openai"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderDeepL || p == ProviderOpenAI
}

// ChannelMapping assigns a target language to a channel within a relay group.
// The language code is opaque here; it is validated lazily against the active
// provider's supported-language list.
type ChannelMapping struct {
	ChannelID string `json:"channelId"`
	Language  string `json:"language"`
}

// RelayGroup is a named set of channels that mirror each other's messages.
type RelayGroup struct {
	Name     string           `json:"name"`
	Power    bool             `json:"power"`
	Channels []ChannelMapping `json:"channels"`
}

// Mapping returns the channel mapping for the given channel, if present.
func (g *RelayGroup) Mapping(channelID string) (*ChannelMapping, bool) {
	for i := range g.Channels {
		if g.Channels[i].ChannelID == channelID {
			return &g.Channels[i], true
		}
	}
	return nil, false
}

// Siblings returns every mapping in the group except the given channel's.
func (g *RelayGroup) Siblings(channelID string) []ChannelMapping {
	siblings := make([]ChannelMapping, 0, len(g.Channels))
	for _, m := range g.Channels {
		if m.ChannelID != channelID {
			siblings = append(siblings, m)
		}
	}
	return siblings
}

// AccessList holds the roles and users allowed to mutate relay configuration
// in addition to native administrators.
type AccessList struct {
	Roles []string `json:"roles"`
	Users []string `json:"users"`
}

// ContainsUser reports whether the user is whitelisted directly.
func (a *AccessList) ContainsUser(userID string) bool {
	for _, id := range a.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// ContainsAnyRole reports whether any of the given roles is whitelisted.
func (a *AccessList) ContainsAnyRole(roleIDs []string) bool {
	for _, role := range a.Roles {
		for _, id := range roleIDs {
			if id == role {
				return true
			}
		}
	}
	return false
}

// Options holds the per-guild relay feature toggles.
type Options struct {
	ReplyMode         bool `json:"replyMode"`
	ThreadMirroring   bool `json:"threadMirroring"`
	ReactionMirroring bool `json:"reactionMirroring"`
}

// GuildConfig is the full relay configuration of one guild.
type GuildConfig struct {
	GuildID  string       `json:"-"`
	Power    bool         `json:"power"`
	Provider Provider     `json:"provider"`
	Groups   []RelayGroup `json:"groups"`
	Access   AccessList   `json:"access"`
	Options  Options      `json:"options"`
}

// NewGuildConfig returns the default configuration for a guild that has not
// been configured before.
func NewGuildConfig(guildID string, provider Provider) *GuildConfig {
	return &GuildConfig{
		GuildID:  guildID,
		Power:    true,
		Provider: provider,
		Groups:   []RelayGroup{},
	}
}

// Group returns the named group, if present.
func (c *GuildConfig) Group(name string) (*RelayGroup, bool) {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

// GroupForChannel returns the group a channel is mapped in, regardless of
// power state. A channel belongs to at most one group.
func (c *GuildConfig) GroupForChannel(channelID string) (*RelayGroup, bool) {
	for i := range c.Groups {
		if _, ok := c.Groups[i].Mapping(channelID); ok {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

// AddGroup creates a new empty, powered-on group.
func (c *GuildConfig) AddGroup(name string) error {
	if name == "" {
		return NewConfigError("group name must not be empty")
	}
	if _, exists := c.Group(name); exists {
		return NewConfigError("group %q already exists", name)
	}
	c.Groups = append(c.Groups, RelayGroup{Name: name, Power: true})
	return nil
}

// DeleteGroup removes a group and all its channel mappings.
func (c *GuildConfig) DeleteGroup(name string) error {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			c.Groups = append(c.Groups[:i], c.Groups[i+1:]...)
			return nil
		}
	}
	return NewConfigError("group %q does not exist", name)
}

// SetChannel maps a channel to a language within the named group. Mapping a
// channel that already belongs to a different group is rejected without
// mutating either group; re-mapping within the same group updates the
// language in place.
func (c *GuildConfig) SetChannel(groupName, channelID, language string) error {
	group, ok := c.Group(groupName)
	if !ok {
		return NewConfigError("group %q does not exist", groupName)
	}
	if other, mapped := c.GroupForChannel(channelID); mapped && other.Name != groupName {
		return NewConfigError("channel <#%s> already belongs to group %q", channelID, other.Name)
	}
	if existing, ok := group.Mapping(channelID); ok {
		existing.Language = language
		return nil
	}
	group.Channels = append(group.Channels, ChannelMapping{ChannelID: channelID, Language: language})
	return nil
}

// RemoveChannel drops a channel's mapping from the named group.
func (c *GuildConfig) RemoveChannel(groupName, channelID string) error {
	group, ok := c.Group(groupName)
	if !ok {
		return NewConfigError("group %q does not exist", groupName)
	}
	for i := range group.Channels {
		if group.Channels[i].ChannelID == channelID {
			group.Channels = append(group.Channels[:i], group.Channels[i+1:]...)
			return nil
		}
	}
	return NewConfigError("channel <#%s> is not mapped in group %q", channelID, groupName)
}

// SetGroupPower flips the power flag of one group. Mappings are preserved so
// relaying resumes unchanged when power is turned back on.
func (c *GuildConfig) SetGroupPower(groupName string, on bool) error {
	group, ok := c.Group(groupName)
	if !ok {
		return NewConfigError("group %q does not exist", groupName)
	}
	group.Power = on
	return nil
}

// Clone returns a deep copy so cached configs are never shared mutably
// across guild boundaries or with in-flight fan-outs.
func (c *GuildConfig) Clone() *GuildConfig {
	clone := *c
	clone.Groups = make([]RelayGroup, len(c.Groups))
	for i, g := range c.Groups {
		clone.Groups[i] = g
		clone.Groups[i].Channels = append([]ChannelMapping(nil), g.Channels...)
	}
	clone.Access.Roles = append([]string(nil), c.Access.Roles...)
	clone.Access.Users = append([]string(nil), c.Access.Users...)
	return &clone
}
