package autotranslate

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/bot/common"
	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
)

const (
	// defaultMinChars filters out one-word noise like "ok" and emoji.
	defaultMinChars = 5

	// sendCooldown throttles replies per channel.
	sendCooldown = 500 * time.Millisecond

	// maxInFlight bounds concurrent provider calls per channel.
	maxInFlight = 2
)

// Settings is the per-channel auto-translation configuration. It lives in
// memory only and resets on restart, matching the throwaway nature of the
// feature.
type Settings struct {
	Target    string
	Source    string
	Formality string
	MinChars  int
}

type channelState struct {
	settings Settings
	lastSent time.Time
	inFlight chan struct{}
}

// Feature translates every eligible message of an enabled channel in place,
// replying below the original instead of mirroring into relay siblings.
type Feature struct {
	configs     *services.ConfigService
	providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)

	mu       sync.Mutex
	channels map[string]*channelState
}

// NewFeature creates a new autotranslate feature instance
func NewFeature(configs *services.ConfigService, providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)) *Feature {
	return &Feature{
		configs:     configs,
		providerFor: providerFor,
		channels:    make(map[string]*channelState),
	}
}

// HandleCommand routes the autotranslate subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.authorize(s, i) {
		common.RespondWithError(s, i, "You are not allowed to configure auto-translation")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "on":
		f.handleOn(s, i, options[0].Options)
	case "off":
		f.handleOff(s, i)
	case "status":
		f.handleStatus(s, i)
	}
}

// authorize admits administrators plus whitelisted users and roles.
func (f *Feature) authorize(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	actor := common.ActorFromInteraction(s, i)
	config, err := f.configs.Config(context.Background(), i.GuildID)
	if err != nil {
		return actor.Administrator
	}
	return services.Authorize(actor, config)
}

// Enable switches a channel on with the given settings. A zero MinChars
// falls back to the default.
func (f *Feature) Enable(channelID string, settings Settings) {
	if settings.MinChars <= 0 {
		settings.MinChars = defaultMinChars
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if state, ok := f.channels[channelID]; ok {
		state.settings = settings
		return
	}
	f.channels[channelID] = &channelState{
		settings: settings,
		inFlight: make(chan struct{}, maxInFlight),
	}
}

// Disable switches a channel off. Returns false when it was not enabled.
func (f *Feature) Disable(channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelID]
	delete(f.channels, channelID)
	return ok
}

// Lookup returns the channel's settings, if enabled.
func (f *Feature) Lookup(channelID string) (Settings, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.channels[channelID]
	if !ok {
		return Settings{}, false
	}
	return state.settings, true
}

// admit decides whether a message may start a translation and stamps the
// channel's cooldown when it does. The settings are copied out so later
// Enable calls do not race with an in-flight translation.
func (f *Feature) admit(channelID, content string, authorIsBot bool, now time.Time) (Settings, chan struct{}, bool) {
	if authorIsBot || skippable(content) {
		return Settings{}, nil, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.channels[channelID]
	if !ok {
		return Settings{}, nil, false
	}
	if utf8.RuneCountInString(strings.TrimSpace(content)) < state.settings.MinChars {
		return Settings{}, nil, false
	}
	if now.Sub(state.lastSent) < sendCooldown {
		return Settings{}, nil, false
	}
	state.lastSent = now
	return state.settings, state.inFlight, true
}
