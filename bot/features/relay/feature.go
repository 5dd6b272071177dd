package relay

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/bot/common"
	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
)

// Feature handles relay group configuration commands
type Feature struct {
	session     *discordgo.Session
	configs     *services.ConfigService
	providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)
}

// NewFeature creates a new relay feature instance
func NewFeature(session *discordgo.Session, configs *services.ConfigService, providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)) *Feature {
	return &Feature{
		session:     session,
		configs:     configs,
		providerFor: providerFor,
	}
}

// HandleCommand routes relay commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.authorize(s, i) {
		common.RespondWithError(s, i, "You are not allowed to configure the relay")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "group":
		f.handleGroup(s, i, options[0].Options)
	case "access":
		f.handleAccess(s, i, options[0].Options)
	case "provider":
		f.handleProvider(s, i, options[0].Options)
	case "power":
		f.handlePower(s, i, options[0].Options)
	case "replymode":
		f.handleReplyMode(s, i, options[0].Options)
	case "threads":
		f.handleThreads(s, i, options[0].Options)
	case "reactions":
		f.handleReactions(s, i, options[0].Options)
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
