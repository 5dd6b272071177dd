package translate

import (
	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
)

// Feature handles the manual translation commands
type Feature struct {
	configs     *services.ConfigService
	providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)
}

// NewFeature creates a new translate feature instance
func NewFeature(configs *services.ConfigService, providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)) *Feature {
	return &Feature{
		configs:     configs,
		providerFor: providerFor,
	}
}

// HandleCommand routes translation commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "translate":
		f.handleTranslate(s, i)
	case "detect":
		f.handleDetect(s, i)
	case "languages":
		f.handleLanguages(s, i)
	}
}
