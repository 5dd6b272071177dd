package reminder

import (
	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/application"
	"github.com/Impetoast/Catcord/bot/common"
)

// Feature handles scheduled reminder commands
type Feature struct {
	reminders *application.ReminderService
}

// NewFeature creates a new reminder feature instance
func NewFeature(reminders *application.ReminderService) *Feature {
	return &Feature{reminders: reminders}
}

// HandleCommand routes reminder commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to manage reminders")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "add":
		f.handleAdd(s, i, options[0].Options)
	case "remove":
		f.handleRemove(s, i, options[0].Options)
	case "list":
		f.handleList(s, i)
	case "toggle":
		f.handleToggle(s, i, options[0].Options)
	}
}
