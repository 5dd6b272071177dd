package reminder

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/bot/common"
	"github.com/Impetoast/Catcord/domain/entities"
)

var validUnits = map[string]bool{"minutes": true, "hours": true, "days": true}

// handleAdd handles /reminder add
func (f *Feature) handleAdd(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	reminder := &entities.Reminder{ChannelID: i.ChannelID}
	for _, opt := range options {
		switch opt.Name {
		case "name":
			reminder.Name = opt.StringValue()
		case "interval":
			reminder.Interval = int(opt.IntValue())
		case "unit":
			reminder.Unit = opt.StringValue()
		case "channel":
			reminder.ChannelID = opt.ChannelValue(s).ID
		case "message":
			reminder.Message = opt.StringValue()
		case "headline":
			reminder.Headline = opt.StringValue()
		case "weekday":
			weekday := int(opt.IntValue())
			reminder.Weekday = &weekday
		case "hour":
			hour := int(opt.IntValue())
			reminder.Hour = &hour
		case "minute":
			minute := int(opt.IntValue())
			reminder.Minute = &minute
		case "onetime":
			reminder.OneTime = opt.BoolValue()
		}
	}

	if reminder.Name == "" || reminder.Message == "" {
		common.RespondWithError(s, i, "Name and message are required")
		return
	}
	if reminder.Interval <= 0 || !validUnits[reminder.Unit] {
		common.RespondWithError(s, i, "Interval must be positive and the unit one of minutes, hours, days")
		return
	}

	if err := f.reminders.Add(context.Background(), i.GuildID, reminder); err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Reminder **%s** fires every %d %s in <#%s>",
		reminder.Name, reminder.Interval, reminder.Unit, reminder.ChannelID))
}

// handleRemove handles /reminder remove
func (f *Feature) handleRemove(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	name := options[0].StringValue()
	if err := f.reminders.Remove(context.Background(), i.GuildID, name); err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Reminder **%s** removed", name))
}

// handleList handles /reminder list
func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	reminders, enabled := f.reminders.List(context.Background(), i.GuildID)

	if len(reminders) == 0 {
		common.RespondWithSuccess(s, i, "No reminders configured")
		return
	}

	var lines []string
	for _, r := range reminders {
		line := fmt.Sprintf("**%s**: every %d %s in <#%s>", r.Name, r.Interval, r.Unit, r.ChannelID)
		var constraints []string
		if r.Weekday != nil {
			constraints = append(constraints, weekdayName(*r.Weekday))
		}
		if r.Hour != nil {
			constraints = append(constraints, fmt.Sprintf("%02dh", *r.Hour))
		}
		if r.Minute != nil {
			constraints = append(constraints, fmt.Sprintf(":%02d", *r.Minute))
		}
		if len(constraints) > 0 {
			line += " (" + strings.Join(constraints, " ") + ")"
		}
		if r.OneTime {
			line += " [one-time]"
		}
		lines = append(lines, line)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Reminders (%s)", map[bool]string{true: "enabled", false: "disabled"}[enabled]),
		Description: strings.Join(lines, "\n"),
		Color:       0x5865F2,
	}
	common.RespondWithEmbed(s, i, embed, true)
}

// handleToggle handles /reminder toggle
func (f *Feature) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	on := options[0].BoolValue()
	if err := f.reminders.SetEnabled(context.Background(), i.GuildID, on); err != nil {
		common.HandleError(s, i, err)
		return
	}
	if on {
		common.RespondWithSuccess(s, i, "Reminders enabled")
	} else {
		common.RespondWithSuccess(s, i, "Reminders disabled")
	}
}

func weekdayName(weekday int) string {
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return fmt.Sprintf("weekday %d", weekday)
}
