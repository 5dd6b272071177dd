package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	onOffOption := func(description string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "on",
			Description: description,
			Required:    true,
		}
	}
	groupOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "group",
		Description: "Relay group name",
		Required:    true,
	}
	channelOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionChannel,
		Name:        "channel",
		Description: "Text channel",
		Required:    true,
		ChannelTypes: []discordgo.ChannelType{
			discordgo.ChannelTypeGuildText,
		},
	}

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "relay",
			Description: "Configure the translation relay",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "group",
					Description: "Manage relay groups",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "create",
							Description: "Create a new relay group",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionString,
									Name:        "name",
									Description: "Group name",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add",
							Description: "Map a channel to a language within a group",
							Options: []*discordgo.ApplicationCommandOption{
								groupOption,
								channelOption,
								{
									Type:        discordgo.ApplicationCommandOptionString,
									Name:        "language",
									Description: "Language code, e.g. DE or EN-GB",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove",
							Description: "Remove a channel from a group",
							Options: []*discordgo.ApplicationCommandOption{
								groupOption,
								channelOption,
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "list",
							Description: "List all relay groups and their channels",
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "delete",
							Description: "Delete a relay group",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionString,
									Name:        "name",
									Description: "Group name",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "power",
							Description: "Switch one relay group on or off",
							Options: []*discordgo.ApplicationCommandOption{
								groupOption,
								onOffOption("true to enable, false to disable"),
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "access",
					Description: "Manage who may configure the relay",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add-role",
							Description: "Whitelist a role",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Role to whitelist",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add-user",
							Description: "Whitelist a user",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User to whitelist",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove-role",
							Description: "Remove a role from the whitelist",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Role to remove",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove-user",
							Description: "Remove a user from the whitelist",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User to remove",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "clear",
							Description: "Clear the whitelist",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "provider",
					Description: "Choose the translation provider",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "provider",
							Description: "Translation backend",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "DeepL", Value: "deepl"},
								{Name: "OpenAI", Value: "openai"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "power",
					Description: "Switch relaying on or off for this server",
					Options:     []*discordgo.ApplicationCommandOption{onOffOption("true to enable, false to disable")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "replymode",
					Description: "Toggle quoted reply previews on mirrored messages",
					Options:     []*discordgo.ApplicationCommandOption{onOffOption("true to enable, false to disable")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "threads",
					Description: "Toggle thread mirroring",
					Options:     []*discordgo.ApplicationCommandOption{onOffOption("true to enable, false to disable")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reactions",
					Description: "Toggle reaction mirroring",
					Options:     []*discordgo.ApplicationCommandOption{onOffOption("true to enable, false to disable")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the relay configuration",
				},
			},
		},
		{
			Name:        "translate",
			Description: "Translate a text",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Text to translate",
					Required:    true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "target",
					Description:  "Target language",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "source",
					Description:  "Source language (detected when omitted)",
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "autotranslate",
			Description: "Translate every message in this channel in place",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "on",
					Description: "Enable auto-translation for this channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionString,
							Name:         "target",
							Description:  "Target language",
							Required:     true,
							Autocomplete: true,
						},
						{
							Type:         discordgo.ApplicationCommandOptionString,
							Name:         "source",
							Description:  "Source language (detected when omitted)",
							Autocomplete: true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "formality",
							Description: "Formality register (DeepL only)",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "default", Value: "default"},
								{Name: "less", Value: "less"},
								{Name: "more", Value: "more"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "min_chars",
							Description: "Skip messages shorter than this",
							MinValue:    float64Ptr(1),
							MaxValue:    200,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "off",
					Description: "Disable auto-translation for this channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show this channel's auto-translation settings",
				},
			},
		},
		{
			Name:        "detect",
			Description: "Detect the language of a text",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Text to analyze",
					Required:    true,
				},
			},
		},
		{
			Name:        "languages",
			Description: "List supported target languages",
		},
		{
			Name:        "reminder",
			Description: "Manage scheduled reminders",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a reminder",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Unique reminder name",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "interval",
							Description: "How often the reminder fires",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "unit",
							Description: "Interval unit",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "minutes", Value: "minutes"},
								{Name: "hours", Value: "hours"},
								{Name: "days", Value: "days"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "message",
							Description: "Message to post",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel to post in (defaults to here)",
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "headline",
							Description: "Embed headline",
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "weekday",
							Description: "Only fire on this weekday",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Monday", Value: 0},
								{Name: "Tuesday", Value: 1},
								{Name: "Wednesday", Value: 2},
								{Name: "Thursday", Value: 3},
								{Name: "Friday", Value: 4},
								{Name: "Saturday", Value: 5},
								{Name: "Sunday", Value: 6},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "hour",
							Description: "Only fire at this hour (0-23)",
							MinValue:    float64Ptr(0),
							MaxValue:    23,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "minute",
							Description: "Only fire at this minute (0-59)",
							MinValue:    float64Ptr(0),
							MaxValue:    59,
						},
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "onetime",
							Description: "Remove the reminder after it fires once",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a reminder",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Reminder name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List reminders",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "toggle",
					Description: "Enable or disable reminders for this server",
					Options:     []*discordgo.ApplicationCommandOption{onOffOption("true to enable, false to disable")},
				},
			},
		},
		{
			Name:        "ping",
			Description: "Check the bot's gateway latency",
		},
		{
			Name:        "about",
			Description: "Show bot version and status",
		},
	}

	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}
	log.WithField("commands", len(commands)).Info("Slash commands registered")
	return nil
}

func float64Ptr(v float64) *float64 {
	return &v
}
