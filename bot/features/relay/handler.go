package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/bot/common"
	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/utils"
)

// handleGroup routes the /relay group subcommands
func (f *Feature) handleGroup(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	sub := options[0]
	ctx := context.Background()

	switch sub.Name {
	case "create":
		name := sub.Options[0].StringValue()
		if err := f.configs.CreateGroup(ctx, i.GuildID, name); err != nil {
			common.HandleError(s, i, err)
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("Relay group **%s** created. Add channels with `/relay group add`.", name))

	case "add":
		group := sub.Options[0].StringValue()
		channel := sub.Options[1].ChannelValue(s)
		language, err := f.validateLanguage(ctx, i.GuildID, sub.Options[2].StringValue())
		if err != nil {
			common.HandleError(s, i, err)
			return
		}
		if err := f.configs.SetChannel(ctx, i.GuildID, group, channel.ID, language); err != nil {
			common.HandleError(s, i, err)
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("<#%s> relays in **%s** as `%s`", channel.ID, group, language))

	case "remove":
		group := sub.Options[0].StringValue()
		channel := sub.Options[1].ChannelValue(s)
		if err := f.configs.RemoveChannel(ctx, i.GuildID, group, channel.ID); err != nil {
			common.HandleError(s, i, err)
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("<#%s> removed from **%s**", channel.ID, group))

	case "delete":
		name := sub.Options[0].StringValue()
		if err := f.configs.DeleteGroup(ctx, i.GuildID, name); err != nil {
			common.HandleError(s, i, err)
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("Relay group **%s** deleted", name))

	case "power":
		name := sub.Options[0].StringValue()
		on := sub.Options[1].BoolValue()
		if err := f.configs.SetGroupPower(ctx, i.GuildID, name, on); err != nil {
			common.HandleError(s, i, err)
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("Relay group **%s** switched %s", name, onOff(on)))

	case "list":
		f.handleStatus(s, i)
	}
}

// handleAccess routes the /relay access subcommands
func (f *Feature) handleAccess(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	sub := options[0]
	ctx := context.Background()

	// Whitelist mutations stay admin-only; a whitelisted user must not be
	// able to whitelist others.
	if !common.ActorFromInteraction(s, i).Administrator {
		common.RespondWithError(s, i, "You need administrator permissions to manage the whitelist")
		return
	}

	var err error
	var message string
	switch sub.Name {
	case "add-role":
		role := sub.Options[0].RoleValue(s, i.GuildID)
		err = f.configs.AccessAddRole(ctx, i.GuildID, role.ID)
		message = fmt.Sprintf("<@&%s> may now configure the relay", role.ID)
	case "add-user":
		user := sub.Options[0].UserValue(s)
		err = f.configs.AccessAddUser(ctx, i.GuildID, user.ID)
		message = fmt.Sprintf("<@%s> may now configure the relay", user.ID)
	case "remove-role":
		role := sub.Options[0].RoleValue(s, i.GuildID)
		err = f.configs.AccessRemoveRole(ctx, i.GuildID, role.ID)
		message = fmt.Sprintf("<@&%s> removed from the whitelist", role.ID)
	case "remove-user":
		user := sub.Options[0].UserValue(s)
		err = f.configs.AccessRemoveUser(ctx, i.GuildID, user.ID)
		message = fmt.Sprintf("<@%s> removed from the whitelist", user.ID)
	case "clear":
		err = f.configs.AccessClear(ctx, i.GuildID)
		message = "Whitelist cleared, relay configuration is admin-only again"
	default:
		return
	}
	if err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, message)
}

// handleProvider handles /relay provider
func (f *Feature) handleProvider(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	provider := entities.Provider(options[0].StringValue())
	if _, ok := f.providerFor(provider); !ok {
		common.RespondWithError(s, i, fmt.Sprintf("No credentials configured for **%s**", provider))
		return
	}
	if err := f.configs.SetProvider(context.Background(), i.GuildID, provider); err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Translation provider set to **%s**", provider))
}

// handlePower handles /relay power, the guild-wide kill switch
func (f *Feature) handlePower(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	on := options[0].BoolValue()
	if err := f.configs.SetPower(context.Background(), i.GuildID, on); err != nil {
		common.HandleError(s, i, err)
		return
	}
	if on {
		common.RespondWithSuccess(s, i, "Relay switched on")
	} else {
		common.RespondWithSuccess(s, i, "Relay switched off. Mappings are kept and resume when switched back on.")
	}
}

func (f *Feature) handleReplyMode(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	on := options[0].BoolValue()
	if err := f.configs.SetReplyMode(context.Background(), i.GuildID, on); err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Reply previews switched %s", onOff(on)))
}

func (f *Feature) handleThreads(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	on := options[0].BoolValue()
	if err := f.configs.SetThreadMirroring(context.Background(), i.GuildID, on); err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Thread mirroring switched %s", onOff(on)))
}

func (f *Feature) handleReactions(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	on := options[0].BoolValue()
	if err := f.configs.SetReactionMirroring(context.Background(), i.GuildID, on); err != nil {
		common.HandleError(s, i, err)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Reaction mirroring switched %s", onOff(on)))
}

// handleStatus handles /relay status and /relay group list
func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	config, err := f.configs.Config(context.Background(), i.GuildID)
	if err != nil {
		common.HandleError(s, i, err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "Relay status",
		Color: 0x5865F2,
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Settings",
		Value: fmt.Sprintf("Power: %s\nProvider: %s\nReply previews: %s\nThread mirroring: %s\nReaction mirroring: %s",
			onOff(config.Power), config.Provider,
			onOff(config.Options.ReplyMode), onOff(config.Options.ThreadMirroring), onOff(config.Options.ReactionMirroring)),
	})

	targetSet := f.targetSet(config)

	if len(config.Groups) == 0 {
		embed.Description = "No relay groups configured. Start with `/relay group create`."
	}
	for _, group := range config.Groups {
		var lines []string
		for _, mapping := range group.Channels {
			line := fmt.Sprintf("<#%s> → `%s`", mapping.ChannelID, mapping.Language)
			if _, err := s.State.Channel(mapping.ChannelID); err != nil {
				if _, err := s.Channel(mapping.ChannelID); err != nil {
					line += " ⚠️ channel not found"
				}
			}
			if targetSet != nil && !targetSet[utils.AliasForTargets(mapping.Language, targetSet)] {
				line += " ⚠️ language not found"
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			lines = []string{"no channels yet"}
		}
		name := group.Name
		if !group.Power {
			name += " (off)"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: strings.Join(lines, "\n"),
		})
	}

	if len(config.Access.Roles) > 0 || len(config.Access.Users) > 0 {
		var parts []string
		for _, roleID := range config.Access.Roles {
			parts = append(parts, fmt.Sprintf("<@&%s>", roleID))
		}
		for _, userID := range config.Access.Users {
			parts = append(parts, fmt.Sprintf("<@%s>", userID))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Whitelist",
			Value: strings.Join(parts, " "),
		})
	}

	common.RespondWithEmbed(s, i, embed, true)
}

// targetSet returns the provider's supported-target set, or nil when the
// provider or its list is unavailable.
func (f *Feature) targetSet(config *entities.GuildConfig) map[string]bool {
	provider, ok := f.providerFor(config.Provider)
	if !ok {
		return nil
	}
	targets, err := provider.SupportedTargets(context.Background())
	if err != nil {
		return nil
	}
	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		set[t.Code] = true
	}
	return set
}

// validateLanguage normalizes a language code and checks it against the
// configured provider's target list when one is available. Validation is
// best-effort; an unreachable provider does not block configuration.
func (f *Feature) validateLanguage(ctx context.Context, guildID, code string) (string, error) {
	normalized := utils.NormalizeLanguage(code)
	if normalized == "" {
		return "", entities.NewConfigError("language code must not be empty")
	}

	config, err := f.configs.Config(ctx, guildID)
	if err != nil {
		return normalized, nil
	}
	provider, ok := f.providerFor(config.Provider)
	if !ok {
		return normalized, nil
	}
	targets, err := provider.SupportedTargets(ctx)
	if err != nil {
		log.WithError(err).Debug("target list unavailable, accepting language unvalidated")
		return normalized, nil
	}

	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		set[t.Code] = true
	}
	aliased := utils.AliasForTargets(normalized, set)
	if set[aliased] {
		return aliased, nil
	}

	suggestions := utils.SuggestLanguages(normalized, targets, 5)
	var codes []string
	for _, sug := range suggestions {
		codes = append(codes, "`"+sug.Code+"`")
	}
	if len(codes) > 0 {
		return "", entities.NewConfigError("%s does not support `%s`. Did you mean %s?", config.Provider, normalized, strings.Join(codes, ", "))
	}
	return "", entities.NewConfigError("%s does not support `%s`", config.Provider, normalized)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
