package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/bot/common"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/utils"
)

// provider resolves the guild's configured translation backend.
func (f *Feature) provider(ctx context.Context, guildID string) (interfaces.TranslationProvider, error) {
	config, err := f.configs.Config(ctx, guildID)
	if err != nil {
		return nil, err
	}
	provider, ok := f.providerFor(config.Provider)
	if !ok {
		return nil, fmt.Errorf("no credentials for provider %s", config.Provider)
	}
	return provider, nil
}

// handleTranslate handles /translate
func (f *Feature) handleTranslate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	text := optString(options, "text")
	target := utils.NormalizeLanguage(optString(options, "target"))
	sourceHint := utils.NormalizeLanguage(optString(options, "source"))
	if text == "" || target == "" {
		common.RespondWithError(s, i, "Text and target language are required")
		return
	}

	ctx := context.Background()
	provider, err := f.provider(ctx, i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "No translation provider is available")
		return
	}

	// Provider calls can exceed the interaction response window.
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer translate response: %v", err)
		return
	}

	translated, detected, err := provider.Translate(ctx, text, target, sourceHint)
	if err != nil {
		log.WithError(err).Warn("manual translation failed")
		common.FollowUp(s, i, "❌ Translation failed. Please try again later.", true)
		return
	}

	header := fmt.Sprintf("**→ %s**", target)
	if detected != "" && sourceHint == "" {
		header = fmt.Sprintf("**%s → %s**", detected, target)
	}
	common.FollowUp(s, i, header+"\n"+translated, true)
}

// handleDetect handles /detect
func (f *Feature) handleDetect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	text := optString(i.ApplicationCommandData().Options, "text")
	if text == "" {
		common.RespondWithError(s, i, "Text is required")
		return
	}

	ctx := context.Background()
	provider, err := f.provider(ctx, i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "No translation provider is available")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer detect response: %v", err)
		return
	}

	code, err := provider.DetectLanguage(ctx, text)
	if err != nil {
		log.WithError(err).Warn("language detection failed")
		common.FollowUp(s, i, "❌ Detection failed. Please try again later.", true)
		return
	}
	common.FollowUp(s, i, fmt.Sprintf("Detected language: `%s`", code), true)
}

// handleLanguages handles /languages
func (f *Feature) handleLanguages(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	provider, err := f.provider(ctx, i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "No translation provider is available")
		return
	}

	targets, err := provider.SupportedTargets(ctx)
	if err != nil {
		log.WithError(err).Warn("target list unavailable")
		targets = utils.CommonLanguages
	}

	var lines []string
	for _, t := range targets {
		lines = append(lines, fmt.Sprintf("`%s` %s", t.Code, t.Name))
	}
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Supported target languages (%s)", provider.Name()),
		Description: strings.Join(lines, "\n"),
		Color:       0x5865F2,
	}
	common.RespondWithEmbed(s, i, embed, true)
}

func optString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// HandleAutocomplete serves language suggestions for the target and source
// options of /translate.
func (f *Feature) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			query = opt.StringValue()
		}
	}

	ctx := context.Background()
	var targets []interfaces.Language
	if provider, err := f.provider(ctx, i.GuildID); err == nil {
		if list, err := provider.SupportedTargets(ctx); err == nil {
			targets = list
		}
	}

	suggestions := utils.SuggestLanguages(query, targets, 20)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, sug := range suggestions {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s (%s)", sug.Name, sug.Code),
			Value: sug.Code,
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		log.Errorf("Failed to respond to autocomplete: %v", err)
	}
}
