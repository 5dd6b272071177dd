package autotranslate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/bot/common"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/utils"
)

// translateTimeout bounds a single in-place translation.
const translateTimeout = 30 * time.Second

// handleOn handles /autotranslate on
func (f *Feature) handleOn(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	settings := Settings{MinChars: defaultMinChars}
	for _, opt := range options {
		switch opt.Name {
		case "target":
			settings.Target = utils.NormalizeLanguage(opt.StringValue())
		case "source":
			settings.Source = utils.NormalizeLanguage(opt.StringValue())
		case "formality":
			settings.Formality = opt.StringValue()
		case "min_chars":
			settings.MinChars = int(opt.IntValue())
		}
	}
	if settings.Target == "" {
		common.RespondWithError(s, i, "Target language is required")
		return
	}

	f.Enable(i.ChannelID, settings)

	detail := fmt.Sprintf("everything → `%s`", settings.Target)
	if settings.Source != "" {
		detail = fmt.Sprintf("`%s` → `%s`", settings.Source, settings.Target)
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Auto-translation on in <#%s>: %s", i.ChannelID, detail))
}

// handleOff handles /autotranslate off
func (f *Feature) handleOff(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.Disable(i.ChannelID) {
		common.RespondWithError(s, i, "Auto-translation is not enabled in this channel")
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Auto-translation off in <#%s>", i.ChannelID))
}

// handleStatus handles /autotranslate status
func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	settings, ok := f.Lookup(i.ChannelID)
	if !ok {
		common.RespondWithSuccess(s, i, fmt.Sprintf("Auto-translation is off in <#%s>", i.ChannelID))
		return
	}

	source := "auto-detect"
	if settings.Source != "" {
		source = "`" + settings.Source + "`"
	}
	formality := settings.Formality
	if formality == "" {
		formality = "default"
	}
	embed := &discordgo.MessageEmbed{
		Title: "Auto-translation",
		Description: fmt.Sprintf("Channel: <#%s>\nTarget: `%s`\nSource: %s\nFormality: %s\nMinimum length: %d",
			i.ChannelID, settings.Target, source, formality, settings.MinChars),
		Color: 0x5865F2,
	}
	common.RespondWithEmbed(s, i, embed, true)
}

// HandleMessage runs on the gateway reader; it only checks eligibility and
// hands the provider call to a goroutine.
func (f *Feature) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	isBot := m.Author.Bot || m.WebhookID != ""
	settings, slot, ok := f.admit(m.ChannelID, m.Content, isBot, time.Now())
	if !ok {
		return
	}
	go f.translateAndReply(s, m, settings, slot)
}

func (f *Feature) translateAndReply(s *discordgo.Session, m *discordgo.MessageCreate, settings Settings, slot chan struct{}) {
	slot <- struct{}{}
	defer func() { <-slot }()

	ctx, cancel := context.WithTimeout(context.Background(), translateTimeout)
	defer cancel()

	provider, err := f.provider(ctx, m.GuildID)
	if err != nil {
		log.WithError(err).WithField("channel_id", m.ChannelID).Warn("auto-translation has no provider")
		return
	}

	translated, detected, err := translate(ctx, provider, m.Content, settings)
	if err != nil {
		log.WithError(err).WithField("channel_id", m.ChannelID).Warn("auto-translation failed")
		return
	}
	// Already in the target language, nothing to show.
	if detected != "" && sameBase(detected, settings.Target) {
		return
	}

	source := detected
	if source == "" {
		source = "AUTO"
	}
	content := fmt.Sprintf("🌐 **%s → %s**\n%s", source, settings.Target, translated)

	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		// The referenced message may already be gone; post without the reply.
		if _, err := s.ChannelMessageSend(m.ChannelID, content); err != nil {
			log.WithError(err).WithField("channel_id", m.ChannelID).Warn("failed to post auto-translation")
		}
	}
}

// translate prefers the formality-aware path when both the settings and the
// provider support it.
func translate(ctx context.Context, provider interfaces.TranslationProvider, text string, settings Settings) (string, string, error) {
	if settings.Formality != "" && settings.Formality != "default" {
		if formal, ok := provider.(interfaces.FormalityTranslator); ok {
			return formal.TranslateFormal(ctx, text, settings.Target, settings.Source, settings.Formality)
		}
	}
	return provider.Translate(ctx, text, settings.Target, settings.Source)
}

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

// skippable filters command invocations aimed at other bots.
func skippable(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return true
	}
	switch trimmed[0] {
	case '/', '!', '.':
		return true
	}
	return false
}

// sameBase compares language codes ignoring regional variants, so a detected
// EN does not get re-posted into an EN-GB channel.
func sameBase(a, b string) bool {
	return baseCode(utils.NormalizeLanguage(a)) == baseCode(utils.NormalizeLanguage(b))
}

func baseCode(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// HandleAutocomplete serves language suggestions for the target and source
// options of /autotranslate on.
func (f *Feature) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		for _, sub := range opt.Options {
			if sub.Focused {
				query = sub.StringValue()
			}
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
