package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/application"
	"github.com/Impetoast/Catcord/bot/features/autotranslate"
	"github.com/Impetoast/Catcord/bot/features/info"
	"github.com/Impetoast/Catcord/bot/features/relay"
	"github.com/Impetoast/Catcord/bot/features/reminder"
	"github.com/Impetoast/Catcord/bot/features/translate"
	"github.com/Impetoast/Catcord/domain/services"
)

// Bot manages the Discord session and all feature modules
type Bot struct {
	session *discordgo.Session
	engine  *application.Engine
	configs *services.ConfigService

	relay         *relay.Feature
	translate     *translate.Feature
	autotranslate *autotranslate.Feature
	reminder      *reminder.Feature
	info          *info.Feature
}

// New creates the bot, wires the features, and registers gateway handlers.
// The session is not opened yet; call Open.
func New(
	session *discordgo.Session,
	engine *application.Engine,
	configs *services.ConfigService,
	reminders *application.ReminderService,
	version string,
) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	// Handlers run on the gateway reader so relay events reach the engine's
	// per-source queues in receive order. The relay handlers only enqueue;
	// anything slower is pushed onto its own goroutine below.
	session.SyncEvents = true

	bot := &Bot{
		session: session,
		engine:  engine,
		configs: configs,
	}

	bot.relay = relay.NewFeature(session, configs, engine.Provider)
	bot.translate = translate.NewFeature(configs, engine.Provider)
	bot.autotranslate = autotranslate.NewFeature(configs, engine.Provider)
	bot.reminder = reminder.NewFeature(reminders)
	bot.info = info.NewFeature(version)

	session.AddHandler(bot.handleInteraction)
	session.AddHandler(bot.handleGuildCreate)
	session.AddHandler(bot.handleMessageCreate)
	session.AddHandler(bot.handleMessageUpdate)
	session.AddHandler(bot.handleMessageDelete)
	session.AddHandler(bot.handleReactionAdd)
	session.AddHandler(bot.handleReactionRemove)
	session.AddHandler(bot.handleThreadCreate)

	return bot
}

// Open connects to the gateway and registers the slash commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	log.WithField("user", b.session.State.User.Username).Info("Bot connected")
	return nil
}

// Close shuts the gateway connection down.
func (b *Bot) Close() error {
	return b.session.Close()
}

// BotUserID returns the connected bot account's user ID.
func (b *Bot) BotUserID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

// handleInteraction routes slash commands and autocomplete queries. Commands
// carry no ordering requirement and may call providers, so each one leaves
// the gateway reader immediately.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	go b.routeInteraction(s, i)
}

func (b *Bot) routeInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "relay":
			b.relay.HandleCommand(s, i)
		case "translate", "detect", "languages":
			b.translate.HandleCommand(s, i)
		case "autotranslate":
			b.autotranslate.HandleCommand(s, i)
		case "reminder":
			b.reminder.HandleCommand(s, i)
		case "ping", "about":
			b.info.HandleCommand(s, i)
		}
	case discordgo.InteractionApplicationCommandAutocomplete:
		switch i.ApplicationCommandData().Name {
		case "translate":
			b.translate.HandleAutocomplete(s, i)
		case "autotranslate":
			b.autotranslate.HandleAutocomplete(s, i)
		}
	}
}

// handleGuildCreate warms the guild's configuration so the relay index is
// ready before the first message arrives.
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	go func() {
		if _, err := b.configs.Config(context.Background(), g.ID); err != nil {
			log.WithError(err).WithField("guild_id", g.ID).Error("failed to prepare guild config")
		}
	}()
}
