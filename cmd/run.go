package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/application"
	"github.com/Impetoast/Catcord/bot"
	"github.com/Impetoast/Catcord/config"
	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
	"github.com/Impetoast/Catcord/infrastructure"
	"github.com/Impetoast/Catcord/repository"
)

// Version is stamped at build time.
var Version = "dev"

// mirrorFlushInterval paces the mirror record snapshots.
const mirrorFlushInterval = 30 * time.Second

// Run initializes and starts the application, blocking until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg := config.Get()
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.Info("Starting Catcord...")

	// Storage
	configStore := repository.NewConfigStore(cfg.DataDir)
	mirrorStore, err := repository.NewMirrorStore(cfg.DataDir, cfg.MirrorRecordCap)
	if err != nil {
		return fmt.Errorf("failed to open mirror store: %w", err)
	}
	reminderStore := repository.NewReminderStore(cfg.DataDir)

	// Translation providers
	providers := make(map[entities.Provider]interfaces.TranslationProvider)
	if cfg.DeepLToken != "" {
		providers[entities.ProviderDeepL] = infrastructure.NewDeepLProvider(cfg.DeepLToken, cfg.DeepLAPIURL, cfg.ProviderTimeout)
	}
	if cfg.OpenAIToken != "" {
		providers[entities.ProviderOpenAI] = infrastructure.NewOpenAIProvider(cfg.OpenAIToken, cfg.OpenAIAPIURL, cfg.OpenAIModel, cfg.ProviderTimeout)
	}
	defaultProvider := entities.ProviderDeepL
	if cfg.DeepLToken == "" {
		defaultProvider = entities.ProviderOpenAI
	}
	log.WithFields(log.Fields{
		"providers": len(providers),
		"default":   defaultProvider,
	}).Info("Translation providers configured")

	// Domain services
	resolver := services.NewGroupResolver()
	configService := services.NewConfigService(configStore, resolver, defaultProvider)
	if err := configService.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to warm up guild configs: %w", err)
	}

	// Discord session and infrastructure
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("error creating discord session: %w", err)
	}
	mirror := infrastructure.NewWebhookMirror(session, cfg.WebhookName, cfg.WebhookErrorEvery)
	gateway := infrastructure.NewDiscordGateway(session, cfg.DiscordTimeout)

	// Relay engine and reminders
	dispatcher := application.NewDispatcher(cfg.RelayQueueSize)
	engine := application.NewEngine(
		configService, resolver, providers,
		mirror, mirrorStore, mirrorStore, gateway,
		dispatcher, mirror.IsOwnWebhook)
	reminders := application.NewReminderService(reminderStore, gateway, resolver, configService, engine.Provider)
	if err := reminders.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to warm up reminders: %w", err)
	}

	discordBot := bot.New(session, engine, configService, reminders, Version)
	if err := discordBot.Open(); err != nil {
		return err
	}

	engine.Start(ctx, discordBot.BotUserID())
	go mirrorStore.Run(ctx, mirrorFlushInterval)
	go reminders.Run(ctx)

	log.WithField("environment", cfg.Environment).Info("Catcord is running")
	<-ctx.Done()

	log.Info("Shutting down...")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing discord session")
	}
	mirrorStore.Flush()
	log.Info("Shutdown completed")
	return nil
}
