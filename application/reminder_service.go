package application

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
)

// ReminderService schedules per-guild reminders. A minute-aligned ticker
// checks every enabled guild; a reminder fires when its interval has elapsed
// and its weekday/hour/minute constraints match the current time. Reminder
// posts into a relay-mapped channel are additionally translated into the
// group's sibling channels.
type ReminderService struct {
	store       interfaces.ReminderStore
	gateway     interfaces.ChatGateway
	resolver    *services.GroupResolver
	configs     *services.ConfigService
	providerFor func(entities.Provider) (interfaces.TranslationProvider, bool)

	mu     sync.Mutex
	guilds map[string]*guildReminders
}

type guildReminders struct {
	settings  entities.ReminderSettings
	reminders []*entities.Reminder
}

// NewReminderService wires the scheduler. providerFor resolves the
// translation backend for sibling-channel mirroring and may report absence.
func NewReminderService(
	store interfaces.ReminderStore,
	gateway interfaces.ChatGateway,
	resolver *services.GroupResolver,
	configs *services.ConfigService,
	providerFor func(entities.Provider) (interfaces.TranslationProvider, bool),
) *ReminderService {
	return &ReminderService{
		store:       store,
		gateway:     gateway,
		resolver:    resolver,
		configs:     configs,
		providerFor: providerFor,
		guilds:      make(map[string]*guildReminders),
	}
}

// WarmUp loads every guild's reminders from disk.
func (s *ReminderService) WarmUp(ctx context.Context) error {
	guildIDs, err := s.store.GuildIDs(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, guildID := range guildIDs {
		reminders, settings, err := s.store.Load(ctx, guildID)
		if err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("failed to load reminders")
			continue
		}
		s.guilds[guildID] = &guildReminders{settings: settings, reminders: reminders}
	}
	log.WithField("guilds", len(s.guilds)).Info("reminders loaded")
	return nil
}

// Add registers a reminder. Names are unique per guild.
func (s *ReminderService) Add(ctx context.Context, guildID string, reminder *entities.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.stateLocked(ctx, guildID)
	for _, existing := range state.reminders {
		if existing.Name == reminder.Name {
			return entities.NewConfigError("a reminder named %q already exists", reminder.Name)
		}
	}
	state.reminders = append(state.reminders, reminder)
	return s.persistLocked(ctx, guildID, state)
}

// Remove deletes a reminder by name.
func (s *ReminderService) Remove(ctx context.Context, guildID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.stateLocked(ctx, guildID)
	for i, existing := range state.reminders {
		if existing.Name == name {
			state.reminders = append(state.reminders[:i], state.reminders[i+1:]...)
			return s.persistLocked(ctx, guildID, state)
		}
	}
	return entities.NewConfigError("no reminder named %q", name)
}

// List returns a guild's reminders sorted by name, plus the enabled flag.
func (s *ReminderService) List(ctx context.Context, guildID string) ([]*entities.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.stateLocked(ctx, guildID)
	out := make([]*entities.Reminder, len(state.reminders))
	copy(out, state.reminders)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, state.settings.Enabled
}

// SetEnabled toggles the guild's reminder scheduling.
func (s *ReminderService) SetEnabled(ctx context.Context, guildID string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.stateLocked(ctx, guildID)
	state.settings.Enabled = on
	return s.persistLocked(ctx, guildID, state)
}

// Run drives the scheduler until ctx is cancelled. The first tick is aligned
// to the next full minute so hour/minute constraints are checked exactly
// once per minute.
func (s *ReminderService) Run(ctx context.Context) {
	align := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))
	select {
	case <-ctx.Done():
		return
	case <-time.After(align):
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	log.Info("reminder scheduler started")
	s.fireDue(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			log.Info("reminder scheduler shutting down")
			return
		case now := <-ticker.C:
			s.fireDue(ctx, now)
		}
	}
}

func (s *ReminderService) fireDue(ctx context.Context, now time.Time) {
	type firing struct {
		guildID  string
		reminder entities.Reminder
	}
	var due []firing

	s.mu.Lock()
	for guildID, state := range s.guilds {
		if !state.settings.Enabled {
			continue
		}
		var keep []*entities.Reminder
		changed := false
		for _, reminder := range state.reminders {
			if !reminderDue(reminder, now) {
				keep = append(keep, reminder)
				continue
			}
			due = append(due, firing{guildID: guildID, reminder: *reminder})
			reminder.LastFired = now.Unix()
			changed = true
			if !reminder.OneTime {
				keep = append(keep, reminder)
			}
		}
		if changed {
			state.reminders = keep
			if err := s.persistLocked(ctx, guildID, state); err != nil {
				log.WithError(err).WithField("guild_id", guildID).Error("failed to persist reminders after firing")
			}
		}
	}
	s.mu.Unlock()

	for _, f := range due {
		s.deliver(ctx, f.guildID, &f.reminder)
	}
}

func (s *ReminderService) deliver(ctx context.Context, guildID string, reminder *entities.Reminder) {
	entry := log.WithFields(log.Fields{
		"guild_id": guildID,
		"reminder": reminder.Name,
	})
	if _, err := s.gateway.SendMessage(ctx, reminder.ChannelID, reminder.Message, reminder.Headline); err != nil {
		entry.WithError(err).Error("reminder delivery failed")
		return
	}
	entry.Debug("reminder fired")

	resolution, ok := s.resolver.Resolve(guildID, reminder.ChannelID)
	if !ok {
		return
	}
	config, err := s.configs.Config(ctx, guildID)
	if err != nil {
		return
	}
	provider, ok := s.providerFor(config.Provider)
	if !ok {
		return
	}
	for _, sibling := range resolution.Siblings {
		message := reminder.Message
		if !sameLanguage(resolution.SourceLanguage, sibling.Language) {
			translated, _, err := provider.Translate(ctx, reminder.Message, sibling.Language, resolution.SourceLanguage)
			if err != nil {
				entry.WithError(err).WithField("target_channel", sibling.ChannelID).Warn("reminder translation failed, sibling skipped")
				continue
			}
			message = translated
		}
		if _, err := s.gateway.SendMessage(ctx, sibling.ChannelID, message, reminder.Headline); err != nil {
			entry.WithError(err).WithField("target_channel", sibling.ChannelID).Warn("reminder mirror delivery failed")
		}
	}
}

// reminderDue checks the interval and the optional weekday/hour/minute
// constraints. Weekday follows the 0 = Monday convention.
func reminderDue(reminder *entities.Reminder, now time.Time) bool {
	if reminder.LastFired > 0 && now.Unix()-reminder.LastFired < reminder.IntervalSeconds() {
		return false
	}
	if reminder.Weekday != nil {
		weekday := (int(now.Weekday()) + 6) % 7
		if weekday != *reminder.Weekday {
			return false
		}
	}
	if reminder.Hour != nil && now.Hour() != *reminder.Hour {
		return false
	}
	if reminder.Minute != nil && now.Minute() != *reminder.Minute {
		return false
	}
	return true
}

// stateLocked returns the guild's in-memory state, lazily loading it from
// disk. Caller holds s.mu.
func (s *ReminderService) stateLocked(ctx context.Context, guildID string) *guildReminders {
	if state, ok := s.guilds[guildID]; ok {
		return state
	}
	reminders, settings, err := s.store.Load(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("failed to load reminders, starting empty")
		reminders, settings = nil, entities.ReminderSettings{Enabled: true}
	}
	state := &guildReminders{settings: settings, reminders: reminders}
	s.guilds[guildID] = state
	return state
}

func (s *ReminderService) persistLocked(ctx context.Context, guildID string, state *guildReminders) error {
	return s.store.Save(ctx, guildID, state.reminders, state.settings)
}
