package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
	"github.com/Impetoast/Catcord/domain/utils"
)

const (
	// maxRelayAttachments caps how many attachments are re-uploaded per
	// mirrored message.
	maxRelayAttachments = 10

	// maxInputRunes caps translated input length.
	maxInputRunes = 5000

	// replyPreviewRunes caps the quoted reply excerpt.
	replyPreviewRunes = 90

	// legRetryAttempts bounds retries of a retryable translate or delivery
	// failure within one leg.
	legRetryAttempts = 3

	threadAutoArchiveMinutes = 1440
)

// Engine relays messages between the language channels of a relay group:
// fan-out on create, plus edit, delete, reaction, and thread propagation.
// Events enter through per-source FIFO queues, so resolution and lane
// enqueueing happen in gateway order; per-(source, target) lanes then keep
// deliveries into each target channel in that order while distinct legs of
// one fan-out run concurrently.
type Engine struct {
	configs   *services.ConfigService
	resolver  *services.GroupResolver
	providers map[entities.Provider]interfaces.TranslationProvider
	mirror    interfaces.IdentityMirror
	records   interfaces.MirrorStore
	threads   interfaces.ThreadMirrorStore
	gateway   interfaces.ChatGateway

	dispatcher *Dispatcher
	lanes      *laneRunner
	ctx        context.Context

	// isOwnWebhook recognizes this process's own reposts on the gateway.
	isOwnWebhook func(webhookID string) bool

	botUserID string

	mu         sync.Mutex
	ownThreads map[string]bool // thread IDs this engine opened as mirrors
}

// NewEngine wires the relay engine. providers may hold fewer entries than
// there are provider kinds; guilds configured for a missing provider fail
// their legs with an auth error at relay time.
func NewEngine(
	configs *services.ConfigService,
	resolver *services.GroupResolver,
	providers map[entities.Provider]interfaces.TranslationProvider,
	mirror interfaces.IdentityMirror,
	records interfaces.MirrorStore,
	threads interfaces.ThreadMirrorStore,
	gateway interfaces.ChatGateway,
	dispatcher *Dispatcher,
	isOwnWebhook func(webhookID string) bool,
) *Engine {
	return &Engine{
		configs:      configs,
		resolver:     resolver,
		providers:    providers,
		mirror:       mirror,
		records:      records,
		threads:      threads,
		gateway:      gateway,
		dispatcher:   dispatcher,
		isOwnWebhook: isOwnWebhook,
		ownThreads:   make(map[string]bool),
	}
}

// Start launches the worker pool and ordering lanes. Must be called before
// any Enqueue method.
func (e *Engine) Start(ctx context.Context, botUserID string) {
	e.ctx = ctx
	e.botUserID = botUserID
	e.lanes = newLaneRunner(ctx)
	e.dispatcher.Start(ctx)
}

// Provider returns the translation backend a guild is configured for.
func (e *Engine) Provider(p entities.Provider) (interfaces.TranslationProvider, bool) {
	provider, ok := e.providers[p]
	return provider, ok
}

// The Enqueue methods key every event by its source channel (the thread for
// thread traffic), so a message, its edits, its deletion, and its reactions
// are handled in the order the gateway delivered them.

func (e *Engine) EnqueueMessage(ev *MessageEvent) {
	e.dispatcher.Submit(sourceChannel(ev.ChannelID, ev.ThreadID), func() { e.handleMessageCreate(ev) })
}

func (e *Engine) EnqueueEdit(ev *EditEvent) {
	e.dispatcher.Submit(sourceChannel(ev.ChannelID, ev.ThreadID), func() { e.handleMessageEdit(ev) })
}

func (e *Engine) EnqueueDelete(ev *DeleteEvent) {
	e.dispatcher.Submit(sourceChannel(ev.ChannelID, ev.ThreadID), func() { e.handleMessageDelete(ev) })
}

func (e *Engine) EnqueueReaction(ev *ReactionEvent) {
	e.dispatcher.Submit(sourceChannel(ev.ChannelID, ev.ThreadID), func() { e.handleReaction(ev) })
}

// EnqueueThread keys by the new thread's ID, the same queue its messages will
// use, so the mirror threads exist before the first thread message is handled.
func (e *Engine) EnqueueThread(ev *ThreadEvent) {
	e.dispatcher.Submit(ev.ThreadID, func() { e.handleThreadCreate(ev) })
}

// handleMessageCreate fans a source message out to every sibling channel of
// its relay group.
func (e *Engine) handleMessageCreate(ev *MessageEvent) {
	// Our own reposts and other bot traffic never relay.
	if ev.WebhookID != "" && e.isOwnWebhook(ev.WebhookID) {
		return
	}
	if ev.AuthorIsBot || ev.WebhookID != "" {
		return
	}

	resolution, ok := e.resolver.Resolve(ev.GuildID, ev.ChannelID)
	if !ok || len(resolution.Siblings) == 0 {
		return
	}

	config, err := e.configs.Config(e.ctx, ev.GuildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", ev.GuildID).Error("failed to load guild config for relay")
		return
	}
	provider, ok := e.providers[config.Provider]
	if !ok {
		log.WithFields(log.Fields{
			"guild_id": ev.GuildID,
			"provider": config.Provider,
		}).Error("configured provider has no credentials, skipping relay")
		return
	}

	content := truncateRunes(sanitizeMentions(ev.Content, ev.UserNames, ev.RoleNames, ev.ChannelNames), maxInputRunes)
	if content == "" && len(ev.Attachments) == 0 {
		return
	}

	var replyPreview string
	if config.Options.ReplyMode && ev.Reply != nil {
		replyPreview = truncateRunes(
			sanitizeMentions(ev.Reply.Content, ev.UserNames, ev.RoleNames, ev.ChannelNames),
			replyPreviewRunes)
	}

	correlation := uuid.NewString()
	for _, sibling := range resolution.Siblings {
		sibling := sibling
		e.lanes.Run(laneKey(ev.ChannelID, sibling.ChannelID), func() {
			e.deliverLeg(correlation, ev, resolution, config, provider, sibling, content, replyPreview)
		})
	}
}

// deliverLeg translates and posts one (source, target) leg. A failing leg
// never affects its siblings.
func (e *Engine) deliverLeg(
	correlation string,
	ev *MessageEvent,
	resolution services.Resolution,
	config *entities.GuildConfig,
	provider interfaces.TranslationProvider,
	sibling entities.ChannelMapping,
	content, replyPreview string,
) {
	entry := log.WithFields(log.Fields{
		"correlation_id": correlation,
		"guild_id":       ev.GuildID,
		"group":          resolution.GroupName,
		"source_channel": ev.ChannelID,
		"target_channel": sibling.ChannelID,
	})

	translated := content
	if content != "" && !sameLanguage(resolution.SourceLanguage, sibling.Language) {
		var err error
		translated, err = e.translateWithRetry(provider, content, sibling.Language, resolution.SourceLanguage)
		if err != nil {
			entry.WithError(err).Error("translation failed, leg dropped")
			return
		}
	}

	body := translated
	if replyPreview != "" && ev.Reply != nil {
		preview := replyPreview
		if !sameLanguage(resolution.SourceLanguage, sibling.Language) {
			if tp, err := e.translateWithRetry(provider, replyPreview, sibling.Language, resolution.SourceLanguage); err == nil {
				preview = tp
			} else {
				entry.WithError(err).Debug("reply preview translation failed, using original")
			}
		}
		jump := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", ev.GuildID, ev.Reply.ChannelID, ev.Reply.MessageID)
		body = fmt.Sprintf("> ↪ **%s**: %s\n> %s\n%s", ev.Reply.AuthorName, preview, jump, translated)
	}

	attachments, closers := e.fetchAttachments(entry, ev.Attachments)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	threadID, ok := e.mirrorThreadFor(ev.ThreadID, sibling.ChannelID, config)
	if !ok {
		entry.Debug("no mirrored thread for target, leg skipped")
		return
	}

	post := &interfaces.MirrorPost{
		Username:    ev.AuthorName,
		AvatarURL:   ev.AuthorIcon,
		Content:     body,
		Attachments: attachments,
		ThreadID:    threadID,
	}

	var messageID string
	err := e.withRetry(func() error {
		var postErr error
		messageID, postErr = e.mirror.Post(e.ctx, sibling.ChannelID, post)
		return postErr
	})
	if err != nil {
		entry.WithError(err).Error("mirror delivery failed, leg dropped")
		return
	}

	e.records.RecordMirror(
		entities.MirrorKey{SourceChannelID: sourceChannel(ev.ChannelID, ev.ThreadID), SourceMessageID: ev.MessageID},
		resolution.GroupName, sibling.ChannelID, messageID)
	entry.WithField("mirrored_message_id", messageID).Debug("relay leg delivered")
}

// handleMessageEdit re-translates the new content and updates every mirror.
// A missing correspondence record is a no-op; legs whose mirror vanished are
// logged and skipped.
func (e *Engine) handleMessageEdit(ev *EditEvent) {
	resolution, ok := e.resolver.Resolve(ev.GuildID, ev.ChannelID)
	if !ok {
		return
	}
	key := entities.MirrorKey{SourceChannelID: sourceChannel(ev.ChannelID, ev.ThreadID), SourceMessageID: ev.MessageID}
	record, ok := e.records.Get(key)
	if !ok {
		return
	}

	config, err := e.configs.Config(e.ctx, ev.GuildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", ev.GuildID).Error("failed to load guild config for edit propagation")
		return
	}
	provider, hasProvider := e.providers[config.Provider]

	content := truncateRunes(sanitizeMentions(ev.Content, ev.UserNames, ev.RoleNames, ev.ChannelNames), maxInputRunes)
	languages := siblingLanguages(resolution)

	for targetChannelID, mirroredID := range record.Mirrors {
		targetChannelID, mirroredID := targetChannelID, mirroredID
		e.lanes.Run(laneKey(ev.ChannelID, targetChannelID), func() {
			entry := log.WithFields(log.Fields{
				"guild_id":       ev.GuildID,
				"source_channel": ev.ChannelID,
				"target_channel": targetChannelID,
			})

			body := content
			if lang, known := languages[targetChannelID]; known && hasProvider && content != "" && !sameLanguage(resolution.SourceLanguage, lang) {
				translated, err := e.translateWithRetry(provider, content, lang, resolution.SourceLanguage)
				if err != nil {
					entry.WithError(err).Error("edit translation failed, leg skipped")
					return
				}
				body = translated
			}

			threadID, _ := e.mirrorThreadFor(ev.ThreadID, targetChannelID, config)
			err := e.withRetry(func() error {
				return e.mirror.Edit(e.ctx, targetChannelID, mirroredID, body, threadID)
			})
			if err != nil {
				entry.WithError(err).Warn("edit propagation failed for target")
			}
		})
	}
}

// handleMessageDelete removes every mirror and drops the record. Deleting a
// message with no record is a no-op.
func (e *Engine) handleMessageDelete(ev *DeleteEvent) {
	key := entities.MirrorKey{SourceChannelID: sourceChannel(ev.ChannelID, ev.ThreadID), SourceMessageID: ev.MessageID}
	record, ok := e.records.Get(key)
	if !ok {
		return
	}
	e.records.Evict(key)

	config, err := e.configs.Config(e.ctx, ev.GuildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", ev.GuildID).Error("failed to load guild config for delete propagation")
		config = nil
	}

	for targetChannelID, mirroredID := range record.Mirrors {
		targetChannelID, mirroredID := targetChannelID, mirroredID
		e.lanes.Run(laneKey(ev.ChannelID, targetChannelID), func() {
			threadID := ""
			if config != nil {
				threadID, _ = e.mirrorThreadFor(ev.ThreadID, targetChannelID, config)
			}
			err := e.withRetry(func() error {
				return e.mirror.Delete(e.ctx, targetChannelID, mirroredID, threadID)
			})
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"guild_id":       ev.GuildID,
					"target_channel": targetChannelID,
				}).Warn("delete propagation failed for target")
			}
		})
	}
}

// handleReaction mirrors a reaction toggle onto every mirrored message as the
// bot account. Re-adding an existing reaction is idempotent on the platform
// side, so replayed events are harmless.
func (e *Engine) handleReaction(ev *ReactionEvent) {
	if ev.UserID == e.botUserID {
		return
	}

	config, err := e.configs.Config(e.ctx, ev.GuildID)
	if err != nil || !config.Options.ReactionMirroring {
		return
	}

	key := entities.MirrorKey{SourceChannelID: sourceChannel(ev.ChannelID, ev.ThreadID), SourceMessageID: ev.MessageID}
	record, ok := e.records.Get(key)
	if !ok {
		return
	}

	for targetChannelID, mirroredID := range record.Mirrors {
		restChannel := targetChannelID
		if threadID, ok := e.mirrorThreadFor(ev.ThreadID, targetChannelID, config); ok && threadID != "" {
			restChannel = threadID
		}

		var opErr error
		if ev.Removed {
			opErr = e.gateway.ReactionRemove(e.ctx, restChannel, mirroredID, ev.Emoji)
		} else {
			opErr = e.gateway.ReactionAdd(e.ctx, restChannel, mirroredID, ev.Emoji)
		}
		if opErr != nil {
			log.WithError(opErr).WithFields(log.Fields{
				"guild_id":       ev.GuildID,
				"target_channel": targetChannelID,
				"emoji":          ev.Emoji,
			}).Debug("reaction mirroring failed for target")
		}
	}
}

// handleThreadCreate opens same-named threads on every sibling channel so
// later thread messages can relay into them.
func (e *Engine) handleThreadCreate(ev *ThreadEvent) {
	e.mu.Lock()
	own := e.ownThreads[ev.ThreadID]
	e.mu.Unlock()
	if own {
		return
	}

	resolution, ok := e.resolver.Resolve(ev.GuildID, ev.ParentChannelID)
	if !ok {
		return
	}
	config, err := e.configs.Config(e.ctx, ev.GuildID)
	if err != nil || !config.Options.ThreadMirroring {
		return
	}

	existing, _ := e.threads.GetThread(ev.ThreadID)
	for _, sibling := range resolution.Siblings {
		if existing != nil {
			if _, done := existing.Mirrors[sibling.ChannelID]; done {
				continue
			}
		}
		mirroredThreadID, err := e.gateway.CreateThread(e.ctx, sibling.ChannelID, ev.Name, threadAutoArchiveMinutes)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild_id":       ev.GuildID,
				"target_channel": sibling.ChannelID,
				"thread":         ev.Name,
			}).Warn("thread mirroring failed for target")
			continue
		}
		e.mu.Lock()
		e.ownThreads[mirroredThreadID] = true
		e.mu.Unlock()
		e.threads.RecordThreadMirror(ev.ThreadID, ev.Name, sibling.ChannelID, mirroredThreadID)
	}
}

// mirrorThreadFor resolves which thread a leg posts into. For channel
// messages both returns are empty/true. For thread messages the mirrored
// thread on the target channel is looked up; a missing mirror skips the leg
// rather than leaking thread traffic into the channel.
func (e *Engine) mirrorThreadFor(sourceThreadID, targetChannelID string, config *entities.GuildConfig) (string, bool) {
	if sourceThreadID == "" {
		return "", true
	}
	if !config.Options.ThreadMirroring {
		return "", false
	}
	record, ok := e.threads.GetThread(sourceThreadID)
	if !ok {
		return "", false
	}
	threadID, ok := record.Mirrors[targetChannelID]
	if !ok {
		return "", false
	}
	return threadID, true
}

// fetchAttachments downloads up to maxRelayAttachments source attachments
// for re-upload. Failed downloads are skipped individually.
func (e *Engine) fetchAttachments(entry *log.Entry, refs []AttachmentRef) ([]interfaces.MirrorAttachment, []io.ReadCloser) {
	var out []interfaces.MirrorAttachment
	var closers []io.ReadCloser
	for i, ref := range refs {
		if i >= maxRelayAttachments {
			entry.WithField("attachments", len(refs)).Debug("attachment cap reached, remainder dropped")
			break
		}
		body, err := e.gateway.DownloadAttachment(e.ctx, ref.URL)
		if err != nil {
			entry.WithError(err).WithField("attachment", ref.Filename).Warn("attachment download failed, skipped")
			continue
		}
		closers = append(closers, body)
		out = append(out, interfaces.MirrorAttachment{
			Filename:    ref.Filename,
			ContentType: ref.ContentType,
			Spoiler:     ref.Spoiler,
			Reader:      body,
		})
	}
	return out, closers
}

func (e *Engine) translateWithRetry(provider interfaces.TranslationProvider, text, targetLang, sourceHint string) (string, error) {
	var translated string
	err := e.withRetry(func() error {
		var trErr error
		translated, _, trErr = provider.Translate(e.ctx, text, targetLang, sourceHint)
		return trErr
	})
	return translated, err
}

// withRetry retries retryable provider and delivery failures with
// exponential backoff; everything else fails immediately.
func (e *Engine) withRetry(op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newLegBackOff(), legRetryAttempts), e.ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func newLegBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}

func retryable(err error) bool {
	var providerErr *entities.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable()
	}
	var deliveryErr *entities.DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.Retryable()
	}
	return false
}

// sameLanguage compares codes after normalization and aliasing so EN and
// EN-GB channels do not round-trip through the provider.
func sameLanguage(a, b string) bool {
	return utils.AliasForTargets(a, nil) == utils.AliasForTargets(b, nil)
}

func siblingLanguages(resolution services.Resolution) map[string]string {
	out := make(map[string]string, len(resolution.Siblings))
	for _, s := range resolution.Siblings {
		out[s.ChannelID] = s.Language
	}
	return out
}

func laneKey(sourceChannelID, targetChannelID string) string {
	return sourceChannelID + "|" + targetChannelID
}

// sourceChannel keys correspondence records by the thread for thread
// messages and by the channel otherwise.
func sourceChannel(channelID, threadID string) string {
	if threadID != "" {
		return threadID
	}
	return channelID
}
