package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
)

// noMentions suppresses every ping a mirrored message could trigger.
var noMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}

// WebhookMirror reposts messages through per-channel webhooks so the mirror
// carries the original author's name and avatar. Webhooks are created lazily
// on first delivery into a channel and cached for the process lifetime.
type WebhookMirror struct {
	session     *discordgo.Session
	webhookName string
	errorEvery  time.Duration

	mu       sync.RWMutex
	webhooks map[string]*discordgo.Webhook // channelID -> webhook
	ownIDs   map[string]bool               // webhook IDs this process posts through
	lastErr  map[string]time.Time          // channelID -> last surfaced failure

	creating singleflight.Group
}

// NewWebhookMirror builds a mirror posting through webhooks named webhookName.
func NewWebhookMirror(session *discordgo.Session, webhookName string, errorEvery time.Duration) *WebhookMirror {
	return &WebhookMirror{
		session:     session,
		webhookName: webhookName,
		errorEvery:  errorEvery,
		webhooks:    make(map[string]*discordgo.Webhook),
		ownIDs:      make(map[string]bool),
		lastErr:     make(map[string]time.Time),
	}
}

// IsOwnWebhook reports whether a webhook ID belongs to this mirror. Used to
// drop gateway events for our own reposts.
func (m *WebhookMirror) IsOwnWebhook(webhookID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ownIDs[webhookID]
}

// Post delivers a mirrored message and returns the mirrored message ID.
func (m *WebhookMirror) Post(ctx context.Context, targetChannelID string, post *interfaces.MirrorPost) (string, error) {
	hook, err := m.webhookFor(ctx, targetChannelID)
	if err != nil {
		return "", err
	}

	params := &discordgo.WebhookParams{
		Content:         post.Content,
		Username:        post.Username,
		AvatarURL:       post.AvatarURL,
		AllowedMentions: noMentions,
	}
	for _, att := range post.Attachments {
		name := att.Filename
		if att.Spoiler {
			name = "SPOILER_" + name
		}
		params.Files = append(params.Files, &discordgo.File{
			Name:        name,
			ContentType: att.ContentType,
			Reader:      att.Reader,
		})
	}

	var msg *discordgo.Message
	if post.ThreadID != "" {
		msg, err = m.session.WebhookThreadExecute(hook.ID, hook.Token, true, post.ThreadID, params, discordgo.WithContext(ctx))
	} else {
		msg, err = m.session.WebhookExecute(hook.ID, hook.Token, true, params, discordgo.WithContext(ctx))
	}
	if err != nil {
		return "", m.classify(targetChannelID, err)
	}
	if msg == nil {
		return "", entities.NewDeliveryError(targetChannelID, entities.DeliveryTargetMissing,
			errors.New("webhook execute returned no message"))
	}
	return msg.ID, nil
}

// Edit replaces the content of a previously mirrored message.
func (m *WebhookMirror) Edit(ctx context.Context, targetChannelID, messageID, content, threadID string) error {
	hook, err := m.webhookFor(ctx, targetChannelID)
	if err != nil {
		return err
	}
	edit := &discordgo.WebhookEdit{
		Content:         &content,
		AllowedMentions: noMentions,
	}
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if threadID != "" {
		opts = append(opts, withThreadID(threadID))
	}
	if _, err := m.session.WebhookMessageEdit(hook.ID, hook.Token, messageID, edit, opts...); err != nil {
		return m.classify(targetChannelID, err)
	}
	return nil
}

// Delete removes a previously mirrored message. Deletion goes through the
// bot account so it works even when the webhook has been recreated.
func (m *WebhookMirror) Delete(ctx context.Context, targetChannelID, messageID, threadID string) error {
	channelID := targetChannelID
	if threadID != "" {
		channelID = threadID
	}
	if err := m.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return m.classify(targetChannelID, err)
	}
	return nil
}

// webhookFor returns the channel's cached webhook, adopting an existing
// webhook with the configured name or creating one. Concurrent first
// deliveries into the same channel share a single creation call.
func (m *WebhookMirror) webhookFor(ctx context.Context, channelID string) (*discordgo.Webhook, error) {
	m.mu.RLock()
	hook, ok := m.webhooks[channelID]
	m.mu.RUnlock()
	if ok {
		return hook, nil
	}

	v, err, _ := m.creating.Do(channelID, func() (any, error) {
		m.mu.RLock()
		cached, ok := m.webhooks[channelID]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		existing, err := m.session.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, m.classify(channelID, err)
		}
		var found *discordgo.Webhook
		for _, w := range existing {
			if w.Name == m.webhookName && w.Token != "" {
				found = w
				break
			}
		}
		if found == nil {
			found, err = m.session.WebhookCreate(channelID, m.webhookName, "", discordgo.WithContext(ctx))
			if err != nil {
				return nil, m.classify(channelID, err)
			}
		}

		m.mu.Lock()
		m.webhooks[channelID] = found
		m.ownIDs[found.ID] = true
		m.mu.Unlock()
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discordgo.Webhook), nil
}

// classify maps discordgo REST failures onto delivery error kinds, throttling
// the log line so a misconfigured channel does not produce an error storm.
func (m *WebhookMirror) classify(channelID string, err error) error {
	// Transport failures are transient; REST statuses map individually, and
	// any other client error is a request the platform will keep rejecting.
	kind := entities.DeliveryTransient
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch status := restErr.Response.StatusCode; {
		case status == http.StatusForbidden:
			kind = entities.DeliveryMissingPermission
		case status == http.StatusNotFound:
			kind = entities.DeliveryTargetMissing
		case status == http.StatusTooManyRequests:
			kind = entities.DeliveryRateLimited
		case status >= 500:
			kind = entities.DeliveryTransient
		default:
			kind = entities.DeliveryRejected
		}
	}
	delivery := entities.NewDeliveryError(channelID, kind, err)

	m.mu.Lock()
	last := m.lastErr[channelID]
	throttled := time.Since(last) < m.errorEvery
	if !throttled {
		m.lastErr[channelID] = time.Now()
	}
	m.mu.Unlock()

	entry := log.WithFields(log.Fields{
		"channel_id": channelID,
		"kind":       kind,
	})
	if throttled {
		entry.WithError(err).Debug("mirror delivery failed (throttled)")
	} else {
		entry.WithError(err).Error("mirror delivery failed")
	}
	return delivery
}

// withThreadID routes a webhook message operation into a thread.
func withThreadID(threadID string) discordgo.RequestOption {
	return func(cfg *discordgo.RequestConfig) {
		q := cfg.Request.URL.Query()
		q.Set("thread_id", threadID)
		cfg.Request.URL.RawQuery = q.Encode()
	}
}

var _ interfaces.IdentityMirror = (*WebhookMirror)(nil)
