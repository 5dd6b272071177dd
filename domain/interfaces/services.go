package interfaces

import (
	"context"
	"io"

	"github.com/Impetoast/Catcord/domain/entities"
)

// Language is a provider-recognized language tag with a human-readable name.
type Language struct {
	Code string
	Name string
}

// TranslationProvider defines the interface for translation backends.
// Implementations are stateless per call and classify failures via
// entities.ProviderError.
type TranslationProvider interface {
	// Name identifies the provider.
	Name() entities.Provider

	// Translate translates text into the target language. sourceHint may be
	// empty; the resolved source language is returned when the provider
	// detects it. Empty or whitespace-only input returns the input unchanged
	// without a provider call.
	Translate(ctx context.Context, text, targetLang, sourceHint string) (translated string, resolvedSource string, err error)

	// DetectLanguage returns the language code of the given text.
	DetectLanguage(ctx context.Context, text string) (string, error)

	// SupportedTargets returns the provider's supported target languages.
	// Used for lazy mapping validation and the /languages command.
	SupportedTargets(ctx context.Context) ([]Language, error)
}

// FormalityTranslator is implemented by providers that can steer the
// formality register of a translation. Callers fall back to Translate when
// the configured provider does not implement it.
type FormalityTranslator interface {
	// TranslateFormal behaves like Translate with an explicit formality
	// register ("less" or "more"). An empty or "default" register is
	// equivalent to Translate.
	TranslateFormal(ctx context.Context, text, targetLang, sourceHint, formality string) (translated string, resolvedSource string, err error)
}

// MirrorAttachment is a re-uploaded attachment carried with a mirrored post.
type MirrorAttachment struct {
	Filename    string
	ContentType string
	Spoiler     bool
	Reader      io.Reader
}

// MirrorPost is the content of an identity-preserving repost.
type MirrorPost struct {
	Username    string
	AvatarURL   string
	Content     string
	Attachments []MirrorAttachment
	// ThreadID routes the post into a mirrored thread instead of the
	// channel itself. Empty for regular channel posts.
	ThreadID string
}

// ChatGateway covers the platform operations the relay engine needs beyond
// identity mirroring: bot-account reactions, thread creation, plain sends,
// and attachment downloads.
type ChatGateway interface {
	// ReactionAdd mirrors a reaction as the bot account. Re-adding an
	// existing reaction is a platform-side no-op.
	ReactionAdd(ctx context.Context, channelID, messageID, emoji string) error

	// ReactionRemove removes the bot account's reaction.
	ReactionRemove(ctx context.Context, channelID, messageID, emoji string) error

	// CreateThread opens a thread on a channel and returns its ID.
	CreateThread(ctx context.Context, channelID, name string, autoArchiveMinutes int) (string, error)

	// SendMessage posts a plain bot message, optionally as an embed with a
	// headline, and returns the message ID.
	SendMessage(ctx context.Context, channelID, content, headline string) (string, error)

	// DownloadAttachment streams an attachment by URL for re-upload.
	DownloadAttachment(ctx context.Context, url string) (io.ReadCloser, error)
}

// IdentityMirror posts and maintains messages that visually attribute to the
// original author rather than the bot account.
type IdentityMirror interface {
	// Post delivers a mirrored message into the target channel and returns
	// the mirrored message ID.
	Post(ctx context.Context, targetChannelID string, post *MirrorPost) (messageID string, err error)

	// Edit replaces the content of a previously mirrored message.
	Edit(ctx context.Context, targetChannelID, messageID, content, threadID string) error

	// Delete removes a previously mirrored message.
	Delete(ctx context.Context, targetChannelID, messageID, threadID string) error
}
