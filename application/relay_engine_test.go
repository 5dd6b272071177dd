package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/services"
	"github.com/Impetoast/Catcord/domain/testhelpers"
)

// waitFor is the ceiling for asynchronous lane assertions.
const waitFor = 2 * time.Second

type engineFixture struct {
	engine   *Engine
	provider *testhelpers.MockTranslationProvider
	mirror   *testhelpers.MockIdentityMirror
	gateway  *testhelpers.MockChatGateway
	records  *testhelpers.MemoryMirrorStore
}

// relayConfig builds a guild with one three-channel group: 100=DE, 200=EN-GB,
// 300=FR.
func relayConfig(t *testing.T) *entities.GuildConfig {
	t.Helper()
	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	require.NoError(t, config.SetChannel("main", "100", "DE"))
	require.NoError(t, config.SetChannel("main", "200", "EN-GB"))
	require.NoError(t, config.SetChannel("main", "300", "FR"))
	return config
}

func newEngineFixture(t *testing.T, config *entities.GuildConfig) *engineFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	configStore := new(testhelpers.MockConfigStore)
	configStore.On("LoadAll", mock.Anything).Return([]*entities.GuildConfig{config}, nil)
	configStore.On("Save", mock.Anything, mock.Anything).Return(nil)

	resolver := services.NewGroupResolver()
	configService := services.NewConfigService(configStore, resolver, entities.ProviderDeepL)
	require.NoError(t, configService.WarmUp(ctx))

	f := &engineFixture{
		provider: new(testhelpers.MockTranslationProvider),
		mirror:   new(testhelpers.MockIdentityMirror),
		gateway:  new(testhelpers.MockChatGateway),
		records:  testhelpers.NewMemoryMirrorStore(),
	}
	providers := map[entities.Provider]interfaces.TranslationProvider{
		entities.ProviderDeepL: f.provider,
	}
	f.engine = NewEngine(
		configService, resolver, providers,
		f.mirror, f.records, f.records, f.gateway,
		NewDispatcher(64),
		func(webhookID string) bool { return webhookID == "own-hook" })
	f.engine.Start(ctx, "bot-user")
	return f
}

func germanMessage() *MessageEvent {
	return &MessageEvent{
		GuildID:    "guild-1",
		ChannelID:  "100",
		MessageID:  "msg-1",
		AuthorID:   "u1",
		AuthorName: "Alice",
		Content:    "hallo welt",
	}
}

func TestEngine_FanOutTranslatesToEverySibling(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	f.provider.On("Translate", mock.Anything, "hallo welt", "EN-GB", "DE").Return("hello world", "DE", nil)
	f.provider.On("Translate", mock.Anything, "hallo welt", "FR", "DE").Return("bonjour le monde", "DE", nil)
	f.mirror.On("Post", mock.Anything, "200", mock.MatchedBy(func(p *interfaces.MirrorPost) bool {
		return p.Content == "hello world" && p.Username == "Alice"
	})).Return("mirror-200", nil)
	f.mirror.On("Post", mock.Anything, "300", mock.MatchedBy(func(p *interfaces.MirrorPost) bool {
		return p.Content == "bonjour le monde"
	})).Return("mirror-300", nil)

	f.engine.handleMessageCreate(germanMessage())

	key := entities.MirrorKey{SourceChannelID: "100", SourceMessageID: "msg-1"}
	require.Eventually(t, func() bool {
		record, ok := f.records.Get(key)
		return ok && len(record.Mirrors) == 2
	}, waitFor, 10*time.Millisecond)

	record, _ := f.records.Get(key)
	assert.Equal(t, "mirror-200", record.Mirrors["200"])
	assert.Equal(t, "mirror-300", record.Mirrors["300"])
	assert.Equal(t, "main", record.GroupName)

	// Never back into the source channel.
	f.mirror.AssertNumberOfCalls(t, "Post", 2)
}

func TestEngine_VerbatimWhenLanguagesMatch(t *testing.T) {
	t.Parallel()

	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	// EN aliases to EN-GB, so these two must not round-trip through the
	// provider.
	require.NoError(t, config.SetChannel("main", "100", "EN"))
	require.NoError(t, config.SetChannel("main", "200", "EN-GB"))
	f := newEngineFixture(t, config)

	f.mirror.On("Post", mock.Anything, "200", mock.MatchedBy(func(p *interfaces.MirrorPost) bool {
		return p.Content == "hello"
	})).Return("mirror-200", nil)

	f.engine.handleMessageCreate(&MessageEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1",
		AuthorName: "Alice", Content: "hello",
	})

	require.Eventually(t, func() bool { return f.records.Len() == 1 }, waitFor, 10*time.Millisecond)
	f.provider.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_MirrorsInSourceOrder(t *testing.T) {
	t.Parallel()

	// Same language on both channels keeps the legs verbatim, so delivery
	// order is the only variable.
	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	require.NoError(t, config.SetChannel("main", "100", "EN-GB"))
	require.NoError(t, config.SetChannel("main", "200", "EN-GB"))
	f := newEngineFixture(t, config)

	const n = 50
	var mu sync.Mutex
	var delivered []string
	f.mirror.On("Post", mock.Anything, "200", mock.Anything).Run(func(args mock.Arguments) {
		post := args.Get(2).(*interfaces.MirrorPost)
		mu.Lock()
		delivered = append(delivered, post.Content)
		mu.Unlock()
	}).Return("mirror", nil)

	for i := 0; i < n; i++ {
		f.engine.EnqueueMessage(&MessageEvent{
			GuildID:    "guild-1",
			ChannelID:  "100",
			MessageID:  fmt.Sprintf("msg-%d", i),
			AuthorName: "Alice",
			Content:    fmt.Sprintf("message %03d", i),
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == n
	}, waitFor, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		require.Equal(t, fmt.Sprintf("message %03d", i), delivered[i],
			"mirrored delivery order diverged from send order at position %d", i)
	}
}

func TestEngine_IgnoresBotsAndOwnWebhooks(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	bot := germanMessage()
	bot.AuthorIsBot = true
	f.engine.handleMessageCreate(bot)

	repost := germanMessage()
	repost.WebhookID = "own-hook"
	f.engine.handleMessageCreate(repost)

	foreign := germanMessage()
	foreign.WebhookID = "someone-elses-hook"
	f.engine.handleMessageCreate(foreign)

	time.Sleep(100 * time.Millisecond)
	f.mirror.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, f.records.Len())
}

func TestEngine_UnmappedChannelIsNoOp(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	ev := germanMessage()
	ev.ChannelID = "999"
	f.engine.handleMessageCreate(ev)

	time.Sleep(100 * time.Millisecond)
	f.mirror.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PowerOffStopsRelaying(t *testing.T) {
	t.Parallel()

	config := relayConfig(t)
	config.Power = false
	f := newEngineFixture(t, config)

	f.engine.handleMessageCreate(germanMessage())

	time.Sleep(100 * time.Millisecond)
	f.mirror.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_FailedLegDoesNotAffectSiblings(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	f.provider.On("Translate", mock.Anything, "hallo welt", "EN-GB", "DE").Return("hello world", "DE", nil)
	f.provider.On("Translate", mock.Anything, "hallo welt", "FR", "DE").Return("bonjour le monde", "DE", nil)
	f.mirror.On("Post", mock.Anything, "200", mock.Anything).
		Return("", entities.NewDeliveryError("200", entities.DeliveryMissingPermission, errors.New("403")))
	f.mirror.On("Post", mock.Anything, "300", mock.Anything).Return("mirror-300", nil)

	f.engine.handleMessageCreate(germanMessage())

	key := entities.MirrorKey{SourceChannelID: "100", SourceMessageID: "msg-1"}
	require.Eventually(t, func() bool {
		record, ok := f.records.Get(key)
		return ok && record.Mirrors["300"] == "mirror-300"
	}, waitFor, 10*time.Millisecond)

	record, _ := f.records.Get(key)
	_, hasFailed := record.Mirrors["200"]
	assert.False(t, hasFailed, "failed leg must not be recorded")
}

func TestEngine_EditUpdatesAllMirrorsAndCreatesNone(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	key := entities.MirrorKey{SourceChannelID: "100", SourceMessageID: "msg-1"}
	f.records.RecordMirror(key, "main", "200", "mirror-200")
	f.records.RecordMirror(key, "main", "300", "mirror-300")

	f.provider.On("Translate", mock.Anything, "korrigiert", "EN-GB", "DE").Return("corrected", "DE", nil)
	f.provider.On("Translate", mock.Anything, "korrigiert", "FR", "DE").Return("corrigé", "DE", nil)
	f.mirror.On("Edit", mock.Anything, "200", "mirror-200", "corrected", "").Return(nil)
	f.mirror.On("Edit", mock.Anything, "300", "mirror-300", "corrigé", "").Return(nil)

	f.engine.handleMessageEdit(&EditEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1", Content: "korrigiert",
	})

	require.Eventually(t, func() bool {
		return f.mirror.AssertNumberOfCalls(new(testing.T), "Edit", 2)
	}, waitFor, 10*time.Millisecond)
	f.mirror.AssertExpectations(t)
	f.mirror.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_EditWithoutRecordIsNoOp(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	f.engine.handleMessageEdit(&EditEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "unknown", Content: "whatever",
	})

	time.Sleep(100 * time.Millisecond)
	f.mirror.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_DeleteRemovesMirrorsAndRecord(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	key := entities.MirrorKey{SourceChannelID: "100", SourceMessageID: "msg-1"}
	f.records.RecordMirror(key, "main", "200", "mirror-200")
	f.records.RecordMirror(key, "main", "300", "mirror-300")

	f.mirror.On("Delete", mock.Anything, "200", "mirror-200", "").Return(nil)
	f.mirror.On("Delete", mock.Anything, "300", "mirror-300", "").Return(nil)

	f.engine.handleMessageDelete(&DeleteEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1",
	})

	require.Eventually(t, func() bool {
		return f.mirror.AssertNumberOfCalls(new(testing.T), "Delete", 2) && f.records.Len() == 0
	}, waitFor, 10*time.Millisecond)
	f.mirror.AssertExpectations(t)

	// Replaying the delete is harmless.
	f.engine.handleMessageDelete(&DeleteEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1",
	})
	time.Sleep(100 * time.Millisecond)
	f.mirror.AssertNumberOfCalls(t, "Delete", 2)
}

func TestEngine_ReactionMirroringFollowsToggle(t *testing.T) {
	t.Parallel()

	config := relayConfig(t)
	config.Options.ReactionMirroring = true
	f := newEngineFixture(t, config)

	key := entities.MirrorKey{SourceChannelID: "100", SourceMessageID: "msg-1"}
	f.records.RecordMirror(key, "main", "200", "mirror-200")
	f.records.RecordMirror(key, "main", "300", "mirror-300")

	f.gateway.On("ReactionAdd", mock.Anything, "200", "mirror-200", "👍").Return(nil)
	f.gateway.On("ReactionAdd", mock.Anything, "300", "mirror-300", "👍").Return(nil)

	f.engine.handleReaction(&ReactionEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1",
		UserID: "u2", Emoji: "👍",
	})
	f.gateway.AssertExpectations(t)

	// The bot's own reactions never echo.
	f.engine.handleReaction(&ReactionEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1",
		UserID: "bot-user", Emoji: "👍",
	})
	f.gateway.AssertNumberOfCalls(t, "ReactionAdd", 2)
}

func TestEngine_ReactionMirroringOffByDefault(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, relayConfig(t))

	key := entities.MirrorKey{SourceChannelID: "100", SourceMessageID: "msg-1"}
	f.records.RecordMirror(key, "main", "200", "mirror-200")

	f.engine.handleReaction(&ReactionEvent{
		GuildID: "guild-1", ChannelID: "100", MessageID: "msg-1",
		UserID: "u2", Emoji: "👍",
	})
	f.gateway.AssertNotCalled(t, "ReactionAdd", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_ThreadCreateOpensMirrorThreads(t *testing.T) {
	t.Parallel()

	config := relayConfig(t)
	config.Options.ThreadMirroring = true
	f := newEngineFixture(t, config)

	f.gateway.On("CreateThread", mock.Anything, "200", "topic", threadAutoArchiveMinutes).Return("thread-200", nil)
	f.gateway.On("CreateThread", mock.Anything, "300", "topic", threadAutoArchiveMinutes).Return("thread-300", nil)

	f.engine.handleThreadCreate(&ThreadEvent{
		GuildID: "guild-1", ParentChannelID: "100", ThreadID: "thread-100", Name: "topic",
	})
	f.gateway.AssertExpectations(t)

	record, ok := f.records.GetThread("thread-100")
	require.True(t, ok)
	assert.Equal(t, "thread-200", record.Mirrors["200"])
	assert.Equal(t, "thread-300", record.Mirrors["300"])

	// The mirrors the engine itself opened must not mirror again.
	f.engine.handleThreadCreate(&ThreadEvent{
		GuildID: "guild-1", ParentChannelID: "200", ThreadID: "thread-200", Name: "topic",
	})
	f.gateway.AssertNumberOfCalls(t, "CreateThread", 2)
}

func TestEngine_ThreadMessageRelaysIntoMirroredThread(t *testing.T) {
	t.Parallel()

	config := relayConfig(t)
	config.Options.ThreadMirroring = true
	f := newEngineFixture(t, config)

	f.records.RecordThreadMirror("thread-100", "topic", "200", "thread-200")
	f.records.RecordThreadMirror("thread-100", "topic", "300", "thread-300")

	f.provider.On("Translate", mock.Anything, "hallo welt", "EN-GB", "DE").Return("hello world", "DE", nil)
	f.provider.On("Translate", mock.Anything, "hallo welt", "FR", "DE").Return("bonjour le monde", "DE", nil)
	f.mirror.On("Post", mock.Anything, "200", mock.MatchedBy(func(p *interfaces.MirrorPost) bool {
		return p.ThreadID == "thread-200"
	})).Return("mirror-1", nil)
	f.mirror.On("Post", mock.Anything, "300", mock.MatchedBy(func(p *interfaces.MirrorPost) bool {
		return p.ThreadID == "thread-300"
	})).Return("mirror-2", nil)

	ev := germanMessage()
	ev.ThreadID = "thread-100"
	f.engine.handleMessageCreate(ev)

	// Thread messages are keyed by the thread so edits and deletes resolve.
	key := entities.MirrorKey{SourceChannelID: "thread-100", SourceMessageID: "msg-1"}
	require.Eventually(t, func() bool {
		record, ok := f.records.Get(key)
		return ok && len(record.Mirrors) == 2
	}, waitFor, 10*time.Millisecond)
}

func TestEngine_ReplyPreviewIsQuotedAndTranslated(t *testing.T) {
	t.Parallel()

	config := relayConfig(t)
	config.Options.ReplyMode = true
	f := newEngineFixture(t, config)

	f.provider.On("Translate", mock.Anything, "hallo welt", "EN-GB", "DE").Return("hello world", "DE", nil)
	f.provider.On("Translate", mock.Anything, "hallo welt", "FR", "DE").Return("bonjour le monde", "DE", nil)
	f.provider.On("Translate", mock.Anything, "urspruenglich", "EN-GB", "DE").Return("originally", "DE", nil)
	f.provider.On("Translate", mock.Anything, "urspruenglich", "FR", "DE").Return("à l'origine", "DE", nil)

	f.mirror.On("Post", mock.Anything, "200", mock.MatchedBy(func(p *interfaces.MirrorPost) bool {
		return p.Content != "hello world" &&
			strings.Contains(p.Content, "originally") &&
			strings.Contains(p.Content, "Bob") &&
			strings.Contains(p.Content, "https://discord.com/channels/guild-1/100/msg-0") &&
			strings.Contains(p.Content, "hello world")
	})).Return("mirror-200", nil)
	f.mirror.On("Post", mock.Anything, "300", mock.Anything).Return("mirror-300", nil)

	ev := germanMessage()
	ev.Reply = &ReplyRef{
		AuthorName: "Bob",
		Content:    "urspruenglich",
		ChannelID:  "100",
		MessageID:  "msg-0",
	}
	f.engine.handleMessageCreate(ev)

	require.Eventually(t, func() bool { return f.records.Len() == 1 }, waitFor, 10*time.Millisecond)
	f.mirror.AssertExpectations(t)
}
