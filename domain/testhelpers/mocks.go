package testhelpers

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
)

// MockConfigStore is a mock implementation of ConfigStore
type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) GetOrCreate(ctx context.Context, guildID string, defaultProvider entities.Provider) (*entities.GuildConfig, error) {
	args := m.Called(ctx, guildID, defaultProvider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildConfig), args.Error(1)
}

func (m *MockConfigStore) Save(ctx context.Context, config *entities.GuildConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockConfigStore) LoadAll(ctx context.Context) ([]*entities.GuildConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GuildConfig), args.Error(1)
}

// MockTranslationProvider is a mock implementation of TranslationProvider
type MockTranslationProvider struct {
	mock.Mock
}

func (m *MockTranslationProvider) Name() entities.Provider {
	args := m.Called()
	return args.Get(0).(entities.Provider)
}

func (m *MockTranslationProvider) Translate(ctx context.Context, text, targetLang, sourceHint string) (string, string, error) {
	args := m.Called(ctx, text, targetLang, sourceHint)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockTranslationProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockTranslationProvider) SupportedTargets(ctx context.Context) ([]interfaces.Language, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Language), args.Error(1)
}

// MockIdentityMirror is a mock implementation of IdentityMirror
type MockIdentityMirror struct {
	mock.Mock
}

func (m *MockIdentityMirror) Post(ctx context.Context, targetChannelID string, post *interfaces.MirrorPost) (string, error) {
	args := m.Called(ctx, targetChannelID, post)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityMirror) Edit(ctx context.Context, targetChannelID, messageID, content, threadID string) error {
	args := m.Called(ctx, targetChannelID, messageID, content, threadID)
	return args.Error(0)
}

func (m *MockIdentityMirror) Delete(ctx context.Context, targetChannelID, messageID, threadID string) error {
	args := m.Called(ctx, targetChannelID, messageID, threadID)
	return args.Error(0)
}

// MockChatGateway is a mock implementation of ChatGateway
type MockChatGateway struct {
	mock.Mock
}

func (m *MockChatGateway) ReactionAdd(ctx context.Context, channelID, messageID, emoji string) error {
	args := m.Called(ctx, channelID, messageID, emoji)
	return args.Error(0)
}

func (m *MockChatGateway) ReactionRemove(ctx context.Context, channelID, messageID, emoji string) error {
	args := m.Called(ctx, channelID, messageID, emoji)
	return args.Error(0)
}

func (m *MockChatGateway) CreateThread(ctx context.Context, channelID, name string, autoArchiveMinutes int) (string, error) {
	args := m.Called(ctx, channelID, name, autoArchiveMinutes)
	return args.String(0), args.Error(1)
}

func (m *MockChatGateway) SendMessage(ctx context.Context, channelID, content, headline string) (string, error) {
	args := m.Called(ctx, channelID, content, headline)
	return args.String(0), args.Error(1)
}

func (m *MockChatGateway) DownloadAttachment(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// MockReminderStore is a mock implementation of ReminderStore
type MockReminderStore struct {
	mock.Mock
}

func (m *MockReminderStore) Load(ctx context.Context, guildID string) ([]*entities.Reminder, entities.ReminderSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(entities.ReminderSettings), args.Error(2)
	}
	return args.Get(0).([]*entities.Reminder), args.Get(1).(entities.ReminderSettings), args.Error(2)
}

func (m *MockReminderStore) Save(ctx context.Context, guildID string, reminders []*entities.Reminder, settings entities.ReminderSettings) error {
	args := m.Called(ctx, guildID, reminders, settings)
	return args.Error(0)
}

func (m *MockReminderStore) GuildIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MemoryMirrorStore is an in-memory MirrorStore and ThreadMirrorStore for
// engine tests; concurrent fan-out legs record in nondeterministic order, so
// a call-expectation mock would be flaky here.
type MemoryMirrorStore struct {
	mu      sync.Mutex
	records map[entities.MirrorKey]*entities.MirrorRecord
	threads map[string]*entities.ThreadMirrorRecord
}

func NewMemoryMirrorStore() *MemoryMirrorStore {
	return &MemoryMirrorStore{
		records: make(map[entities.MirrorKey]*entities.MirrorRecord),
		threads: make(map[string]*entities.ThreadMirrorRecord),
	}
}

func (s *MemoryMirrorStore) Get(key entities.MirrorKey) (*entities.MirrorRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, false
	}
	copied := *record
	copied.Mirrors = make(map[string]string, len(record.Mirrors))
	for k, v := range record.Mirrors {
		copied.Mirrors[k] = v
	}
	return &copied, true
}

func (s *MemoryMirrorStore) RecordMirror(key entities.MirrorKey, groupName, targetChannelID, mirroredMessageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		record = entities.NewMirrorRecord(key, groupName)
		s.records[key] = record
	}
	record.Mirrors[targetChannelID] = mirroredMessageID
}

func (s *MemoryMirrorStore) Evict(key entities.MirrorKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

func (s *MemoryMirrorStore) GetThread(threadID string) (*entities.ThreadMirrorRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.threads[threadID]
	if !ok {
		return nil, false
	}
	copied := *record
	copied.Mirrors = make(map[string]string, len(record.Mirrors))
	for k, v := range record.Mirrors {
		copied.Mirrors[k] = v
	}
	return &copied, true
}

func (s *MemoryMirrorStore) RecordThreadMirror(threadID, name, targetChannelID, mirroredThreadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.threads[threadID]
	if !ok {
		record = entities.NewThreadMirrorRecord(threadID, name)
		s.threads[threadID] = record
	}
	record.Mirrors[targetChannelID] = mirroredThreadID
}

// Len reports how many message records are tracked.
func (s *MemoryMirrorStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
