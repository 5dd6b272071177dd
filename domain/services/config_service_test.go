package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/testhelpers"
)

func newTestConfigService(t *testing.T, store *testhelpers.MockConfigStore) (*ConfigService, *GroupResolver) {
	t.Helper()
	resolver := NewGroupResolver()
	return NewConfigService(store, resolver, entities.ProviderDeepL), resolver
}

func TestConfigService_SetChannel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := new(testhelpers.MockConfigStore)
	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	store.On("GetOrCreate", ctx, "guild-1", entities.ProviderDeepL).Return(config, nil).Once()
	store.On("Save", ctx, mock.AnythingOfType("*entities.GuildConfig")).Return(nil)

	service, resolver := newTestConfigService(t, store)
	require.NoError(t, service.SetChannel(ctx, "guild-1", "main", "100", "DE"))
	require.NoError(t, service.SetChannel(ctx, "guild-1", "main", "200", "EN-GB"))

	// Mutations re-index the resolver.
	resolution, ok := resolver.Resolve("guild-1", "100")
	require.True(t, ok)
	assert.Equal(t, "EN-GB", resolution.Siblings[0].Language)

	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestConfigService_FailedMutationPersistsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := new(testhelpers.MockConfigStore)
	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	require.NoError(t, config.AddGroup("other"))
	require.NoError(t, config.SetChannel("other", "100", "DE"))
	store.On("GetOrCreate", ctx, "guild-1", entities.ProviderDeepL).Return(config, nil)

	service, _ := newTestConfigService(t, store)

	// Channel 100 already belongs to "other": the mutation must fail and
	// nothing may be written.
	err := service.SetChannel(ctx, "guild-1", "main", "100", "EN")
	require.Error(t, err)
	var configErr *entities.ConfigError
	require.ErrorAs(t, err, &configErr)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	// The cached config is untouched.
	current, err := service.Config(ctx, "guild-1")
	require.NoError(t, err)
	main, _ := current.Group("main")
	assert.Empty(t, main.Channels)
}

func TestConfigService_ConfigReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := new(testhelpers.MockConfigStore)
	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	store.On("GetOrCreate", ctx, "guild-1", entities.ProviderDeepL).Return(config, nil).Once()

	service, _ := newTestConfigService(t, store)

	first, err := service.Config(ctx, "guild-1")
	require.NoError(t, err)
	require.NoError(t, first.SetChannel("main", "100", "DE"))

	second, err := service.Config(ctx, "guild-1")
	require.NoError(t, err)
	main, _ := second.Group("main")
	assert.Empty(t, main.Channels, "mutating a returned config must not leak into the cache")
}

func TestConfigService_WarmUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	require.NoError(t, config.AddGroup("main"))
	require.NoError(t, config.SetChannel("main", "100", "DE"))
	require.NoError(t, config.SetChannel("main", "200", "EN-GB"))

	store := new(testhelpers.MockConfigStore)
	store.On("LoadAll", ctx).Return([]*entities.GuildConfig{config}, nil)

	service, resolver := newTestConfigService(t, store)
	require.NoError(t, service.WarmUp(ctx))

	_, ok := resolver.Resolve("guild-1", "100")
	assert.True(t, ok)

	// Warm cache serves without touching the store again.
	_, err := service.Config(ctx, "guild-1")
	require.NoError(t, err)
	store.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}
