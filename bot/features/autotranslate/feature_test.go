package autotranslate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/testhelpers"
)

func TestFeature_EnableDisableLookup(t *testing.T) {
	t.Parallel()
	f := NewFeature(nil, nil)

	_, ok := f.Lookup("chan-1")
	assert.False(t, ok)
	assert.False(t, f.Disable("chan-1"))

	f.Enable("chan-1", Settings{Target: "DE"})
	settings, ok := f.Lookup("chan-1")
	require.True(t, ok)
	assert.Equal(t, "DE", settings.Target)
	assert.Equal(t, defaultMinChars, settings.MinChars, "zero MinChars falls back to the default")

	// Re-enabling replaces the settings in place.
	f.Enable("chan-1", Settings{Target: "FR", Source: "EN", MinChars: 10})
	settings, ok = f.Lookup("chan-1")
	require.True(t, ok)
	assert.Equal(t, "FR", settings.Target)
	assert.Equal(t, 10, settings.MinChars)

	assert.True(t, f.Disable("chan-1"))
	_, ok = f.Lookup("chan-1")
	assert.False(t, ok)
}

func TestFeature_Admit(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		content string
		isBot   bool
		want    bool
	}{
		{"plain message", "hello over there", false, true},
		{"bot author", "hello over there", true, false},
		{"slash command", "/translate hello", false, false},
		{"bang command", "!roll 2d6", false, false},
		{"dot command", ".help", false, false},
		{"below minimum length", "hey", false, false},
		{"whitespace padding does not count", "   hi   ", false, false},
		{"unknown channel", "hello over there", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewFeature(nil, nil)
			if tt.name != "unknown channel" {
				f.Enable("chan-1", Settings{Target: "DE"})
			}
			_, _, ok := f.admit("chan-1", tt.content, tt.isBot, now)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestFeature_AdmitCooldownPerChannel(t *testing.T) {
	t.Parallel()
	f := NewFeature(nil, nil)
	f.Enable("chan-1", Settings{Target: "DE"})
	f.Enable("chan-2", Settings{Target: "DE"})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, ok := f.admit("chan-1", "first message here", false, now)
	require.True(t, ok)

	// Within the cooldown the same channel refuses, another channel admits.
	_, _, ok = f.admit("chan-1", "second message here", false, now.Add(100*time.Millisecond))
	assert.False(t, ok)
	_, _, ok = f.admit("chan-2", "second message here", false, now.Add(100*time.Millisecond))
	assert.True(t, ok)

	_, _, ok = f.admit("chan-1", "third message here", false, now.Add(sendCooldown))
	assert.True(t, ok)
}

func TestSkippable(t *testing.T) {
	t.Parallel()
	assert.True(t, skippable(""))
	assert.True(t, skippable("   "))
	assert.True(t, skippable("/ping"))
	assert.True(t, skippable("!mute"))
	assert.True(t, skippable(".r"))
	assert.False(t, skippable("hello / there"))
	assert.False(t, skippable("ordinary sentence."))
}

func TestSameBase(t *testing.T) {
	t.Parallel()
	assert.True(t, sameBase("EN", "EN-GB"))
	assert.True(t, sameBase("en-us", "EN"))
	assert.True(t, sameBase("PT-BR", "PT-PT"))
	assert.False(t, sameBase("DE", "EN"))
	assert.False(t, sameBase("", "EN"))
}

// formalityProvider adds the formality-aware path to the plain mock.
type formalityProvider struct {
	testhelpers.MockTranslationProvider
}

func (m *formalityProvider) TranslateFormal(ctx context.Context, text, targetLang, sourceHint, formality string) (string, string, error) {
	args := m.Called(ctx, text, targetLang, sourceHint, formality)
	return args.String(0), args.String(1), args.Error(2)
}

func TestTranslate_FormalityDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("formality-aware provider", func(t *testing.T) {
		t.Parallel()
		provider := new(formalityProvider)
		provider.On("TranslateFormal", mock.Anything, "good day", "DE", "", "more").
			Return("guten Tag", "EN", nil)

		translated, detected, err := translate(ctx, provider, "good day", Settings{Target: "DE", Formality: "more"})
		require.NoError(t, err)
		assert.Equal(t, "guten Tag", translated)
		assert.Equal(t, "EN", detected)
		provider.AssertNotCalled(t, "Translate")
	})

	t.Run("default register takes the plain path", func(t *testing.T) {
		t.Parallel()
		provider := new(formalityProvider)
		provider.On("Translate", mock.Anything, "good day", "DE", "").
			Return("guten Tag", "EN", nil)

		_, _, err := translate(ctx, provider, "good day", Settings{Target: "DE", Formality: "default"})
		require.NoError(t, err)
		provider.AssertNotCalled(t, "TranslateFormal")
	})

	t.Run("provider without formality support", func(t *testing.T) {
		t.Parallel()
		provider := new(testhelpers.MockTranslationProvider)
		provider.On("Translate", mock.Anything, "good day", "DE", "EN").
			Return("guten Tag", "EN", nil)

		_, _, err := translate(ctx, provider, "good day", Settings{Target: "DE", Source: "EN", Formality: "more"})
		require.NoError(t, err)
		provider.AssertExpectations(t)
	})
}
