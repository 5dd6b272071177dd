package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/entities"
)

func TestDeepLProvider_Translate(t *testing.T) {
	t.Parallel()

	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/translate", r.URL.Path)
		require.Equal(t, "DeepL-Auth-Key test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"text":        r.PostFormValue("text"),
			"target_lang": r.PostFormValue("target_lang"),
			"source_lang": r.PostFormValue("source_lang"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"text":"hello world","detected_source_language":"DE"}]}`))
	}))
	defer server.Close()

	provider := NewDeepLProvider("test-key", server.URL+"/v2", 5*time.Second)
	translated, detected, err := provider.Translate(context.Background(), "hallo welt", "EN-GB", "DE")
	require.NoError(t, err)
	assert.Equal(t, "hello world", translated)
	assert.Equal(t, "DE", detected)

	assert.Equal(t, "hallo welt", gotForm["text"])
	assert.Equal(t, "EN-GB", gotForm["target_lang"])
	// Source hints must be base codes.
	assert.Equal(t, "DE", gotForm["source_lang"])
}

func TestDeepLProvider_TranslateFormal(t *testing.T) {
	t.Parallel()

	var gotFormality []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotFormality = append(gotFormality, r.PostFormValue("formality"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"text":"guten Tag","detected_source_language":"EN"}]}`))
	}))
	defer server.Close()

	provider := NewDeepLProvider("test-key", server.URL, 5*time.Second)

	translated, _, err := provider.TranslateFormal(context.Background(), "good day", "DE", "", "more")
	require.NoError(t, err)
	assert.Equal(t, "guten Tag", translated)

	// "default" and empty are equivalent to a plain Translate call.
	_, _, err = provider.TranslateFormal(context.Background(), "good day", "DE", "", "default")
	require.NoError(t, err)
	_, _, err = provider.Translate(context.Background(), "good day", "DE", "")
	require.NoError(t, err)

	require.Len(t, gotFormality, 3)
	assert.Equal(t, "more", gotFormality[0])
	assert.Empty(t, gotFormality[1])
	assert.Empty(t, gotFormality[2])
}

func TestDeepLProvider_TranslateEmptyInputShortCircuits(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}))
	defer server.Close()

	provider := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	translated, detected, err := provider.Translate(context.Background(), "   ", "EN-GB", "de")
	require.NoError(t, err)
	assert.Equal(t, "   ", translated)
	assert.Equal(t, "DE", detected)
}

func TestDeepLProvider_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantKind  entities.ProviderErrorKind
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, entities.ProviderRateLimited, true},
		{"quota exceeded", 456, entities.ProviderRateLimited, true},
		{"bad key", http.StatusUnauthorized, entities.ProviderAuthFailed, false},
		{"forbidden", http.StatusForbidden, entities.ProviderAuthFailed, false},
		{"bad language", http.StatusBadRequest, entities.ProviderUnsupportedLanguage, false},
		{"server error", http.StatusInternalServerError, entities.ProviderTransientNetwork, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			provider := NewDeepLProvider("test-key", server.URL, 5*time.Second)
			_, _, err := provider.Translate(context.Background(), "hallo", "EN-GB", "")

			var providerErr *entities.ProviderError
			require.ErrorAs(t, err, &providerErr)
			assert.Equal(t, entities.ProviderDeepL, providerErr.Provider)
			assert.Equal(t, tt.wantKind, providerErr.Kind)
			assert.Equal(t, tt.retryable, providerErr.Retryable())
		})
	}
}

func TestDeepLProvider_EmptyTranslationsIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[]}`))
	}))
	defer server.Close()

	provider := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	_, _, err := provider.Translate(context.Background(), "hallo", "EN-GB", "")

	var providerErr *entities.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, entities.ProviderTransientNetwork, providerErr.Kind)
}

func TestDeepLProvider_DetectLanguage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"text":"hello","detected_source_language":"DE"}]}`))
	}))
	defer server.Close()

	provider := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	detected, err := provider.DetectLanguage(context.Background(), "hallo welt")
	require.NoError(t, err)
	assert.Equal(t, "DE", detected)
}

func TestDeepLProvider_SupportedTargetsIsCached(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/languages", r.URL.Path)
		require.Equal(t, "target", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"language":"EN-GB","name":"English (British)"},{"language":"DE","name":"German"}]`))
	}))
	defer server.Close()

	provider := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	ctx := context.Background()

	targets, err := provider.SupportedTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "EN-GB", targets[0].Code)
	assert.Equal(t, "German", targets[1].Name)

	_, err = provider.SupportedTargets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call within the TTL must hit the cache")
}
