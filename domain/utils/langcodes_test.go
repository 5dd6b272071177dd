package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/interfaces"
)

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"de", "DE"},
		{" en-gb ", "EN-GB"},
		{"pt_br", "PT-BR"},
		{"", ""},
		{"ZH-Hant", "ZH-HANT"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLanguage(tt.in))
	}
}

func TestAliasForTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		targets map[string]bool
		want    string
	}{
		{name: "EN maps to EN-GB", code: "en", want: "EN-GB"},
		{name: "PT maps to PT-PT", code: "PT", want: "PT-PT"},
		{name: "NO maps to NB", code: "no", want: "NB"},
		{name: "ZH-TW maps to ZH-HANT", code: "zh_tw", want: "ZH-HANT"},
		{name: "unaliased code passes through", code: "fr", want: "FR"},
		{
			name:    "falls back to base code when variant unsupported",
			code:    "EN-US",
			targets: map[string]bool{"EN": true, "DE": true},
			want:    "EN",
		},
		{
			name:    "keeps variant when target list supports it",
			code:    "EN-US",
			targets: map[string]bool{"EN-US": true, "EN-GB": true},
			want:    "EN-US",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AliasForTargets(tt.code, tt.targets))
		})
	}
}

func TestSuggestLanguages(t *testing.T) {
	t.Parallel()

	targets := []interfaces.Language{
		{Code: "DE", Name: "German"},
		{Code: "EN-GB", Name: "English (British)"},
		{Code: "EN-US", Name: "English (American)"},
		{Code: "FR", Name: "French"},
	}

	// "en" matches both English codes and the substring in "French".
	matches := SuggestLanguages("en", targets, 20)
	require.Len(t, matches, 3)
	assert.Equal(t, "EN-GB", matches[0].Code)
	assert.Equal(t, "EN-US", matches[1].Code)
	assert.Equal(t, "FR", matches[2].Code)

	// Name matches count too.
	matches = SuggestLanguages("german", targets, 20)
	assert.Len(t, matches, 1)
	assert.Equal(t, "DE", matches[0].Code)

	// Limit is honored.
	matches = SuggestLanguages("", targets, 3)
	assert.Len(t, matches, 3)

	// Empty target list falls back to the curated defaults.
	matches = SuggestLanguages("japanese", nil, 20)
	assert.NotEmpty(t, matches)
	assert.Equal(t, "JA", matches[0].Code)
}
