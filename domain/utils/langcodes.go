package utils

import (
	"strings"

	"github.com/Impetoast/Catcord/domain/interfaces"
)

// CommonLanguages is the curated fallback list used when no provider target
// list is available, e.g. for autocomplete before the first provider call.
var CommonLanguages = []interfaces.Language{
	{Code: "DE", Name: "German"},
	{Code: "EN-GB", Name: "English (UK)"},
	{Code: "EN-US", Name: "English (US)"},
	{Code: "FR", Name: "French"},
	{Code: "ES", Name: "Spanish"},
	{Code: "PT-PT", Name: "Portuguese (EU)"},
	{Code: "PT-BR", Name: "Portuguese (BR)"},
	{Code: "IT", Name: "Italian"},
	{Code: "NL", Name: "Dutch"},
	{Code: "SV", Name: "Swedish"},
	{Code: "NB", Name: "Norwegian (Bokmål)"},
	{Code: "DA", Name: "Danish"},
	{Code: "FI", Name: "Finnish"},
	{Code: "PL", Name: "Polish"},
	{Code: "CS", Name: "Czech"},
	{Code: "HU", Name: "Hungarian"},
	{Code: "RO", Name: "Romanian"},
	{Code: "RU", Name: "Russian"},
	{Code: "UK", Name: "Ukrainian"},
	{Code: "TR", Name: "Turkish"},
	{Code: "EL", Name: "Greek"},
	{Code: "BG", Name: "Bulgarian"},
	{Code: "ZH", Name: "Chinese (simplified)"},
	{Code: "ZH-HANT", Name: "Chinese (traditional)"},
	{Code: "JA", Name: "Japanese"},
	{Code: "KO", Name: "Korean"},
	{Code: "AR", Name: "Arabic"},
}

// languageAliases maps user-friendly codes onto the variants providers
// actually accept.
var languageAliases = map[string]string{
	"EN":    "EN-GB",
	"PT":    "PT-PT",
	"NO":    "NB",
	"ZH-CN": "ZH",
	"ZH-SG": "ZH",
	"ZH-TW": "ZH-HANT",
	"ZH-HK": "ZH-HANT",
}

// NormalizeLanguage uppercases, trims, and converts underscores to hyphens.
// Returns "" for empty input.
func NormalizeLanguage(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// AliasForTargets maps a normalized code onto a variant the provider accepts,
// when a target list is known. With no target list only the static aliases
// apply.
func AliasForTargets(code string, targets map[string]bool) string {
	normalized := NormalizeLanguage(code)
	if aliased, ok := languageAliases[normalized]; ok {
		normalized = aliased
	}
	if len(targets) == 0 || targets[normalized] {
		return normalized
	}

	// Provider rejects the aliased form; try the neighboring variants.
	var trials []string
	switch {
	case strings.HasPrefix(normalized, "EN-"):
		trials = []string{"EN"}
	case normalized == "EN":
		trials = []string{"EN-GB", "EN-US"}
	case normalized == "PT":
		trials = []string{"PT-PT", "PT-BR"}
	case normalized == "NO":
		trials = []string{"NB"}
	}
	for _, trial := range trials {
		if targets[trial] {
			return trial
		}
	}
	return normalized
}

// SuggestLanguages returns up to limit (code, name) suggestions matching the
// query, preferring the provider target list over the curated defaults.
func SuggestLanguages(query string, targets []interfaces.Language, limit int) []interfaces.Language {
	q := strings.ToLower(strings.TrimSpace(query))

	pool := targets
	if len(pool) == 0 {
		pool = CommonLanguages
	}

	seen := make(map[string]bool)
	out := make([]interfaces.Language, 0, limit)
	for _, item := range pool {
		if seen[item.Code] {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Code), q) && !strings.Contains(strings.ToLower(item.Name), q) {
			continue
		}
		seen[item.Code] = true
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out
}
