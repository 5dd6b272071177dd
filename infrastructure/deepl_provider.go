package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/utils"
)

// targetListTTL bounds how long a cached target-language list is trusted.
const targetListTTL = time.Hour

// DeepLProvider translates via the DeepL REST API.
type DeepLProvider struct {
	http    *resty.Client
	baseURL string

	mu        sync.Mutex
	targets   []interfaces.Language
	targetSet map[string]bool
	fetchedAt time.Time
}

// NewDeepLProvider builds a provider against the given base URL, typically
// the free-tier endpoint https://api-free.deepl.com/v2.
func NewDeepLProvider(apiKey, baseURL string, timeout time.Duration) *DeepLProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Authorization", "DeepL-Auth-Key "+apiKey)
	return &DeepLProvider{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *DeepLProvider) Name() entities.Provider {
	return entities.ProviderDeepL
}

type deeplTranslation struct {
	Text                   string `json:"text"`
	DetectedSourceLanguage string `json:"detected_source_language"`
}

type deeplTranslateResponse struct {
	Translations []deeplTranslation `json:"translations"`
}

// Translate returns the translated text and the source language DeepL
// detected. sourceHint may be empty, in which case DeepL detects the source.
func (p *DeepLProvider) Translate(ctx context.Context, text, targetLang, sourceHint string) (string, string, error) {
	return p.translate(ctx, text, targetLang, sourceHint, "")
}

// TranslateFormal translates with an explicit formality register. DeepL
// ignores the register for languages without a formal/informal distinction.
func (p *DeepLProvider) TranslateFormal(ctx context.Context, text, targetLang, sourceHint, formality string) (string, string, error) {
	return p.translate(ctx, text, targetLang, sourceHint, formality)
}

func (p *DeepLProvider) translate(ctx context.Context, text, targetLang, sourceHint, formality string) (string, string, error) {
	if strings.TrimSpace(text) == "" {
		return text, utils.NormalizeLanguage(sourceHint), nil
	}

	target := utils.AliasForTargets(targetLang, p.cachedTargetSet())
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", target)
	form.Set("preserve_formatting", "1")
	if hint := utils.NormalizeLanguage(sourceHint); hint != "" {
		// DeepL only accepts base codes as source hints.
		form.Set("source_lang", baseCode(hint))
	}
	if formality != "" && formality != "default" {
		form.Set("formality", formality)
	}

	var result deeplTranslateResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetResult(&result).
		Post(p.baseURL + "/translate")
	if err := p.classify(resp, err); err != nil {
		return "", "", err
	}
	if len(result.Translations) == 0 {
		return "", "", entities.NewProviderError(entities.ProviderDeepL, entities.ProviderTransientNetwork,
			errors.New("empty translations array"))
	}
	return result.Translations[0].Text, result.Translations[0].DetectedSourceLanguage, nil
}

// DetectLanguage identifies the source language by running a minimal
// translation and reading the detected source code; DeepL has no standalone
// detection endpoint.
func (p *DeepLProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	sample := text
	if len(sample) > 400 {
		sample = sample[:400]
	}
	_, detected, err := p.Translate(ctx, sample, "EN-GB", "")
	if err != nil {
		return "", err
	}
	return detected, nil
}

// SupportedTargets returns DeepL's target-language list, cached for an hour.
func (p *DeepLProvider) SupportedTargets(ctx context.Context) ([]interfaces.Language, error) {
	p.mu.Lock()
	if p.targets != nil && time.Since(p.fetchedAt) < targetListTTL {
		cached := p.targets
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	var raw []struct {
		Language string `json:"language"`
		Name     string `json:"name"`
	}
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("type", "target").
		SetResult(&raw).
		Get(p.baseURL + "/languages")
	if err := p.classify(resp, err); err != nil {
		return nil, err
	}

	targets := make([]interfaces.Language, 0, len(raw))
	set := make(map[string]bool, len(raw))
	for _, l := range raw {
		code := utils.NormalizeLanguage(l.Language)
		targets = append(targets, interfaces.Language{Code: code, Name: l.Name})
		set[code] = true
	}

	p.mu.Lock()
	p.targets = targets
	p.targetSet = set
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return targets, nil
}

func (p *DeepLProvider) cachedTargetSet() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Since(p.fetchedAt) >= targetListTTL {
		return nil
	}
	return p.targetSet
}

// classify maps transport failures and HTTP status codes onto provider
// error kinds.
func (p *DeepLProvider) classify(resp *resty.Response, err error) error {
	if err != nil {
		return entities.NewProviderError(entities.ProviderDeepL, entities.ProviderTransientNetwork, err)
	}
	if !resp.IsError() {
		return nil
	}
	status := resp.StatusCode()
	cause := fmt.Errorf("deepl: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	switch {
	case status == 429 || status == 456: // 456 is DeepL's quota-exceeded code
		return entities.NewProviderError(entities.ProviderDeepL, entities.ProviderRateLimited, cause)
	case status == 401 || status == 403:
		return entities.NewProviderError(entities.ProviderDeepL, entities.ProviderAuthFailed, cause)
	case status == 400:
		return entities.NewProviderError(entities.ProviderDeepL, entities.ProviderUnsupportedLanguage, cause)
	case status >= 500:
		return entities.NewProviderError(entities.ProviderDeepL, entities.ProviderTransientNetwork, cause)
	default:
		return entities.NewProviderError(entities.ProviderDeepL, entities.ProviderTransientNetwork, cause)
	}
}

// baseCode strips a regional suffix, EN-GB -> EN.
func baseCode(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}
