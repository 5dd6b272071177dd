package infrastructure

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Impetoast/Catcord/domain/entities"
	"github.com/Impetoast/Catcord/domain/interfaces"
	"github.com/Impetoast/Catcord/domain/utils"
)

const translateSystemPrompt = "You are a professional translator. Translate the user's message into %s. " +
	"Preserve meaning, tone, formatting, emoji, and code blocks. Return ONLY the translated text."

const detectSystemPrompt = "Identify the language of the user's message. " +
	"Reply with ONLY the uppercase ISO language code (for example EN, DE, PT-BR). No other text."

var isoCodePattern = regexp.MustCompile(`^[A-Z]{2}(-[A-Z0-9]{2,5})?$`)

// OpenAIProvider translates via the OpenAI chat-completions API.
type OpenAIProvider struct {
	http  *resty.Client
	model string
}

// NewOpenAIProvider builds a provider against the given base URL, typically
// https://api.openai.com/v1.
func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Authorization", "Bearer "+apiKey)
	return &OpenAIProvider{http: client, model: model}
}

func (p *OpenAIProvider) Name() entities.Provider {
	return entities.ProviderOpenAI
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate asks the model for a translation-only completion. The model
// cannot report a detected source, so the hint is echoed back.
func (p *OpenAIProvider) Translate(ctx context.Context, text, targetLang, sourceHint string) (string, string, error) {
	if strings.TrimSpace(text) == "" {
		return text, utils.NormalizeLanguage(sourceHint), nil
	}

	target := utils.AliasForTargets(targetLang, nil)
	out, err := p.complete(ctx, fmt.Sprintf(translateSystemPrompt, target), text)
	if err != nil {
		return "", "", err
	}
	return out, utils.NormalizeLanguage(sourceHint), nil
}

// DetectLanguage asks the model for a bare ISO code. Anything that does not
// look like one is treated as a parse failure.
func (p *OpenAIProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	sample := text
	if len(sample) > 400 {
		sample = sample[:400]
	}
	out, err := p.complete(ctx, detectSystemPrompt, sample)
	if err != nil {
		return "", err
	}
	code := utils.NormalizeLanguage(strings.Trim(out, `."'`))
	if !isoCodePattern.MatchString(code) {
		return "", entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderTransientNetwork,
			fmt.Errorf("unparseable detection reply %q", out))
	}
	return code, nil
}

// SupportedTargets returns the curated list; the chat API has no
// target-language catalog.
func (p *OpenAIProvider) SupportedTargets(ctx context.Context) ([]interfaces.Language, error) {
	return utils.CommonLanguages, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}

	var result chatResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err := p.classify(resp, err); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderTransientNetwork,
			fmt.Errorf("empty choices array"))
	}
	content := strings.TrimSpace(result.Choices[0].Message.Content)
	content = stripCodeFence(content)
	if content == "" {
		return "", entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderTransientNetwork,
			fmt.Errorf("empty completion"))
	}
	return content, nil
}

func (p *OpenAIProvider) classify(resp *resty.Response, err error) error {
	if err != nil {
		return entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderTransientNetwork, err)
	}
	if !resp.IsError() {
		return nil
	}
	status := resp.StatusCode()
	cause := fmt.Errorf("openai: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	switch {
	case status == 429:
		return entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderRateLimited, cause)
	case status == 401 || status == 403:
		return entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderAuthFailed, cause)
	default:
		return entities.NewProviderError(entities.ProviderOpenAI, entities.ProviderTransientNetwork, cause)
	}
}

// stripCodeFence unwraps a completion the model wrapped in ``` fences.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	trimmed := strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
