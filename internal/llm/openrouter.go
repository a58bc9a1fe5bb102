package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/reliability"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "x-ai/grok-4-fast:free"
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 500
)

// OpenRouterBackend talks to any OpenAI-compatible chat completion endpoint;
// OpenRouter is the default.
type OpenRouterBackend struct {
	api         *openaiapi.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenRouterBackend(cfg Config) (*OpenRouterBackend, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, reliability.Unavailable("openrouter", "OPENROUTER_API_KEY is not set")
	}

	apiCfg := openaiapi.DefaultConfig(key)
	apiCfg.BaseURL = strings.TrimRight(firstNonEmpty(cfg.BaseURL, DefaultOpenRouterBaseURL), "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	b := &OpenRouterBackend{
		api:         openaiapi.NewClientWithConfig(apiCfg),
		model:       firstNonEmpty(cfg.Model, DefaultOpenRouterModel),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if b.temperature <= 0 {
		b.temperature = DefaultTemperature
	}
	if b.maxTokens <= 0 {
		b.maxTokens = DefaultMaxTokens
	}
	return b, nil
}

func (b *OpenRouterBackend) Name() string { return "openrouter" }

func (b *OpenRouterBackend) Complete(ctx context.Context, messages []memory.Message, _ string) (string, error) {
	req := openaiapi.ChatCompletionRequest{
		Model:       b.model,
		Messages:    toAPIMessages(messages),
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	}

	resp, err := b.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", reliability.NewFailure(b.Name(), classifyAPIError(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", reliability.Empty(b.Name())
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", reliability.Empty(b.Name())
	}
	return text, nil
}

func classifyAPIError(err error) reliability.Kind {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return reliability.KindForHTTPStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reliability.KindForHTTPStatus(reqErr.HTTPStatusCode)
	}
	return reliability.Classify(err)
}

func toAPIMessages(msgs []memory.Message) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
