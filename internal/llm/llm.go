// Package llm adapts remote chat-completion services to the assistant's
// conversation model.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/reliability"
)

// Backend completes a conversation. The returned text is already trimmed and
// non-empty; every failure is a *reliability.Failure.
type Backend interface {
	Name() string
	Complete(ctx context.Context, messages []memory.Message, language string) (string, error)
}

// Config controls backend construction.
type Config struct {
	Mode        string // auto|openrouter|http|mock|off
	APIKey      string
	Model       string
	BaseURL     string
	HTTPURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// NewBackend resolves cfg.Mode to a backend. A backend that cannot be built
// for lack of configuration is reported as a KindUnavailable failure so the
// caller can negotiate the capability away.
func NewBackend(cfg Config) (Backend, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		return newAutoBackend(cfg)
	case "openrouter":
		return NewOpenRouterBackend(cfg)
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, reliability.Unavailable("http", "LLM_HTTP_URL is required for http mode")
		}
		return NewHTTPBackend(cfg.HTTPURL, cfg.Timeout), nil
	case "mock":
		return NewMockBackend(), nil
	case "off":
		return nil, reliability.Unavailable("llm", "disabled by LLM_MODE=off")
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}

func newAutoBackend(cfg Config) (Backend, error) {
	if strings.TrimSpace(cfg.APIKey) != "" {
		return NewOpenRouterBackend(cfg)
	}
	if strings.TrimSpace(cfg.HTTPURL) != "" {
		return NewHTTPBackend(cfg.HTTPURL, cfg.Timeout), nil
	}
	return nil, reliability.Unavailable("llm", "no OPENROUTER_API_KEY or LLM_HTTP_URL configured")
}
