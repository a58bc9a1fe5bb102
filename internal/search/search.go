// Package search answers factual queries from web search snippets.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ent0n29/zoya/internal/cache"
	"github.com/ent0n29/zoya/internal/reliability"
)

const DefaultMaxResults = 3

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Searcher returns up to maxResults hits. No hits is a KindEmpty failure.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Config controls searcher construction.
type Config struct {
	Mode    string // auto|duckduckgo|mock|off
	BaseURL string
	Timeout time.Duration
}

// NewSearcher resolves cfg.Mode. When c is non-nil the searcher is wrapped so
// repeated queries are served from the cache.
func NewSearcher(cfg Config, c cache.Cache) (Searcher, error) {
	var s Searcher
	switch mode := strings.ToLower(strings.TrimSpace(cfg.Mode)); mode {
	case "", "auto", "duckduckgo":
		s = NewDuckDuckGo(cfg.BaseURL, cfg.Timeout)
	case "mock":
		s = NewMock(nil)
	case "off":
		return nil, reliability.Unavailable("search", "disabled by SEARCH_MODE=off")
	default:
		return nil, fmt.Errorf("unsupported search mode %q", cfg.Mode)
	}
	if c != nil {
		s = NewCached(s, c)
	}
	return s, nil
}

// Join concatenates result snippets with single spaces.
func Join(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if s := strings.TrimSpace(r.Snippet); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
