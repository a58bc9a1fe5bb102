package search

import (
	"context"
	"strings"
	"sync"

	"github.com/ent0n29/zoya/internal/reliability"
)

// Mock answers from a fixed table keyed by lower-cased query. Unknown
// queries produce a single generic snippet unless Strict is set.
type Mock struct {
	Strict bool

	mu      sync.Mutex
	answers map[string][]Result
	queries []string
}

func NewMock(answers map[string][]Result) *Mock {
	m := &Mock{answers: make(map[string][]Result, len(answers))}
	for q, r := range answers {
		m.answers[strings.ToLower(strings.TrimSpace(q))] = r
	}
	return m
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, reliability.NewFailure(m.Name(), reliability.KindNetwork, err)
	}
	m.mu.Lock()
	m.queries = append(m.queries, query)
	results, ok := m.answers[strings.ToLower(strings.TrimSpace(query))]
	m.mu.Unlock()

	if !ok {
		if m.Strict {
			return nil, reliability.Empty(m.Name())
		}
		results = []Result{{Title: query, Snippet: "Search results for " + query + "."}}
	}
	if len(results) == 0 {
		return nil, reliability.Empty(m.Name())
	}
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return append([]Result(nil), results...), nil
}

// Queries lists every query received, in order.
func (m *Mock) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
