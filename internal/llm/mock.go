package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/zoya/internal/memory"
	"github.com/ent0n29/zoya/internal/reliability"
)

// MockBackend answers deterministically from the last user message so the
// assistant can run without network access.
type MockBackend struct{}

func NewMockBackend() *MockBackend { return &MockBackend{} }

func (b *MockBackend) Name() string { return "mock" }

func (b *MockBackend) Complete(ctx context.Context, messages []memory.Message, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", reliability.NewFailure(b.Name(), reliability.KindNetwork, ctx.Err())
	default:
	}

	var last string
	turns := 0
	for _, m := range messages {
		if m.Role == memory.RoleUser {
			last = strings.TrimSpace(m.Content)
			turns++
		}
	}
	if last == "" {
		return "I am listening.", nil
	}
	if turns > 1 {
		return fmt.Sprintf("I heard you: %s (turn %d)", last, turns), nil
	}
	return fmt.Sprintf("I heard you: %s", last), nil
}
