// Package interactionlog keeps an append-only record of completed turns.
package interactionlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the on-disk timestamp format, local time.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry is one logged turn. SearchResult is null unless the reply came from
// web search.
type Entry struct {
	ID           string  `json:"id,omitempty"`
	Timestamp    string  `json:"timestamp"`
	Mode         string  `json:"mode"`
	UserQuery    string  `json:"user_query"`
	AIReply      string  `json:"ai_reply"`
	SearchResult *string `json:"search_result"`
}

// Store persists entries. List returns them oldest first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// stamp fills the id and timestamp when the caller left them empty.
func stamp(e Entry, now time.Time) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = now.Format(TimestampLayout)
	}
	if e.Mode == "" {
		e.Mode = "text"
	}
	return e
}
