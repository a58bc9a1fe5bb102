package interactionlog

import (
	"context"
	"regexp"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// RedactPII masks e-mail addresses, card numbers and phone numbers.
func RedactPII(input string) string {
	out := emailPattern.ReplaceAllString(input, "[REDACTED_EMAIL]")
	// Cards first so a card number is not masked as a phone.
	out = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	return phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
}

// RedactingStore masks PII in every text field before it reaches the
// wrapped store.
type RedactingStore struct {
	Store
}

// NewRedactingStore wraps inner.
func NewRedactingStore(inner Store) *RedactingStore {
	return &RedactingStore{Store: inner}
}

func (s *RedactingStore) Record(ctx context.Context, e Entry) error {
	e.UserQuery = RedactPII(e.UserQuery)
	e.AIReply = RedactPII(e.AIReply)
	if e.SearchResult != nil {
		redacted := RedactPII(*e.SearchResult)
		e.SearchResult = &redacted
	}
	return s.Store.Record(ctx, e)
}
