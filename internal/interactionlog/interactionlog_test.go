package interactionlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Record(ctx, Entry{Mode: "voice", UserQuery: "what is go", AIReply: "A language.", SearchResult: strPtr("A language.")}))
	require.NoError(t, s.Record(ctx, Entry{UserQuery: "tell me a joke", AIReply: "No."}))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "voice", entries[0].Mode)
	assert.Equal(t, "what is go", entries[0].UserQuery)
	require.NotNil(t, entries[0].SearchResult)
	assert.Equal(t, "A language.", *entries[0].SearchResult)
	assert.NotEmpty(t, entries[0].ID)
	_, err = time.ParseInLocation(TimestampLayout, entries[0].Timestamp, time.Local)
	assert.NoError(t, err)

	assert.Equal(t, "text", entries[1].Mode, "mode defaults to text")
	assert.Nil(t, entries[1].SearchResult)

	require.NoError(t, s.Clear(ctx))
	entries, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestJSONFileStore(t *testing.T) {
	exerciseStore(t, NewJSONFileStore(filepath.Join(t.TempDir(), "zoya_logs.json")))
}

func TestJSONFileStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoya_logs.json")
	s := NewJSONFileStore(path)
	s.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local) }

	require.NoError(t, s.Record(context.Background(), Entry{ID: "fixed", UserQuery: "नमस्ते <b>", AIReply: "hi"}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "[\n    {"), "entries are indented with four spaces: %s", text)
	assert.Contains(t, text, `"timestamp": "2026-03-04 05:06:07"`)
	assert.Contains(t, text, `"search_result": null`)
	assert.Contains(t, text, "नमस्ते <b>", "non-ascii and markup are written verbatim")
}

func TestJSONFileStoreRecoversFromCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "zoya_logs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewJSONFileStore(path)
	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.Record(ctx, Entry{UserQuery: "q", AIReply: "a"}))
	entries, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONFileStoreReadsLegacyEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoya_logs.json")
	legacy := `[{"timestamp": "2025-01-01 10:00:00", "mode": "text", "user_query": "hi", "ai_reply": "hello", "search_result": null}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	entries, err := NewJSONFileStore(path).List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ID)
	assert.Equal(t, "hello", entries[0].AIReply)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "zoya.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("ZOYA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ZOYA_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), url)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStore(ctx, "", MemoryPath)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore{}, s)

	s, err = NewStore(ctx, "", filepath.Join(dir, "log.json"))
	require.NoError(t, err)
	assert.IsType(t, &JSONFileStore{}, s)

	s, err = NewStore(ctx, "sqlite://"+filepath.Join(dir, "a.db"), "")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewStore(ctx, "", filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())
}

func TestRedactPII(t *testing.T) {
	out := RedactPII("Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242.")
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		assert.Contains(t, out, marker)
	}
	assert.Equal(t, "what is go", RedactPII("what is go"))
}

func TestRedactingStore(t *testing.T) {
	inner := NewInMemoryStore()
	s := NewRedactingStore(inner)
	exerciseStore(t, s)

	ctx := context.Background()
	require.NoError(t, s.Record(ctx, Entry{
		UserQuery:    "mail sam@example.com",
		AIReply:      "ok",
		SearchResult: strPtr("call +1 (555) 123-9876"),
	}))
	entries, err := inner.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mail [REDACTED_EMAIL]", entries[0].UserQuery)
	assert.Equal(t, "call [REDACTED_PHONE]", *entries[0].SearchResult)
}
