package interactionlog

import (
	"context"
	"strings"
)

// MemoryPath selects the in-process store instead of a file.
const MemoryPath = ":memory:"

// NewStore picks a backend: postgres for a postgres:// DATABASE_URL, SQLite
// for sqlite:// or a *.db path, the in-process store for MemoryPath, and the
// JSON file otherwise.
func NewStore(ctx context.Context, databaseURL, path string) (Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	}

	path = strings.TrimSpace(path)
	switch {
	case path == MemoryPath:
		return NewInMemoryStore(), nil
	case strings.HasSuffix(path, ".db"), strings.HasSuffix(path, ".sqlite"):
		return NewSQLiteStore(ctx, path)
	default:
		return NewJSONFileStore(path), nil
	}
}
