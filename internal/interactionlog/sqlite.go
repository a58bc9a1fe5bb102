package interactionlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the interaction log in an embedded database file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
	CREATE TABLE IF NOT EXISTS interactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		logged_at TEXT NOT NULL,
		mode TEXT NOT NULL,
		user_query TEXT NOT NULL,
		ai_reply TEXT NOT NULL,
		search_result TEXT
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	e = stamp(e, time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, logged_at, mode, user_query, ai_reply, search_result)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.Mode, e.UserQuery, e.AIReply, nullString(e.SearchResult),
	)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, logged_at, mode, user_query, ai_reply, search_result FROM interactions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			search sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Mode, &e.UserQuery, &e.AIReply, &search); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		if search.Valid {
			v := search.String
			e.SearchResult = &v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM interactions`); err != nil {
		return fmt.Errorf("clear interactions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
