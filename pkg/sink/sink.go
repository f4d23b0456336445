// Package sink persists retrieved records. The SQLite sink upserts posts
// keyed by their deduplication identity so repeated runs refresh counts
// instead of accumulating duplicates.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
)

// Sink receives the records of a completed run.
type Sink interface {
	Store(ctx context.Context, records []models.Post) error
	Close() error
}

// Noop discards records. Used when no database path is configured.
type Noop struct{}

func (Noop) Store(context.Context, []models.Post) error { return nil }
func (Noop) Close() error                               { return nil }

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	identity      TEXT PRIMARY KEY,
	post_id       TEXT,
	shortcode     TEXT,
	url           TEXT,
	caption       TEXT,
	view_count    INTEGER,
	like_count    INTEGER,
	comment_count INTEGER,
	posted_at     TEXT,
	posted_at_known INTEGER,
	author        TEXT,
	follower_count INTEGER,
	thumbnail_url TEXT,
	stored_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author);
`

// SQLite persists records to a local database file.
type SQLite struct {
	db     *sql.DB
	logger logger.Logger
}

// OpenSQLite opens (creating if necessary) the database at path and
// applies the schema. WAL mode and a busy timeout keep concurrent runs
// from tripping over each other.
func OpenSQLite(path string, log logger.Logger) (*SQLite, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sink: mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sink: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sink: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sink: schema: %w", err)
	}

	return &SQLite{db: db, logger: log}, nil
}

// OpenMemory opens an in-memory sink for tests.
func OpenMemory(log logger.Logger) (*SQLite, error) {
	s, err := OpenSQLite(":memory:", log)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// Store upserts all records in one transaction.
func (s *SQLite) Store(ctx context.Context, records []models.Post) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sink: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (
			identity, post_id, shortcode, url, caption,
			view_count, like_count, comment_count,
			posted_at, posted_at_known, author, follower_count,
			thumbnail_url, stored_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			caption = excluded.caption,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			posted_at = excluded.posted_at,
			posted_at_known = excluded.posted_at_known,
			follower_count = excluded.follower_count,
			thumbnail_url = excluded.thumbnail_url,
			stored_at = excluded.stored_at`)
	if err != nil {
		return fmt.Errorf("sink: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range records {
		known := 0
		if p.PostedAtKnown {
			known = 1
		}
		if _, err := stmt.ExecContext(ctx,
			p.Identity(), p.ID, p.Shortcode, p.URL, p.Caption,
			p.ViewCount, p.LikeCount, p.CommentCount,
			p.PostedAt.UTC().Format(time.RFC3339), known,
			p.Author.Username, p.Author.FollowerCount,
			p.ThumbnailURL, now,
		); err != nil {
			return fmt.Errorf("sink: upsert %s: %w", p.Identity(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sink: commit: %w", err)
	}

	s.logger.DebugWithFields("records stored", map[string]interface{}{
		"count": len(records),
	})
	return nil
}

// Count returns the number of stored posts.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("sink: count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
