// Package store persists analyses, per-domain statistics and user
// preferences in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vango-dev/metalens/internal/errors"
)

// DB wraps a sql.DB with metalens-specific queries.
type DB struct {
	*sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(errors.CodeStoreOpen).WithDetail("creating database directory").Wrap(err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.New(errors.CodeStoreOpen).Wrap(err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, errors.New(errors.CodeStoreOpen).WithDetail("pinging database " + path).Wrap(err)
	}

	return newDB(sqlDB, path)
}

// OpenMemory creates an in-memory database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errors.New(errors.CodeStoreOpen).Wrap(err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	return newDB(sqlDB, ":memory:")
}

func newDB(sqlDB *sql.DB, path string) (*DB, error) {
	d := &DB{DB: sqlDB, path: path, now: time.Now}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, errors.New(errors.CodeStoreOpen).WithDetail("running migrations").Wrap(err)
	}
	return d, nil
}

// Path returns the database location.
func (d *DB) Path() string { return d.path }

func (d *DB) migrate() error {
	if _, err := d.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    domain TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    overall_score INTEGER NOT NULL DEFAULT 0,
    title_score INTEGER NOT NULL DEFAULT 0,
    description_score INTEGER NOT NULL DEFAULT 0,
    og_score INTEGER NOT NULL DEFAULT 0,
    twitter_score INTEGER NOT NULL DEFAULT 0,
    has_title INTEGER NOT NULL DEFAULT 0,
    has_description INTEGER NOT NULL DEFAULT 0,
    has_keywords INTEGER NOT NULL DEFAULT 0,
    has_og_tags INTEGER NOT NULL DEFAULT 0,
    has_twitter_cards INTEGER NOT NULL DEFAULT 0,
    analyzed_at TEXT NOT NULL,
    elapsed_ms INTEGER NOT NULL DEFAULT 0,
    result_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_domain ON analyses(domain);
CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at);

CREATE TABLE IF NOT EXISTS domain_stats (
    domain TEXT PRIMARY KEY,
    total_analyses INTEGER NOT NULL DEFAULT 0,
    last_analysis TEXT NOT NULL,
    avg_overall_score REAL NOT NULL DEFAULT 0,
    avg_title_score REAL NOT NULL DEFAULT 0,
    avg_description_score REAL NOT NULL DEFAULT 0,
    avg_og_score REAL NOT NULL DEFAULT 0,
    avg_twitter_score REAL NOT NULL DEFAULT 0,
    best_score INTEGER NOT NULL DEFAULT 0,
    worst_score INTEGER NOT NULL DEFAULT 100,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prefs (
    owner TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (owner, key)
);
`

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func queryError(op string, err error) error {
	return errors.New(errors.CodeStoreQuery).WithDetail(op).Wrap(err)
}
