// Package store provides the SQLite storage layer for the post index.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vaultarc/postarc/internal/config"
)

// DB wraps a SQLite connection. Writes are serialized through mu; SQLite
// handles concurrent readers on its own once WAL is enabled.
type DB struct {
	conn *sql.DB
	mu   sync.Mutex // serialize writes
}

// Open opens or creates the database at the configured path.
func Open() (*DB, error) {
	return OpenPath(config.DBPath())
}

// OpenPath opens or creates the database at the given path.
func OpenPath(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// GetMeta retrieves a value from index_meta. Returns empty string and
// false if the key is not set.
func (db *DB) GetMeta(key string) (string, bool) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM index_meta WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// SetMeta upserts a value in index_meta.
func (db *DB) SetMeta(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		`INSERT INTO index_meta (key, value, updated_at)
		 VALUES (?, ?, unixepoch())
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS archive_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			platform TEXT NOT NULL,
			post_id TEXT DEFAULT '',
			url TEXT DEFAULT '',
			title TEXT DEFAULT '',
			author TEXT DEFAULT '',
			handle TEXT DEFAULT '',
			excerpt TEXT DEFAULT '',
			tags TEXT DEFAULT '[]',
			likes INTEGER DEFAULT -1,
			comments INTEGER DEFAULT -1,
			shares INTEGER DEFAULT -1,
			views INTEGER DEFAULT -1,
			media_count INTEGER DEFAULT 0,
			comment_count INTEGER DEFAULT 0,
			series_id TEXT DEFAULT '',
			is_reblog INTEGER DEFAULT 0,
			published TEXT DEFAULT '',
			archived TEXT DEFAULT '',
			content_hash TEXT NOT NULL,
			modified REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_posts_platform ON archive_posts(platform)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_posts_series ON archive_posts(series_id)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_posts_published ON archive_posts(published)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_posts_path_hash ON archive_posts(path, content_hash)`,

		// External-content FTS index over the searchable text columns.
		// Triggers keep it in lockstep with archive_posts so write paths
		// never need to touch it directly.
		`CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			title, author, handle, excerpt, tags,
			content='archive_posts', content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS posts_fts_insert AFTER INSERT ON archive_posts BEGIN
			INSERT INTO posts_fts(rowid, title, author, handle, excerpt, tags)
			VALUES (new.id, new.title, new.author, new.handle, new.excerpt, new.tags);
		END`,
		`CREATE TRIGGER IF NOT EXISTS posts_fts_delete AFTER DELETE ON archive_posts BEGIN
			INSERT INTO posts_fts(posts_fts, rowid, title, author, handle, excerpt, tags)
			VALUES ('delete', old.id, old.title, old.author, old.handle, old.excerpt, old.tags);
		END`,
		`CREATE TRIGGER IF NOT EXISTS posts_fts_update AFTER UPDATE ON archive_posts BEGIN
			INSERT INTO posts_fts(posts_fts, rowid, title, author, handle, excerpt, tags)
			VALUES ('delete', old.id, old.title, old.author, old.handle, old.excerpt, old.tags);
			INSERT INTO posts_fts(rowid, title, author, handle, excerpt, tags)
			VALUES (new.id, new.title, new.author, new.handle, new.excerpt, new.tags);
		END`,

		`CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
