package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vaultarc/postarc/internal/postparse"
)

// IndexRow pairs an index entry with the bookkeeping the reindexer
// tracks per file.
type IndexRow struct {
	Entry       *postparse.PostIndexEntry
	ContentHash string
	Modified    float64 // mtime, unix seconds
}

const upsertSQL = `
	INSERT INTO archive_posts (path, platform, post_id, url, title, author, handle,
		excerpt, tags, likes, comments, shares, views, media_count, comment_count,
		series_id, is_reblog, published, archived, content_hash, modified)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		platform = excluded.platform, post_id = excluded.post_id,
		url = excluded.url, title = excluded.title,
		author = excluded.author, handle = excluded.handle,
		excerpt = excluded.excerpt, tags = excluded.tags,
		likes = excluded.likes, comments = excluded.comments,
		shares = excluded.shares, views = excluded.views,
		media_count = excluded.media_count, comment_count = excluded.comment_count,
		series_id = excluded.series_id, is_reblog = excluded.is_reblog,
		published = excluded.published, archived = excluded.archived,
		content_hash = excluded.content_hash, modified = excluded.modified`

func upsertArgs(row IndexRow) []interface{} {
	e := row.Entry
	return []interface{}{
		e.Path, string(e.Platform), e.ID, e.URL, e.Title,
		e.AuthorName, e.AuthorHandle, e.Excerpt, marshalTags(e.Tags),
		e.Likes, e.Comments, e.Shares, e.Views,
		e.MediaCount, e.CommentCount, e.SeriesID, boolInt(e.IsReblog),
		e.Published, e.Archived, row.ContentHash, row.Modified,
	}
}

// UpsertEntry inserts or replaces the index row for a single file.
func (db *DB) UpsertEntry(row IndexRow) error {
	if row.Entry == nil {
		return fmt.Errorf("nil index entry")
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(upsertSQL, upsertArgs(row)...); err != nil {
		return fmt.Errorf("upsert %s: %w", row.Entry.Path, err)
	}
	return nil
}

// BulkUpsert writes a batch of index rows in a single transaction.
func (db *DB) BulkUpsert(rows []IndexRow) error {
	if len(rows) == 0 {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if row.Entry == nil {
			return fmt.Errorf("nil index entry at %d", i)
		}
		if _, err := stmt.Exec(upsertArgs(row)...); err != nil {
			return fmt.Errorf("upsert %s: %w", row.Entry.Path, err)
		}
	}

	return tx.Commit()
}

// DeleteByPath removes the index row for a vault file.
func (db *DB) DeleteByPath(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec("DELETE FROM archive_posts WHERE path = ?", path)
	return err
}

// DeleteAllPosts clears the index. Used for force reindex.
func (db *DB) DeleteAllPosts() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec("DELETE FROM archive_posts")
	return err
}

// GetContentHashes returns a map of path → content_hash for every
// indexed file. Used for incremental reindexing; the covering index
// idx_archive_posts_path_hash makes this an index-only scan.
func (db *DB) GetContentHashes() (map[string]string, error) {
	rows, err := db.conn.Query("SELECT path, content_hash FROM archive_posts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// PostCount returns the number of indexed posts.
func (db *DB) PostCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM archive_posts").Scan(&count)
	return count, err
}

// PlatformCounts returns post counts grouped by platform.
func (db *DB) PlatformCounts() (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT platform, COUNT(*) FROM archive_posts GROUP BY platform")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var platform string
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, err
		}
		counts[platform] = n
	}
	return counts, rows.Err()
}

const entryColumns = `path, platform, post_id, url, title, author, handle,
	excerpt, tags, likes, comments, shares, views, media_count, comment_count,
	series_id, is_reblog, published, archived`

// GetByPath returns the index entry for a vault file, or nil if the
// file is not indexed.
func (db *DB) GetByPath(path string) (*postparse.PostIndexEntry, error) {
	row := db.conn.QueryRow(
		"SELECT "+entryColumns+" FROM archive_posts WHERE path = ?", path)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ListRecent returns the most recently published posts, optionally
// restricted to one platform. Posts with no published date sort last.
func (db *DB) ListRecent(platform string, limit int) ([]*postparse.PostIndexEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := "SELECT " + entryColumns + ` FROM archive_posts`
	var args []interface{}
	if platform != "" {
		query += " WHERE platform = ?"
		args = append(args, platform)
	}
	query += ` ORDER BY published = '' ASC, published DESC, modified DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// PostsBySeries returns all posts in a series, oldest first.
func (db *DB) PostsBySeries(seriesID string) ([]*postparse.PostIndexEntry, error) {
	rows, err := db.conn.Query(
		"SELECT "+entryColumns+` FROM archive_posts
		 WHERE series_id = ? ORDER BY published ASC, path ASC`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*postparse.PostIndexEntry, error) {
	var e postparse.PostIndexEntry
	var platform, tags string
	var isReblog int
	if err := row.Scan(
		&e.Path, &platform, &e.ID, &e.URL, &e.Title, &e.AuthorName, &e.AuthorHandle,
		&e.Excerpt, &tags, &e.Likes, &e.Comments, &e.Shares, &e.Views,
		&e.MediaCount, &e.CommentCount, &e.SeriesID, &isReblog,
		&e.Published, &e.Archived,
	); err != nil {
		return nil, err
	}
	e.Platform = postparse.Platform(platform)
	e.Tags = ParseTags(tags)
	e.IsReblog = isReblog != 0
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*postparse.PostIndexEntry, error) {
	var entries []*postparse.PostIndexEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ParseTags parses the JSON tags column into a slice.
func ParseTags(tagsJSON string) []string {
	var tags []string
	json.Unmarshal([]byte(tagsJSON), &tags)
	return tags
}

func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
