package store

import (
	"fmt"
	"strings"
)

// SearchResult is one keyword-search hit.
type SearchResult struct {
	Path      string   `json:"path"`
	Platform  string   `json:"platform"`
	Title     string   `json:"title,omitempty"`
	Author    string   `json:"author,omitempty"`
	Handle    string   `json:"handle,omitempty"`
	Excerpt   string   `json:"excerpt,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Published string   `json:"published,omitempty"`
	Score     float64  `json:"score"`
}

// SearchOptions configures a keyword search.
type SearchOptions struct {
	TopK     int
	Platform string
	Author   string
}

// Search runs an FTS5 keyword search over the post index, ranked by
// bm25. Platform and author filters narrow the candidate set before
// the limit applies.
func (db *DB) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	terms := ExtractSearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.TopK > 100 {
		opts.TopK = 100
	}

	// Quote each term so user input can never be parsed as FTS5 syntax.
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	match := strings.Join(quoted, " OR ")

	query = `
		SELECT p.path, p.platform, p.title, p.author, p.handle, p.excerpt,
			p.tags, p.published, bm25(posts_fts) AS rank
		FROM posts_fts f
		JOIN archive_posts p ON p.id = f.rowid
		WHERE posts_fts MATCH ?`
	args := []interface{}{match}

	if opts.Platform != "" {
		query += " AND p.platform = ?"
		args = append(args, strings.ToLower(opts.Platform))
	}
	if opts.Author != "" {
		query += " AND (LOWER(p.author) LIKE LOWER(?) OR LOWER(p.handle) LIKE LOWER(?))"
		pattern := "%" + opts.Author + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY rank LIMIT ?"
	args = append(args, opts.TopK)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var tags string
		var rank float64
		if err := rows.Scan(
			&r.Path, &r.Platform, &r.Title, &r.Author, &r.Handle,
			&r.Excerpt, &tags, &r.Published, &rank,
		); err != nil {
			return nil, err
		}
		r.Tags = ParseTags(tags)
		// bm25 returns lower-is-better negative scores; flip the sign so
		// callers see higher-is-better.
		r.Score = round3(-rank)
		results = append(results, r)
	}
	return results, rows.Err()
}

// searchStopWords are common English words filtered from search terms.
var searchStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true,
	"of": true, "in": true, "to": true, "for": true, "with": true,
	"on": true, "at": true, "from": true, "by": true, "about": true,
	"and": true, "or": true, "but": true, "not": true,
	"what": true, "how": true, "when": true, "where": true, "which": true,
	"this": true, "that": true, "these": true, "those": true,
	"my": true, "your": true, "their": true, "it": true, "its": true,
	"find": true, "search": true, "show": true, "posts": true, "post": true,
}

// ExtractSearchTerms extracts meaningful terms from a natural language
// query, filtering stop words and fragments. Exported for MCP and CLI.
func ExtractSearchTerms(query string) []string {
	words := strings.Fields(query)
	var terms []string
	seen := make(map[string]bool)
	for _, w := range words {
		lower := strings.ToLower(w)
		lower = strings.Trim(lower, ".,;:!?\"'()[]{}")
		if len(lower) < 2 {
			continue
		}
		if searchStopWords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		terms = append(terms, lower)
	}
	return terms
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}
