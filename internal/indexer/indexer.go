// Package indexer maintains the SQLite post index from vault contents.
package indexer

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vaultarc/postarc/internal/config"
	"github.com/vaultarc/postarc/internal/pipeline"
	"github.com/vaultarc/postarc/internal/postparse"
	"github.com/vaultarc/postarc/internal/store"
	"github.com/vaultarc/postarc/internal/vault"
)

// Version is set by cmd/parc to record which parc version performed the
// reindex.
var Version string

// Stats holds reindex statistics.
type Stats struct {
	TotalFiles       int    `json:"total_files"`
	NewlyIndexed     int    `json:"newly_indexed"`
	SkippedUnchanged int    `json:"skipped_unchanged"`
	NonPosts         int    `json:"non_posts"`
	Removed          int    `json:"removed"`
	Errors           int    `json:"errors"`
	PostsInIndex     int    `json:"posts_in_index"`
	Timestamp        string `json:"timestamp"`
}

// ProgressFunc is called during indexing to report progress. current is
// the number of files processed so far, total is the total count, and
// path is the file just processed.
type ProgressFunc func(current, total int, path string)

// Reindex walks the vault, builds index entries through the windowed
// batch pipeline, and stores them.
func Reindex(db *store.DB, v *vault.FSVault, force bool) (*Stats, error) {
	return ReindexWithProgress(db, v, force, nil)
}

// ReindexWithProgress is like Reindex but accepts an optional progress
// callback.
func ReindexWithProgress(db *store.DB, v *vault.FSVault, force bool, progress ProgressFunc) (*Stats, error) {
	paths, err := v.List()
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}

	stats := &Stats{
		TotalFiles: len(paths),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var existingHashes map[string]string
	if force {
		if err := db.DeleteAllPosts(); err != nil {
			return nil, fmt.Errorf("clear existing data: %w", err)
		}
	} else {
		existingHashes, err = db.GetContentHashes()
		if err != nil {
			existingHashes = make(map[string]string)
		}
	}

	seen := make(map[string]bool, len(paths))
	for _, rel := range paths {
		seen[rel] = true
	}

	// Unchanged files are skipped inside the window, before the parse.
	var skip func(postparse.Document) bool
	if !force {
		skip = func(doc postparse.Document) bool {
			existing, ok := existingHashes[doc.Path]
			return ok && existing == sha256Hash(doc.Text)
		}
	}

	var rows []store.IndexRow
	processed := 0
	for batch := range pipeline.BuildIndex(v, paths, skip) {
		for _, result := range batch {
			processed++
			switch {
			case result.Err != nil:
				fmt.Fprintf(os.Stderr, "  [ERROR] %s: %v\n", result.Doc.Path, result.Err)
				stats.Errors++
			case result.Skipped:
				stats.SkippedUnchanged++
			case result.Entry == nil:
				// Not a parseable post (anymore); drop any stale row.
				stats.NonPosts++
				if err := db.DeleteByPath(result.Doc.Path); err != nil {
					fmt.Fprintf(os.Stderr, "  [ERROR] delete %s: %v\n", result.Doc.Path, err)
					stats.Errors++
				}
			default:
				rows = append(rows, store.IndexRow{
					Entry:       result.Entry,
					ContentHash: sha256Hash(result.Doc.Text),
					Modified:    float64(result.Doc.Created.Unix()),
				})
				stats.NewlyIndexed++
				if progress != nil {
					progress(processed, stats.TotalFiles, result.Doc.Path)
				} else {
					fmt.Fprintf(os.Stderr, "  [%d/%d] Indexed: %s\n", processed, stats.TotalFiles, result.Doc.Path)
				}
			}
		}
	}

	if err := db.BulkUpsert(rows); err != nil {
		return nil, fmt.Errorf("store entries: %w", err)
	}

	// Prune rows for files that no longer exist in the vault.
	if !force {
		for rel := range existingHashes {
			if seen[rel] {
				continue
			}
			if err := db.DeleteByPath(rel); err != nil {
				fmt.Fprintf(os.Stderr, "  [ERROR] prune %s: %v\n", rel, err)
				stats.Errors++
				continue
			}
			stats.Removed++
		}
	}

	count, _ := db.PostCount()
	stats.PostsInIndex = count

	_ = db.SetMeta("last_reindex_time", time.Now().UTC().Format(time.RFC3339))
	if Version != "" {
		_ = db.SetMeta("parc_version", Version)
	}

	saveStats(stats)
	return stats, nil
}

// IndexSingleFile re-indexes one vault file. A file that no longer
// parses as a post is removed from the index rather than erroring,
// matching the assembler's null-not-error contract.
func IndexSingleFile(db *store.DB, v *vault.FSVault, rel string) error {
	doc, err := v.Read(rel)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	entry := postparse.BuildIndexEntry(doc, v.Hints(rel, doc.Text))
	if entry == nil {
		return db.DeleteByPath(rel)
	}
	return db.UpsertEntry(store.IndexRow{
		Entry:       entry,
		ContentHash: sha256Hash(doc.Text),
		Modified:    float64(doc.Created.Unix()),
	})
}

// GetStats reads the last saved index stats, falling back to live
// counts when no stats file exists.
func GetStats(db *store.DB) map[string]interface{} {
	statsPath := filepath.Join(config.DataDir(), "index_stats.json")
	data, err := os.ReadFile(statsPath)
	if err != nil {
		count, cerr := db.PostCount()
		if cerr != nil {
			return map[string]interface{}{
				"status": "no index found",
				"hint":   "run 'parc reindex' first",
			}
		}
		result := map[string]interface{}{
			"posts_in_index": count,
			"status":         "live query (no saved stats)",
		}
		enrichStats(db, result)
		return result
	}

	var result map[string]interface{}
	json.Unmarshal(data, &result)
	enrichStats(db, result)
	return result
}

// enrichStats adds database file size, per-platform counts, and the
// last reindex time.
func enrichStats(db *store.DB, result map[string]interface{}) {
	if counts, err := db.PlatformCounts(); err == nil && len(counts) > 0 {
		result["platforms"] = counts
	}
	if t, ok := db.GetMeta("last_reindex_time"); ok {
		result["last_reindex"] = t
	}

	dbPath := config.DBPath()
	if info, err := os.Stat(dbPath); err == nil {
		sizeMB := float64(info.Size()) / (1024 * 1024)
		result["db_size_mb"] = fmt.Sprintf("%.1f", sizeMB)
		result["db_path"] = filepath.Base(dbPath)
	}
}

func sha256Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

func saveStats(stats *Stats) {
	dataDir := config.DataDir()
	os.MkdirAll(dataDir, 0o755)
	data, _ := json.MarshalIndent(stats, "", "  ")
	os.WriteFile(filepath.Join(dataDir, "index_stats.json"), data, 0o644)
}
