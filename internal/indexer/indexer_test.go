package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vaultarc/postarc/internal/store"
	"github.com/vaultarc/postarc/internal/vault"
)

const tweet = `---
platform: twitter
author: someone
likes: 3
---
Tweet body.
`

func fixtureVault(t *testing.T, files map[string]string) (*vault.FSVault, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return vault.New(root), root
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReindexFullAndIncremental(t *testing.T) {
	t.Setenv("PARC_DATA_DIR", t.TempDir())

	v, root := fixtureVault(t, map[string]string{
		"X/a.md":     tweet,
		"X/b.md":     tweet,
		"notes/n.md": "plain note without frontmatter\n",
	})
	db := openDB(t)

	stats, err := Reindex(db, v, false)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if stats.TotalFiles != 3 || stats.NewlyIndexed != 2 || stats.NonPosts != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PostsInIndex != 2 {
		t.Errorf("posts in index = %d", stats.PostsInIndex)
	}

	// nothing changed: everything skips
	stats, err = Reindex(db, v, false)
	if err != nil {
		t.Fatalf("second reindex: %v", err)
	}
	if stats.SkippedUnchanged != 2 || stats.NewlyIndexed != 0 {
		t.Errorf("incremental stats = %+v", stats)
	}

	// one file changes: only it is re-parsed
	changed := tweet + "\nEdited.\n"
	if err := os.WriteFile(filepath.Join(root, "X", "a.md"), []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}
	stats, err = Reindex(db, v, false)
	if err != nil {
		t.Fatalf("third reindex: %v", err)
	}
	if stats.NewlyIndexed != 1 || stats.SkippedUnchanged != 1 {
		t.Errorf("changed-file stats = %+v", stats)
	}
}

func TestReindexSpansWindows(t *testing.T) {
	t.Setenv("PARC_DATA_DIR", t.TempDir())

	files := make(map[string]string)
	for i := 0; i < 45; i++ {
		files[filepath.ToSlash(filepath.Join("X", string(rune('a'+i%26))+string(rune('0'+i/26))+".md"))] = tweet
	}
	v, _ := fixtureVault(t, files)
	db := openDB(t)

	var calls int
	stats, err := ReindexWithProgress(db, v, false, func(current, total int, path string) {
		calls++
		if total != 45 {
			t.Errorf("total = %d", total)
		}
	})
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if stats.NewlyIndexed != 45 || stats.PostsInIndex != 45 {
		t.Errorf("stats = %+v", stats)
	}
	if calls != 45 {
		t.Errorf("progress calls = %d, want 45", calls)
	}
}

func TestReindexPrunesDeletedFiles(t *testing.T) {
	t.Setenv("PARC_DATA_DIR", t.TempDir())

	v, root := fixtureVault(t, map[string]string{
		"X/keep.md": tweet,
		"X/gone.md": tweet,
	})
	db := openDB(t)

	if _, err := Reindex(db, v, false); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if err := os.Remove(filepath.Join(root, "X", "gone.md")); err != nil {
		t.Fatal(err)
	}

	stats, err := Reindex(db, v, false)
	if err != nil {
		t.Fatalf("reindex after delete: %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("removed = %d", stats.Removed)
	}
	if got, _ := db.GetByPath("X/gone.md"); got != nil {
		t.Error("deleted file still indexed")
	}
	if got, _ := db.GetByPath("X/keep.md"); got == nil {
		t.Error("surviving file lost")
	}
}

func TestReindexForceRebuilds(t *testing.T) {
	t.Setenv("PARC_DATA_DIR", t.TempDir())

	v, _ := fixtureVault(t, map[string]string{"X/a.md": tweet})
	db := openDB(t)

	if _, err := Reindex(db, v, false); err != nil {
		t.Fatal(err)
	}
	stats, err := Reindex(db, v, true)
	if err != nil {
		t.Fatalf("force reindex: %v", err)
	}
	if stats.SkippedUnchanged != 0 || stats.NewlyIndexed != 1 {
		t.Errorf("force stats = %+v", stats)
	}
}

func TestIndexSingleFile(t *testing.T) {
	v, root := fixtureVault(t, map[string]string{"X/a.md": tweet})
	db := openDB(t)

	if err := IndexSingleFile(db, v, "X/a.md"); err != nil {
		t.Fatalf("index single: %v", err)
	}
	got, err := db.GetByPath("X/a.md")
	if err != nil || got == nil {
		t.Fatalf("row = %v, err = %v", got, err)
	}
	if got.Likes != 3 {
		t.Errorf("likes = %d", got.Likes)
	}

	// the file degrades to a non-post: its row must go away
	if err := os.WriteFile(filepath.Join(root, "X", "a.md"), []byte("no longer a post\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := IndexSingleFile(db, v, "X/a.md"); err != nil {
		t.Fatalf("re-index degraded file: %v", err)
	}
	if got, _ := db.GetByPath("X/a.md"); got != nil {
		t.Error("non-post row must be removed")
	}
}

func TestGetStatsLiveFallback(t *testing.T) {
	t.Setenv("PARC_DATA_DIR", t.TempDir())

	db := openDB(t)
	result := GetStats(db)
	if result["status"] != "live query (no saved stats)" {
		t.Errorf("status = %v", result["status"])
	}
}
