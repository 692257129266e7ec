package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vaultarc/postarc/internal/postparse"
	"github.com/vaultarc/postarc/internal/store"
	"github.com/vaultarc/postarc/internal/vault"
)

func TestWalkDirs_SkipsMetaDirs(t *testing.T) {
	root := t.TempDir()

	mkdirAll(t, filepath.Join(root, "Archives", "Instagram"))
	mkdirAll(t, filepath.Join(root, ".git"))
	mkdirAll(t, filepath.Join(root, ".obsidian"))
	mkdirAll(t, filepath.Join(root, ".parc"))

	got := walkDirs(root)
	relSet := make(map[string]bool, len(got))
	for _, p := range got {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("rel path: %v", err)
		}
		relSet[filepath.ToSlash(rel)] = true
	}

	if !relSet["."] {
		t.Fatalf("expected vault root in watched dirs")
	}
	if !relSet["Archives"] || !relSet["Archives/Instagram"] {
		t.Fatalf("expected archive dirs to be watched, got: %#v", relSet)
	}
	for _, skipped := range []string{".git", ".obsidian", ".parc"} {
		if relSet[skipped] {
			t.Fatalf("expected %s to be skipped, got: %#v", skipped, relSet)
		}
	}
}

func TestRelativePath_NormalizesToSlash(t *testing.T) {
	root := filepath.Join("tmp", "vault")
	full := filepath.Join(root, "Archives", "alpha.md")
	got := relativePath(full, root)
	if got != "Archives/alpha.md" {
		t.Fatalf("relativePath = %q, want %q", got, "Archives/alpha.md")
	}
}

func TestRemoveFromIndex_DeletesIndexedPath(t *testing.T) {
	db := openDB(t)

	const relPath = "Archives/renamed.md"
	insertEntry(t, db, relPath)

	root := t.TempDir()
	removeFromIndex(db, filepath.Join(root, filepath.FromSlash(relPath)), root)

	count, err := db.PostCount()
	if err != nil {
		t.Fatalf("post count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected entry to be removed, count=%d", count)
	}
}

func TestReindexFiles_MissingPathDeletesIndexedEntry(t *testing.T) {
	db := openDB(t)

	const relPath = "Archives/missing.md"
	insertEntry(t, db, relPath)

	root := t.TempDir()
	v := vault.New(root)
	missingAbs := filepath.Join(root, filepath.FromSlash(relPath))
	reindexFiles(db, v, []string{missingAbs})

	count, err := db.PostCount()
	if err != nil {
		t.Fatalf("post count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected stale entry to be removed, count=%d", count)
	}
}

func TestReindexFiles_IndexesChangedFile(t *testing.T) {
	db := openDB(t)

	root := t.TempDir()
	mkdirAll(t, filepath.Join(root, "X"))
	abs := filepath.Join(root, "X", "a.md")
	content := "---\nplatform: twitter\nauthor: someone\n---\nBody.\n"
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	reindexFiles(db, vault.New(root), []string{abs})

	got, err := db.GetByPath("X/a.md")
	if err != nil || got == nil {
		t.Fatalf("row = %v, err = %v", got, err)
	}
	if got.Platform != postparse.PlatformTwitter {
		t.Errorf("platform = %q", got.Platform)
	}
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertEntry(t *testing.T, db *store.DB, relPath string) {
	t.Helper()
	row := store.IndexRow{
		Entry: &postparse.PostIndexEntry{
			Path:     relPath,
			Platform: postparse.PlatformPost,
			Likes:    -1, Comments: -1, Shares: -1, Views: -1,
		},
		ContentHash: "hash",
		Modified:    1,
	}
	if err := db.UpsertEntry(row); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
}

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
