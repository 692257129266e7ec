// Package watcher monitors a vault for file changes and keeps the post
// index current.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vaultarc/postarc/internal/config"
	"github.com/vaultarc/postarc/internal/indexer"
	"github.com/vaultarc/postarc/internal/store"
	"github.com/vaultarc/postarc/internal/vault"
)

// Watch starts watching the vault for changes and re-indexes modified
// files. It blocks until the watcher channel closes or an unrecoverable
// error occurs.
func Watch(db *store.DB, v *vault.FSVault) error {
	vaultPath := v.Root()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Add all directories (not skipped ones)
	dirs := walkDirs(vaultPath)
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", d, err)
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %d directories in %s\n", len(dirs), vaultPath)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop.\n\n")

	// Debounce: collect changed files over a window before re-parsing
	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)

	const debounceDelay = 2 * time.Second

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		if len(paths) == 0 {
			return
		}

		fmt.Fprintf(os.Stderr, "  Re-indexing %d changed file(s)...\n", len(paths))
		reindexFiles(db, v, paths)
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			// Only care about markdown files (skip meta-docs)
			if !strings.HasSuffix(event.Name, ".md") || config.SkipFiles[filepath.Base(event.Name)] {
				// But watch new directories
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						name := filepath.Base(event.Name)
						if !config.SkipDirs[name] {
							if err := w.Add(event.Name); err != nil {
								fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", event.Name, err)
							}
						}
					}
				}
				continue
			}

			if event.Has(fsnotify.Rename) {
				// fsnotify rename events refer to the old path. Remove that entry
				// from the index so stale paths don't survive file moves.
				removeFromIndex(db, event.Name, vaultPath)
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				mu.Lock()
				pending[event.Name] = true
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDelay, flush)
				mu.Unlock()
			}

			if event.Has(fsnotify.Remove) {
				removeFromIndex(db, event.Name, vaultPath)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "  [WARN] Watch error: %v\n", err)
		}
	}
}

func reindexFiles(db *store.DB, v *vault.FSVault, paths []string) {
	vaultPath := v.Root()
	for _, fp := range paths {
		relPath := relativePath(fp, vaultPath)
		info, statErr := os.Stat(fp)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				// File disappeared before debounce flush (common on renames/deletes).
				removeFromIndex(db, fp, vaultPath)
			} else {
				fmt.Fprintf(os.Stderr, "  [ERROR] stat %s: %v\n", relPath, statErr)
			}
			continue
		}
		if info.IsDir() {
			continue
		}

		if err := indexer.IndexSingleFile(db, v, relPath); err != nil {
			fmt.Fprintf(os.Stderr, "  [ERROR] %s: %v\n", relPath, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  Indexed: %s\n", relPath)
	}
}

func removeFromIndex(db *store.DB, absPath, vaultPath string) {
	relPath := relativePath(absPath, vaultPath)
	if err := db.DeleteByPath(relPath); err != nil {
		fmt.Fprintf(os.Stderr, "  [ERROR] remove %s: %v\n", relPath, err)
		return
	}
	fmt.Fprintf(os.Stderr, "  Removed from index: %s\n", relPath)
}

func walkDirs(root string) []string {
	var dirs []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && config.SkipDirs[name] {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

func relativePath(filePath, vaultPath string) string {
	rel, err := filepath.Rel(vaultPath, filePath)
	if err != nil {
		return filePath
	}
	return filepath.ToSlash(rel)
}
