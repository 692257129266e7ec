// Package pipeline runs vault-wide parsing in bounded windows so large
// archives are never held fully in memory and the host stays responsive.
package pipeline

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/vaultarc/postarc/internal/config"
	"github.com/vaultarc/postarc/internal/postparse"
	"github.com/vaultarc/postarc/internal/vault"
)

// ParseAll assembles full post records for every parseable document in
// the vault. Files are parsed concurrently within fixed-size windows;
// a failed or non-post file is skipped, never fatal.
func ParseAll(v *vault.FSVault) ([]*postparse.PostData, error) {
	paths, err := v.List()
	if err != nil {
		return nil, err
	}

	window := config.IndexSettings().FullWindow
	if window <= 0 {
		window = 50
	}

	var records []*postparse.PostData
	for _, chunk := range lo.Chunk(paths, window) {
		out := make([]*postparse.PostData, len(chunk))
		var wg sync.WaitGroup
		for i, rel := range chunk {
			wg.Add(1)
			go func(i int, rel string) {
				defer wg.Done()
				doc, err := v.Read(rel)
				if err != nil {
					fmt.Fprintf(os.Stderr, "  [WARN] %s: %v\n", rel, err)
					return
				}
				out[i] = postparse.ParseFile(doc, v.Hints(rel, doc.Text))
			}(i, rel)
		}
		wg.Wait()
		records = append(records, out...)
	}

	return lo.Filter(records, func(p *postparse.PostData, _ int) bool {
		return p != nil
	}), nil
}

// Result is one document's outcome from the index builder. Entry is nil
// when the document is not a parseable post, Skipped is set when the
// caller's skip predicate suppressed the parse, and Err carries a read
// failure.
type Result struct {
	Doc     postparse.Document
	Entry   *postparse.PostIndexEntry
	Skipped bool
	Err     error
}

// BuildIndex streams index results for the given vault-relative paths in
// windowed batches. Within a window every read and parse runs
// concurrently and the batch is sent once all of them settle; between
// windows the pipeline pauses so a long reindex yields to the rest of
// the process. skip, when non-nil, runs after the read and suppresses
// the parse for documents the caller already holds current entries for.
// The channel closes after the last batch.
func BuildIndex(v *vault.FSVault, paths []string, skip func(postparse.Document) bool) <-chan []Result {
	settings := config.IndexSettings()
	window := settings.IndexWindow
	if window <= 0 {
		window = 20
	}
	yield := time.Duration(settings.YieldMillis) * time.Millisecond

	ch := make(chan []Result, 1)
	go func() {
		defer close(ch)
		windows := lo.Chunk(paths, window)
		for wi, chunk := range windows {
			batch := make([]Result, len(chunk))
			var wg sync.WaitGroup
			for i, rel := range chunk {
				wg.Add(1)
				go func(i int, rel string) {
					defer wg.Done()
					doc, err := v.Read(rel)
					if err != nil {
						batch[i] = Result{Doc: postparse.Document{Path: rel}, Err: err}
						return
					}
					if skip != nil && skip(doc) {
						batch[i] = Result{Doc: doc, Skipped: true}
						return
					}
					batch[i] = Result{
						Doc:   doc,
						Entry: postparse.BuildIndexEntry(doc, v.Hints(rel, doc.Text)),
					}
				}(i, rel)
			}
			wg.Wait()
			ch <- batch
			if yield > 0 && wi < len(windows)-1 {
				time.Sleep(yield)
			}
		}
	}()
	return ch
}
