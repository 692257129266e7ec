// Package vault provides read access to the markdown files of an
// archive vault, plus the cached document hints the parser can use to
// skip re-scanning.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"

	"github.com/vaultarc/postarc/internal/config"
	"github.com/vaultarc/postarc/internal/postparse"
)

var (
	embedLinkRe   = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	inlineImageRe = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)
)

// FSVault reads archive documents from a vault directory on disk.
type FSVault struct {
	root string

	indexOnce sync.Once
	indexErr  error
	// lowercased file basename → vault-relative paths, for wiki-link
	// resolution. Built lazily on first resolve.
	basenames map[string][]string
}

// New returns a vault rooted at the given directory.
func New(root string) *FSVault {
	return &FSVault{root: root}
}

// Root returns the vault root directory.
func (v *FSVault) Root() string {
	return v.root
}

// List returns the vault-relative paths of all markdown files, sorted,
// with slash separators. Skip directories and skip files are excluded.
func (v *FSVault) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != v.root && config.SkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") || config.SkipFiles[d.Name()] {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Read loads one document by vault-relative path. The file's mtime
// stands in for creation time, which feeds the archived-at fallback.
func (v *FSVault) Read(rel string) (postparse.Document, error) {
	abs, ok := v.subpath(rel)
	if !ok {
		return postparse.Document{}, fmt.Errorf("path escapes vault: %s", rel)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return postparse.Document{}, fmt.Errorf("read %s: %w", rel, err)
	}

	doc := postparse.Document{Path: filepath.ToSlash(rel), Text: string(data)}
	if info, err := os.Stat(abs); err == nil {
		doc.Created = info.ModTime()
	}
	return doc, nil
}

// Hints builds the cached structure for one document: parsed
// frontmatter, embed positions (both inline-image and wiki syntax), and
// a link resolver. The parser treats all of it as optional and falls
// back to scanning the raw text.
func (v *FSVault) Hints(rel, text string) *postparse.DocumentHints {
	hints := &postparse.DocumentHints{ResolveLink: v.resolveLink}

	var fm map[string]any
	if _, err := frontmatter.Parse(strings.NewReader(text), &fm); err == nil {
		hints.Frontmatter = fm
	}

	// Inline-image targets first, then wiki embeds, matching the order
	// the raw-text scan discovers them in.
	for _, m := range inlineImageRe.FindAllStringSubmatchIndex(text, -1) {
		target := text[m[2]:m[3]]
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			continue
		}
		hints.Embeds = append(hints.Embeds, postparse.EmbedHint{
			Link:   target,
			Offset: m[0],
		})
	}

	for _, m := range embedLinkRe.FindAllStringSubmatchIndex(text, -1) {
		link := text[m[2]:m[3]]
		if i := strings.Index(link, "|"); i >= 0 {
			link = link[:i]
		}
		hints.Embeds = append(hints.Embeds, postparse.EmbedHint{
			Link:   strings.TrimSpace(link),
			Offset: m[0],
		})
	}
	return hints
}

// resolveLink maps a wiki-link target to a vault-relative path the way
// Obsidian does: an exact relative path wins, otherwise the shortest
// path whose basename matches. Returns "" when nothing resolves.
func (v *FSVault) resolveLink(link, fromPath string) string {
	link = strings.ReplaceAll(link, `\`, "/")
	link = strings.TrimPrefix(link, "./")
	if link == "" {
		return ""
	}

	// Exact match against the vault root or the referencing file's dir.
	candidates := []string{
		path.Clean(link),
		postparse.ResolveMediaPath(link, fromPath),
	}
	if dir := path.Dir(fromPath); dir != "." {
		candidates = append(candidates, path.Clean(dir+"/"+link))
	}
	for _, c := range candidates {
		if c == "" || c == "." || strings.HasPrefix(c, "../") {
			continue
		}
		if abs, ok := v.subpath(c); ok {
			if info, err := os.Stat(abs); err == nil && !info.IsDir() {
				return c
			}
		}
	}

	// Basename lookup across the whole vault.
	v.indexOnce.Do(v.buildBasenameIndex)
	if v.indexErr != nil {
		return ""
	}
	matches := v.basenames[strings.ToLower(path.Base(link))]
	if len(matches) == 0 {
		return ""
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if len(m) < len(best) || (len(m) == len(best) && m < best) {
			best = m
		}
	}
	return best
}

func (v *FSVault) buildBasenameIndex() {
	v.basenames = make(map[string][]string)
	v.indexErr = filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != v.root && config.SkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		key := strings.ToLower(d.Name())
		v.basenames[key] = append(v.basenames[key], filepath.ToSlash(rel))
		return nil
	})
}

// subpath joins a vault-relative path onto the root, rejecting
// anything that would escape it.
func (v *FSVault) subpath(rel string) (string, bool) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(v.root, cleaned), true
}
