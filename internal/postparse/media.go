package postparse

import (
	"path"
	"regexp"
	"strings"
)

var (
	inlineImageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	embedLinkRe   = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
)

// EmbedHint is one cached embed position from the storage collaborator: the
// raw link target and its byte offset in the document text.
type EmbedHint struct {
	Link   string
	Offset int
}

// DocumentHints carries the storage collaborator's cached structure for one
// document. Any field may be absent; extraction falls back to scanning the
// raw text.
type DocumentHints struct {
	Frontmatter map[string]any
	Embeds      []EmbedHint
	// ResolveLink maps an embed link target to a vault-relative file path,
	// or "" when the target does not resolve.
	ResolveLink func(link, fromPath string) string
}

var mediaExtensions = map[string]MediaType{
	".jpg": MediaImage, ".jpeg": MediaImage, ".png": MediaImage,
	".gif": MediaImage, ".webp": MediaImage, ".bmp": MediaImage,
	".svg": MediaImage, ".avif": MediaImage,
	".mp4": MediaVideo, ".webm": MediaVideo, ".mov": MediaVideo,
	".mkv": MediaVideo, ".m4v": MediaVideo,
	".mp3": MediaAudio, ".m4a": MediaAudio, ".wav": MediaAudio,
	".ogg": MediaAudio, ".flac": MediaAudio, ".opus": MediaAudio,
}

// MediaTypeForPath classifies a path by extension. ok is false for
// extensions outside the media set.
func MediaTypeForPath(p string) (MediaType, bool) {
	t, ok := mediaExtensions[strings.ToLower(path.Ext(p))]
	return t, ok
}

// ExtractMediaPaths is the regex fallback for media discovery. Quoted-post
// and embedded-archives sections are excluded so their attachments are not
// attributed to the parent. Inline-form targets with absolute http(s) URLs
// are skipped; embed-form aliases after | are stripped.
func ExtractMediaPaths(markdown string) []string {
	body := removeSection(markdown, quotedPostMarkers...)
	body = removeSection(body, embeddedArchiveMarkers...)

	var paths []string
	for _, m := range inlineImageRe.FindAllStringSubmatch(body, -1) {
		target := m[2]
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			continue
		}
		paths = append(paths, target)
	}
	for _, m := range embedLinkRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		paths = append(paths, target)
	}
	return paths
}

// MediaPathsFromHints is the preferred discovery path: it resolves cached
// embed positions whose byte offset precedes the first nested-post section,
// so a quoted post's attachments stay off the parent. Falls back to the
// regex scan when no hints are available or they yield nothing. Both paths
// must produce the same set for documents where both apply.
func MediaPathsFromHints(text string, hints *DocumentHints, docPath string) []string {
	if hints == nil || len(hints.Embeds) == 0 || hints.ResolveLink == nil {
		return ExtractMediaPaths(text)
	}
	limit := len(text)
	if off := markerOffset(text, nestedSectionMarkers...); off >= 0 {
		limit = off
	}
	var paths []string
	for _, e := range hints.Embeds {
		if e.Offset >= limit {
			continue
		}
		resolved := hints.ResolveLink(e.Link, docPath)
		if resolved == "" {
			continue
		}
		if _, ok := MediaTypeForPath(resolved); !ok {
			continue
		}
		paths = append(paths, resolved)
	}
	if len(paths) == 0 {
		return ExtractMediaPaths(text)
	}
	return paths
}

var externalSchemes = []string{"http:", "https:", "data:", "obsidian:", "vault:"}

// ResolveMediaPath normalizes a media reference against its parent document
// path. External-scheme URLs pass through unchanged. "../" references walk
// up from the parent's directory; over-traversal above the vault root is
// tolerated rather than erroring.
func ResolveMediaPath(target, parentDocPath string) string {
	for _, scheme := range externalSchemes {
		if strings.HasPrefix(target, scheme) {
			return target
		}
	}
	target = strings.ReplaceAll(target, `\`, "/")
	target = strings.TrimPrefix(target, "./")
	if !strings.HasPrefix(target, "../") {
		return collapseSlashes(target)
	}

	parentDir := ""
	if i := strings.LastIndex(parentDocPath, "/"); i >= 0 {
		parentDir = parentDocPath[:i]
	}
	var stack []string
	for _, seg := range strings.Split(parentDir, "/") {
		if seg != "" && seg != "." {
			stack = append(stack, seg)
		}
	}
	for _, seg := range strings.Split(target, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return strings.Join(stack, "/")
}

func collapseSlashes(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// DedupeMedia drops entries with an empty URL and duplicate (type, url)
// pairs, keeping first occurrences in order. A missing type defaults to
// image.
func DedupeMedia(items []Media) []Media {
	seen := make(map[string]bool, len(items))
	out := make([]Media, 0, len(items))
	for _, m := range items {
		if m.URL == "" {
			continue
		}
		if m.Type == "" {
			m.Type = MediaImage
		}
		key := string(m.Type) + "::" + m.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}
