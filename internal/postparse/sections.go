package postparse

import "strings"

// Body section markers. The exact strings are the document format contract;
// the emoji-less embedded-archives form survives from older archiver builds.
const (
	markerSharedPost       = "## 🔗 Shared Post"
	markerRebloggedPost    = "## 🔄 Reblogged Post"
	markerEmbeddedArchives = "## 📦 Referenced Social Media Posts"
	markerEmbeddedLegacy   = "## Referenced Social Media Posts"
	markerComments         = "## 💬 Comments"
)

var (
	quotedPostMarkers      = []string{markerSharedPost, markerRebloggedPost}
	embeddedArchiveMarkers = []string{markerEmbeddedArchives, markerEmbeddedLegacy}
	nestedSectionMarkers   = []string{
		markerSharedPost, markerRebloggedPost,
		markerEmbeddedArchives, markerEmbeddedLegacy,
	}
)

// footerLabels open the trailing metadata block of a post or sub-post block.
var footerLabels = []string{
	"**Platform:**",
	"**Original URL:**",
	"**Author:**",
	"**Published:**",
}

// isHorizontalRule reports whether a line is a standalone markdown rule:
// three or more of the same marker rune, optionally space-separated.
func isHorizontalRule(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	marker := trimmed[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != marker && trimmed[i] != ' ' {
			return false
		}
	}
	return strings.Count(trimmed, string(marker)) >= 3
}

// isFooterLine reports whether a trimmed line opens with one of the
// metadata footer labels.
func isFooterLine(trimmed string) bool {
	for _, label := range footerLabels {
		if strings.HasPrefix(trimmed, label) {
			return true
		}
	}
	return false
}

// isImageLine matches both image syntaxes the archiver emits: ![alt](path)
// and ![[path|alias]].
func isImageLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "![")
}

// stripFrontmatterBlock returns the document body with its leading
// frontmatter removed. Text without a complete block is returned unchanged.
func stripFrontmatterBlock(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return text
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return text
}

// lineStartIndex returns the byte offset of marker at the start of a line,
// or -1.
func lineStartIndex(text, marker string) int {
	if strings.HasPrefix(text, marker) {
		return 0
	}
	idx := strings.Index(text, "\n"+marker)
	if idx < 0 {
		return -1
	}
	return idx + 1
}

// markerOffset returns the earliest line-start offset of any marker, or -1.
func markerOffset(text string, markers ...string) int {
	best := -1
	for _, m := range markers {
		off := lineStartIndex(text, m)
		if off >= 0 && (best < 0 || off < best) {
			best = off
		}
	}
	return best
}

// findSection locates the first matching marker line and the extent of its
// section, which runs to the next top-level "## " heading or end of text. A
// heading matching one of the requested markers does NOT end the section: a
// nested quoted-post marker belongs to the recovered content, where the
// depth-cap strip removes it. Returns (-1, -1) when no marker is present.
func findSection(text string, markers ...string) (start, end int) {
	start = markerOffset(text, markers...)
	if start < 0 {
		return -1, -1
	}
	nl := strings.Index(text[start:], "\n")
	if nl < 0 {
		return start, len(text)
	}
	offset := start + nl + 1
	for _, line := range strings.Split(text[offset:], "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") && !matchesAnyMarker(trimmed, markers) {
			return start, offset
		}
		offset += len(line) + 1
	}
	return start, len(text)
}

func matchesAnyMarker(trimmed string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	return false
}

// sectionBody returns the trimmed text of the section opened by the first
// matching marker, without the marker line. Empty string when absent.
func sectionBody(text string, markers ...string) string {
	start, end := findSection(text, markers...)
	if start < 0 {
		return ""
	}
	section := text[start:end]
	nl := strings.Index(section, "\n")
	if nl < 0 {
		return ""
	}
	return strings.TrimSpace(section[nl+1:])
}

// removeSection cuts a marked section out of the text.
func removeSection(text string, markers ...string) string {
	start, end := findSection(text, markers...)
	if start < 0 {
		return text
	}
	return text[:start] + text[end:]
}

// stripNestedSections removes quoted-post, embedded-archives, and comments
// sections, leaving only the parent post's own body and footer.
func stripNestedSections(text string) string {
	text = removeSection(text, quotedPostMarkers...)
	text = removeSection(text, embeddedArchiveMarkers...)
	return removeSection(text, markerComments)
}

// splitRuleChunks splits text on standalone horizontal-rule lines. The rule
// lines themselves are dropped; keepBodyChunks re-joins kept chunks with a
// canonical rule so legitimate in-body rules survive.
func splitRuleChunks(text string) []string {
	var chunks []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if isHorizontalRule(line) {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	return append(chunks, strings.Join(current, "\n"))
}

// isFooterChunk reports whether the chunk's first non-blank line is a
// metadata footer label.
func isFooterChunk(chunk string) bool {
	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return isFooterLine(trimmed)
	}
	return false
}

// isGalleryChunk reports whether every non-blank line of the chunk is image
// markup (an optional **Media:** label line is tolerated). A trailing
// all-images chunk is the archiver's media gallery, not body prose.
func isGalleryChunk(chunk string) bool {
	seen := false
	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "**Media:**" {
			continue
		}
		if !isImageLine(trimmed) {
			return false
		}
		seen = true
	}
	return seen
}

// keepBodyChunks walks rule-delimited chunks in order and stops accumulating
// at the first chunk that looks like a footer or an all-images gallery.
// Rules between kept chunks are preserved in the joined result; a greedy cut
// at the first rule would eat them.
func keepBodyChunks(text string) string {
	var kept []string
	for _, chunk := range splitRuleChunks(text) {
		if isFooterChunk(chunk) || isGalleryChunk(chunk) {
			break
		}
		kept = append(kept, chunk)
	}
	return strings.Join(kept, "\n---\n")
}

// documentFooter returns the trailing metadata footer chunk of the top-level
// document, ignoring footers that belong to nested-post blocks. Empty string
// when the document has none.
func documentFooter(text string) string {
	body := stripNestedSections(stripFrontmatterBlock(text))
	chunks := splitRuleChunks(body)
	for i := len(chunks) - 1; i >= 0; i-- {
		if isFooterChunk(chunks[i]) {
			return chunks[i]
		}
		if strings.TrimSpace(chunks[i]) != "" {
			break
		}
	}
	return ""
}
