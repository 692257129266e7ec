package postparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nestedHeaderRe = regexp.MustCompile(`^###\s+(.+?)\s+-\s+(.+)$`)
	mdLinkRe       = regexp.MustCompile(`^\[([^\]]*)\]\(([^)]*)\)$`)
)

// ExtractQuotedPost recovers the shared/reblogged post section, if any.
// Inherited URL lists come from the parent record, not re-derived.
func ExtractQuotedPost(text string, parent *PostData) *NestedPost {
	section := sectionBody(text, quotedPostMarkers...)
	if section == "" {
		return nil
	}
	return recoverNestedBlock(section, parent)
}

// ExtractEmbeddedArchives recovers every referenced-post block in the
// embedded-archives section. A block that fails to parse is dropped; its
// siblings still come back.
func ExtractEmbeddedArchives(text string, parent *PostData) []*NestedPost {
	section := sectionBody(text, embeddedArchiveMarkers...)
	if section == "" {
		return nil
	}
	var out []*NestedPost
	for _, block := range splitArchiveBlocks(section) {
		if np := recoverNestedBlock(block, parent); np != nil {
			out = append(out, np)
		}
	}
	return out
}

// splitArchiveBlocks splits the embedded-archives section into per-post
// blocks. A rule line is a boundary only when a new block header follows it;
// a quoted post's own internal rules never split the block.
func splitArchiveBlocks(section string) []string {
	lines := strings.Split(section, "\n")
	var blocks []string
	var current []string
	flush := func() {
		if block := strings.TrimSpace(strings.Join(current, "\n")); block != "" {
			blocks = append(blocks, block)
		}
		current = nil
	}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isArchiveBlockHeader(trimmed) && len(current) > 0 {
			flush()
		}
		if isHorizontalRule(trimmed) && nextBlockStarts(lines[i+1:]) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// isArchiveBlockHeader matches the "### Platform - handle" block header and
// the HTML-comment header older archiver builds emitted.
func isArchiveBlockHeader(trimmed string) bool {
	return strings.HasPrefix(trimmed, "### ") || strings.HasPrefix(trimmed, "<!--")
}

func nextBlockStarts(rest []string) bool {
	for _, line := range rest {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return isArchiveBlockHeader(trimmed)
	}
	return false
}

// recoverNestedBlock wraps parseNestedBlock so a malformed block can never
// take down the whole extraction.
func recoverNestedBlock(block string, parent *PostData) (np *NestedPost) {
	defer func() {
		if recover() != nil {
			np = nil
		}
	}()
	return parseNestedBlock(block, parent)
}

// parseNestedBlock reconstructs one nested post record from a block.
// Platform and handle come from the "### Platform - handle" header when
// present, with the block's own metadata lines as the fallback for legacy
// documents that lack the header. Returns nil for blocks with no content,
// URL, or media at all.
func parseNestedBlock(block string, parent *PostData) *NestedPost {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil
	}
	np := &NestedPost{Metadata: NewMetadata()}

	lines := strings.Split(block, "\n")
	rest := block
	if m := nestedHeaderRe.FindStringSubmatch(strings.TrimSpace(lines[0])); m != nil {
		np.Platform = NormalizePlatform(m[1])
		np.Author.Handle = strings.TrimSpace(m[2])
		rest = strings.Join(lines[1:], "\n")
	}

	content, meta := splitNestedMeta(rest)

	if np.Platform == "" {
		np.Platform = NormalizePlatform(footerValue(meta, "Platform"))
	}
	np.URL = linkTarget(footerValue(meta, "Original URL"))
	if name, url := parseAuthorValue(footerValue(meta, "Author")); name != "" {
		np.Author.Name = name
		np.Author.URL = url
	}
	if np.Author.Name == "" {
		np.Author.Name = np.Author.Handle
	}
	np.Metadata.Timestamp = footerValue(meta, "Published")
	np.Metadata.Likes = footerCount(meta, "Likes")
	np.Metadata.Comments = footerCount(meta, "Comments")
	np.Metadata.Shares = footerCount(meta, "Shares")

	parentPath := ""
	if parent != nil {
		parentPath = parent.FilePath
		np.DownloadedURLs = parent.DownloadedURLs
		np.ProcessedURLs = parent.ProcessedURLs
	}
	for _, p := range ExtractMediaPaths(meta) {
		t, ok := MediaTypeForPath(p)
		if !ok {
			t = MediaImage
		}
		np.Media = append(np.Media, Media{Type: t, URL: ResolveMediaPath(p, parentPath)})
	}
	np.Media = DedupeMedia(np.Media)

	np.Content.Text = cleanNestedContent(content)

	if np.Platform == "" && np.URL == "" {
		return nil
	}
	if np.Content.Text == "" && np.URL == "" && len(np.Media) == 0 {
		return nil
	}
	return np
}

// splitNestedMeta separates a block's content from its trailing metadata
// line set. The split anchors on the LAST footer-label line, because content
// prose may legitimately contain the label words, then extends upward over
// contiguous metadata-shaped lines (blanks, bold labels, the media block and
// its images).
func splitNestedMeta(block string) (content, meta string) {
	lines := strings.Split(block, "\n")
	last := -1
	for i, line := range lines {
		if isFooterLine(strings.TrimSpace(line)) {
			last = i
		}
	}
	if last < 0 {
		return block, ""
	}
	start := last
	for start > 0 {
		trimmed := strings.TrimSpace(lines[start-1])
		if trimmed == "" || isMetaLine(trimmed) {
			start--
			continue
		}
		break
	}
	return strings.Join(lines[:start], "\n"), strings.Join(lines[start:], "\n")
}

// isMetaLine matches line shapes that belong to a nested block's metadata
// set: bold labels, media images, and separator rules.
func isMetaLine(trimmed string) bool {
	if isImageLine(trimmed) || isHorizontalRule(trimmed) {
		return true
	}
	return strings.HasPrefix(trimmed, "**") && strings.Contains(trimmed, ":**")
}

// cleanNestedContent strips block-quote prefixes and drops any quoted-post
// marker found inside recovered content. Markers are removed, never
// re-parsed: quoting depth is capped at one level.
func cleanNestedContent(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "> ") {
			line = line[2:]
		} else if strings.TrimSpace(line) == ">" {
			line = ""
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == markerSharedPost || trimmed == markerRebloggedPost {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// footerValue returns the value of a "**Label:** value" metadata line, or "".
func footerValue(meta, label string) string {
	prefix := "**" + label + ":**"
	for _, line := range strings.Split(meta, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return ""
}

// footerCount parses a numeric metadata value, tolerating thousands commas
// and trailing words ("1,204 likes"). Returns -1 when absent or non-numeric.
func footerCount(meta, label string) int {
	v := footerValue(meta, label)
	if v == "" {
		return -1
	}
	fields := strings.Fields(strings.ReplaceAll(v, ",", ""))
	if len(fields) == 0 {
		return -1
	}
	if n, err := strconv.Atoi(fields[0]); err == nil {
		return n
	}
	return -1
}

// linkTarget unwraps a "[text](url)" value to its url; raw values pass
// through unchanged.
func linkTarget(value string) string {
	if m := mdLinkRe.FindStringSubmatch(value); m != nil {
		return m[2]
	}
	return value
}

// parseAuthorValue splits "[Name](url)" into its parts; a plain value is the
// name with no URL.
func parseAuthorValue(value string) (name, url string) {
	if m := mdLinkRe.FindStringSubmatch(value); m != nil {
		return m[1], m[2]
	}
	return value, ""
}
