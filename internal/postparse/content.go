package postparse

import "strings"

// ExtractContentText returns the free-text prose of a document. Frontmatter,
// quoted-post, embedded-archives, and comments sections are removed, footer
// and gallery chunks cut, then leading blank/header/label/image noise is
// skipped until real prose starts. Returns "" for image-only or
// metadata-only documents, never an error.
func ExtractContentText(text string) string {
	body := stripNestedSections(stripFrontmatterBlock(text))
	body = keepBodyChunks(body)

	lines := strings.Split(body, "\n")
	start := 0
	for start < len(lines) {
		trimmed := strings.TrimSpace(lines[start])
		if trimmed == "" ||
			strings.HasPrefix(trimmed, "#") ||
			trimmed == "**Media:**" ||
			isFooterLine(trimmed) ||
			isImageLine(trimmed) {
			start++
			continue
		}
		break
	}

	kept := make([]string, 0, len(lines)-start)
	for _, line := range lines[start:] {
		if isFooterLine(strings.TrimSpace(line)) {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
