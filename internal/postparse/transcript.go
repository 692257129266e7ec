package postparse

import (
	"regexp"
	"strconv"
	"strings"
)

// defaultSegmentSeconds is the transcript generator's approximate segment
// length; the last segment of a transcript keeps it.
const defaultSegmentSeconds = 8

const (
	legacyTranscriptStart = "<!-- transcript:start -->"
	legacyTranscriptEnd   = "<!-- transcript:end -->"
)

var (
	timestampLineRe = regexp.MustCompile(`^\[(\d{1,2}):(\d{2})(?::(\d{2}))?\]\s*(.*)$`)
	// "[[MM:SS]](url) text" — the timestamp wrapped in a seek link.
	linkedTimestampRe  = regexp.MustCompile(`^\[(\[[0-9:]+\])\]\([^)]*\)\s*(.*)$`)
	transcriptHeaderRe = regexp.MustCompile(`^##\s+Transcript(?:\s*\(([^)]+)\))?\s*$`)
)

// ParseWhisperTranscript extracts the single-language transcript: the
// "## Transcript" section, or the older comment-wrapped form. Returns nil
// when the document has no timestamped lines.
func ParseWhisperTranscript(text string) []TranscriptSegment {
	section := transcriptSectionText(text)
	if section == "" {
		return nil
	}
	return parseTranscriptLines(section)
}

func transcriptSectionText(text string) string {
	if s := sectionBody(text, "## Transcript"); s != "" {
		return s
	}
	start := strings.Index(text, legacyTranscriptStart)
	if start < 0 {
		return ""
	}
	rest := text[start+len(legacyTranscriptStart):]
	if end := strings.Index(rest, legacyTranscriptEnd); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// parseTranscriptLines scans timestamp-prefixed lines into contiguous
// segments: each segment's end starts as start+8 and is refined to the next
// segment's start; the last keeps the default.
func parseTranscriptLines(section string) []TranscriptSegment {
	var segs []TranscriptSegment
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "> ") {
			line = line[2:]
		} else if line == ">" {
			continue
		}
		m := timestampLineRe.FindStringSubmatch(unwrapTimestampLink(line))
		if m == nil {
			continue
		}
		start := timestampSeconds(m)
		segs = append(segs, TranscriptSegment{
			ID:    len(segs),
			Start: start,
			End:   start + defaultSegmentSeconds,
			Text:  strings.TrimSpace(m[4]),
		})
	}
	for i := 0; i < len(segs)-1; i++ {
		segs[i].End = segs[i+1].Start
	}
	return segs
}

// unwrapTimestampLink reduces "[[MM:SS]](url) text" to "[MM:SS] text".
func unwrapTimestampLink(line string) string {
	if m := linkedTimestampRe.FindStringSubmatch(line); m != nil {
		return m[1] + " " + m[2]
	}
	return line
}

// timestampSeconds converts a matched [MM:SS] or [H:MM:SS] stamp to seconds.
func timestampSeconds(m []string) float64 {
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	if m[3] == "" {
		return float64(a*60 + b)
	}
	c, _ := strconv.Atoi(m[3])
	return float64(a*3600 + b*60 + c)
}

type transcriptSection struct {
	lang string
	text string
}

// splitTranscriptSections returns, in document order, every "## Transcript"
// / "## Transcript (Language)" section. A bare heading maps to the "default"
// language key.
func splitTranscriptSections(text string) []transcriptSection {
	var sections []transcriptSection
	current := -1
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := transcriptHeaderRe.FindStringSubmatch(trimmed); m != nil {
			lang := strings.TrimSpace(m[1])
			if lang == "" {
				lang = "default"
			}
			sections = append(sections, transcriptSection{lang: lang})
			current = len(sections) - 1
			continue
		}
		if current < 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "## ") {
			current = -1
			continue
		}
		sections[current].text += line + "\n"
	}
	return sections
}

// ParseMultiLangTranscript builds a per-language transcript. Only promoted
// when at least two languages produced non-empty segment lists; otherwise
// returns nil and the caller falls back to the single-language transcript.
func ParseMultiLangTranscript(text string) *MultiLangTranscript {
	byLang := make(map[string][]TranscriptSegment)
	var order []string
	for _, sec := range splitTranscriptSections(text) {
		if _, dup := byLang[sec.lang]; dup {
			continue
		}
		segs := parseTranscriptLines(sec.text)
		if len(segs) == 0 {
			continue
		}
		byLang[sec.lang] = segs
		order = append(order, sec.lang)
	}
	if len(order) < 2 {
		return nil
	}
	return &MultiLangTranscript{DefaultLanguage: order[0], ByLanguage: byLang}
}
