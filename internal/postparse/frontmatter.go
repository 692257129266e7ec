package postparse

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Frontmatter is the parsed leading metadata block of a document. Values are
// string, bool, float64, int, or []string.
type Frontmatter map[string]any

// ParseFrontmatter scans the leading ----delimited block of text. Returns
// ok=false when no block exists. The grammar is a deliberate YAML subset
// (scalars, booleans, numbers, one level of string arrays) with JSON-escape
// recovery for quoted values; a general YAML parser would reject the legacy
// malformations this must tolerate.
func ParseFrontmatter(text string) (Frontmatter, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, false
	}

	fm := make(Frontmatter)
	var pendingKey string // key with an empty value, awaiting "- " items
	var pendingItems []string
	closed := false

	flushPending := func() {
		// A key with no inline value and no "- " items is left absent,
		// matching "field omitted" semantics for optional arrays.
		if pendingKey != "" && pendingItems != nil {
			fm[pendingKey] = pendingItems
		}
		pendingKey = ""
		pendingItems = nil
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") && pendingKey != "" {
			pendingItems = append(pendingItems, coerceArrayItem(trimmed[2:]))
			continue
		}

		key, rest, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		flushPending()

		switch {
		case rest == "":
			pendingKey = key
		case strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]"):
			fm[key] = parseInlineArray(rest)
		default:
			fm[key] = coerceScalar(rest)
		}
	}
	flushPending()

	if !closed {
		return nil, false
	}
	return fm, true
}

// splitKeyValue parses a "key: value" line. Keys start at column zero and
// contain no spaces before the colon.
func splitKeyValue(line string) (key, value string, ok bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
		return "", "", false
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

// parseInlineArray parses "[a, b, c]" into a string slice.
func parseInlineArray(raw string) []string {
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return []string{}
	}
	parts := strings.Split(inner, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		items = append(items, coerceArrayItem(strings.TrimSpace(p)))
	}
	return items
}

// coerceArrayItem unquotes array elements but keeps them as strings.
func coerceArrayItem(raw string) string {
	raw = strings.TrimSpace(raw)
	if isQuoted(raw) {
		return unquote(raw)
	}
	return raw
}

// coerceScalar applies the value priority order: quoted JSON-decodable
// string, boolean literal, numeric literal, literal string.
func coerceScalar(raw string) any {
	if isQuoted(raw) {
		return unquote(raw)
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// unquote decodes a quoted value as JSON to recover escapes; values with
// malformed escapes fall back to simple quote-stripping rather than failing
// the whole parse.
func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	return s[1 : len(s)-1]
}

// --- typed accessors ---

// String returns the value for key as a string, or "" when absent. Numeric
// and boolean values are not stringified; only string values match.
func (fm Frontmatter) String(key string) string {
	if v, ok := fm[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the value for key as an int. Numeric strings are tolerated
// because older documents quoted their counters. Returns -1 when absent or
// non-numeric, so a stored zero is distinguishable from a missing field.
func (fm Frontmatter) Int(key string) int {
	switch v := fm[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return -1
}

// Bool returns the value for key as a bool, treating the string forms
// "true"/"false" from legacy documents as booleans.
func (fm Frontmatter) Bool(key string) bool {
	switch v := fm[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// Strings returns the value for key as a string slice. A scalar string is
// promoted to a one-element slice.
func (fm Frontmatter) Strings(key string) []string {
	switch v := fm[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Has reports whether key is present.
func (fm Frontmatter) Has(key string) bool {
	_, ok := fm[key]
	return ok
}
