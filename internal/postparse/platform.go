package postparse

import (
	"strings"
	"unicode"
)

// Platform identifies the source network of an archived post. The vocabulary
// is closed: documents naming anything else are still parsed, but
// platform-specific heuristics only fire for known values. The sentinel
// "post" marks a user-authored entry with no source network.
type Platform string

const (
	PlatformPost       Platform = "post"
	PlatformTwitter    Platform = "twitter"
	PlatformX          Platform = "x"
	PlatformFacebook   Platform = "facebook"
	PlatformInstagram  Platform = "instagram"
	PlatformThreads    Platform = "threads"
	PlatformTikTok     Platform = "tiktok"
	PlatformYouTube    Platform = "youtube"
	PlatformReddit     Platform = "reddit"
	PlatformTumblr     Platform = "tumblr"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformBluesky    Platform = "bluesky"
	PlatformMastodon   Platform = "mastodon"
	PlatformPinterest  Platform = "pinterest"
	PlatformTwitch     Platform = "twitch"
	PlatformVimeo      Platform = "vimeo"
	PlatformSubstack   Platform = "substack"
	PlatformMedium     Platform = "medium"
	PlatformRSS        Platform = "rss"
	PlatformPodcast    Platform = "podcast"
	PlatformSpotify    Platform = "spotify"
	PlatformSoundCloud Platform = "soundcloud"
)

// titleMode selects how a platform's display title is pulled from the body.
type titleMode int

const (
	titleNone    titleMode = iota
	titleEmojiH1           // emoji-prefixed H1 (YouTube video titles)
	titleLoose             // first H1/H2, else first plausible prose line (Reddit)
	titleArticle           // first H1, article body de-escaped (RSS-sourced + X articles)
)

// platformTraits is the per-platform strategy table. Platforms absent from
// the table get zero-value traits (no title extraction, no audio handling).
type platformTraits struct {
	Title    titleMode
	Audio    bool // podcast-family: augment media with frontmatter audio URLs
	LongForm bool // may carry backslash-escaped article markdown
}

var platformTable = map[Platform]platformTraits{
	PlatformYouTube:    {Title: titleEmojiH1},
	PlatformReddit:     {Title: titleLoose},
	PlatformSubstack:   {Title: titleArticle, LongForm: true},
	PlatformMedium:     {Title: titleArticle, LongForm: true},
	PlatformRSS:        {Title: titleArticle, LongForm: true},
	PlatformX:          {Title: titleArticle, LongForm: true},
	PlatformTwitter:    {Title: titleArticle, LongForm: true},
	PlatformPodcast:    {Audio: true},
	PlatformSpotify:    {Audio: true},
	PlatformSoundCloud: {Audio: true},
}

// traitsFor returns the strategy entry for a platform.
func traitsFor(p Platform) platformTraits {
	return platformTable[p]
}

// NormalizePlatform lowercases and trims a frontmatter platform value.
func NormalizePlatform(raw string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(raw)))
}

// extractTitle applies the platform's title heuristic to the document body
// (frontmatter already stripped). Returns "" when the platform has no title
// convention or nothing matched.
func extractTitle(p Platform, body string) string {
	switch traitsFor(p).Title {
	case titleEmojiH1:
		return firstHeading(body, true, false)
	case titleLoose:
		if t := firstHeading(body, false, true); t != "" {
			return t
		}
		return firstProseLine(body)
	case titleArticle:
		return firstHeading(body, false, false)
	default:
		return ""
	}
}

// firstHeading scans for the first H1 (and H2 when allowH2). When stripEmoji
// is set, a leading emoji/symbol run plus whitespace is removed from the
// heading text, matching the archiver's "🎬 Title" convention.
func firstHeading(body string, stripEmoji, allowH2 bool) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		var text string
		switch {
		case strings.HasPrefix(trimmed, "# "):
			text = strings.TrimSpace(trimmed[2:])
		case allowH2 && strings.HasPrefix(trimmed, "## "):
			text = strings.TrimSpace(trimmed[3:])
		default:
			continue
		}
		if stripEmoji {
			text = trimLeadingSymbols(text)
		}
		if text != "" {
			return text
		}
	}
	return ""
}

// firstProseLine returns the first line that looks like title-worthy prose:
// not a header, rule, image, bold metadata label, or link-only line.
func firstProseLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" ||
			strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "![") ||
			strings.HasPrefix(trimmed, "**") ||
			strings.HasPrefix(trimmed, ">") ||
			isHorizontalRule(trimmed) {
			continue
		}
		return trimmed
	}
	return ""
}

// trimLeadingSymbols strips a leading run of emoji/symbol runes and the
// whitespace after it.
func trimLeadingSymbols(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSymbol(r) || unicode.In(r, unicode.So, unicode.Sk) ||
			r == '️' || unicode.IsSpace(r)
	})
}

// deEscapeArticle undoes the backslash escaping the archiver applies to
// long-form article markdown so headers and list markers render literally.
// Only line-leading escapes are unwound.
func deEscapeArticle(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\-`) ||
			strings.HasPrefix(trimmed, `\*`) || strings.HasPrefix(trimmed, `\>`) {
			lines[i] = indent + trimmed[1:]
		}
	}
	return strings.Join(lines, "\n")
}
