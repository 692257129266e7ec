package postparse

import (
	"strings"
	"time"
)

// Document is the raw input unit: the text of one archived markdown file
// plus its vault identity. Owned by the storage collaborator; the parser
// only reads it.
type Document struct {
	Path    string
	Text    string
	Created time.Time
}

// ParseFile reconstructs the full post record for one document. Returns nil,
// never an error, when the document is not a recognized archived post:
// missing frontmatter, missing platform, or a user-authored "post" entry
// without author/timestamp. Any panic during assembly also collapses to nil;
// callers treat absence as "not a post", not as a failure to surface.
func ParseFile(doc Document, hints *DocumentHints) (post *PostData) {
	defer func() {
		if recover() != nil {
			post = nil
		}
	}()

	fm, ok := hintFrontmatter(hints)
	if !ok {
		fm, ok = ParseFrontmatter(doc.Text)
	}
	if !ok {
		return nil
	}
	platform := NormalizePlatform(fm.String("platform"))
	if platform == "" {
		return nil
	}
	if platform == PlatformPost && (fm.String("author") == "" || fm.String("published") == "") {
		return nil
	}

	footer := documentFooter(doc.Text)
	trimmedBody := stripNestedSections(stripFrontmatterBlock(doc.Text))

	p := &PostData{
		Platform:       platform,
		ID:             firstNonEmpty(fm.String("postId"), fm.String("id")),
		URL:            firstNonEmpty(fm.String("url"), linkTarget(footerValue(footer, "Original URL"))),
		Metadata:       NewMetadata(),
		Tags:           fm.Strings("tags"),
		IsReblog:       fm.Bool("isReblog"),
		DownloadedURLs: fm.Strings("downloadedUrls"),
		ProcessedURLs:  fm.Strings("processedUrls"),
		FilePath:       doc.Path,
	}

	p.Author = assembleAuthor(fm, footer)
	p.Title = firstNonEmpty(fm.String("title"), extractTitle(platform, trimmedBody))
	p.Content = assembleContent(platform, fm, doc.Text)

	p.Metadata.Timestamp = firstNonEmpty(fm.String("published"), footerValue(footer, "Published"))
	p.Metadata.Likes = counterValue(fm, "likes", footer, "Likes")
	p.Metadata.Comments = counterValue(fm, "comments", footer, "Comments")
	p.Metadata.Shares = counterValue(fm, "shares", footer, "Shares")
	p.Metadata.Views = counterValue(fm, "views", footer, "Views")

	p.Media = assembleMedia(p, fm, doc, hints)
	p.Comments = ExtractComments(doc.Text)

	p.QuotedPost = ExtractQuotedPost(doc.Text, p)
	if p.QuotedPost == nil && p.IsReblog {
		p.QuotedPost = reblogFromFrontmatter(fm, p)
	}
	if p.IsReblog && p.QuotedPost != nil && len(p.QuotedPost.Media) == 0 {
		p.QuotedPost.Media = p.Media
	}
	p.EmbeddedArchives = ExtractEmbeddedArchives(doc.Text, p)

	if p.MultilangTranscript = ParseMultiLangTranscript(doc.Text); p.MultilangTranscript == nil {
		p.WhisperTranscript = ParseWhisperTranscript(doc.Text)
	}

	if id := fm.String("seriesId"); id != "" {
		p.Series = &Series{ID: id, Title: fm.String("seriesTitle")}
	}
	if t := parseWhen(fm.String("archived")); !t.IsZero() {
		p.ArchivedAt = t
	} else {
		p.ArchivedAt = doc.Created
	}
	return p
}

// hintFrontmatter converts a cached frontmatter map into the parser's
// Frontmatter shape. The cached form is the fast path; the hand-rolled
// parser stays authoritative and both must agree where both apply.
func hintFrontmatter(hints *DocumentHints) (Frontmatter, bool) {
	if hints == nil || hints.Frontmatter == nil {
		return nil, false
	}
	fm := make(Frontmatter, len(hints.Frontmatter))
	for k, v := range hints.Frontmatter {
		if items, ok := v.([]any); ok {
			strs := make([]string, 0, len(items))
			for _, it := range items {
				if s, ok := it.(string); ok {
					strs = append(strs, s)
				}
			}
			fm[k] = strs
			continue
		}
		fm[k] = v
	}
	return fm, true
}

func assembleAuthor(fm Frontmatter, footer string) Author {
	a := Author{
		Name:        fm.String("author"),
		URL:         fm.String("authorUrl"),
		Handle:      firstNonEmpty(fm.String("authorHandle"), fm.String("handle")),
		Avatar:      fm.String("authorAvatar"),
		LocalAvatar: fm.String("localAvatar"),
		Bio:         fm.String("authorBio"),
		Verified:    fm.Bool("verified"),
	}
	if n := fm.Int("followers"); n >= 0 {
		a.Followers = n
	}
	if a.Name == "" {
		name, url := parseAuthorValue(footerValue(footer, "Author"))
		a.Name = name
		if a.URL == "" {
			a.URL = url
		}
	}
	return a
}

// assembleContent extracts the prose body, de-escaping long-form article
// markdown for the platforms whose archiver escapes it. The raw form is kept
// alongside when de-escaping changed anything.
func assembleContent(platform Platform, fm Frontmatter, text string) Content {
	c := Content{
		Text:      ExtractContentText(text),
		Community: fm.String("community"),
	}
	if traitsFor(platform).LongForm {
		if cleaned := deEscapeArticle(c.Text); cleaned != c.Text {
			c.RawMarkdown = c.Text
			c.Text = cleaned
		}
	}
	return c
}

// assembleMedia builds the media list: an explicit frontmatter media list
// ("type:url" strings) wins over body-derived media; podcast-family
// documents get their audio URLs appended. Everything passes through path
// resolution and dedup.
func assembleMedia(p *PostData, fm Frontmatter, doc Document, hints *DocumentHints) []Media {
	var media []Media
	if fm.Has("media") {
		media = mediaFromFrontmatter(fm)
	} else {
		for _, raw := range MediaPathsFromHints(doc.Text, hints, doc.Path) {
			t, ok := MediaTypeForPath(raw)
			if !ok {
				t = MediaImage
			}
			media = append(media, Media{Type: t, URL: raw})
		}
	}
	if traitsFor(p.Platform).Audio {
		for _, u := range append(fm.Strings("audioUrls"), fm.String("audioUrl")) {
			if u != "" {
				media = append(media, Media{Type: MediaAudio, URL: u})
			}
		}
	}
	for i := range media {
		media[i].URL = ResolveMediaPath(media[i].URL, doc.Path)
	}
	media = DedupeMedia(media)
	if media == nil {
		media = []Media{}
	}
	return media
}

// mediaFromFrontmatter parses the frontmatter media list of "type:url"
// strings. Unknown or missing type prefixes leave the whole value as an
// image URL, so scheme-bearing entries like "https://..." stay intact.
func mediaFromFrontmatter(fm Frontmatter) []Media {
	var out []Media
	for _, item := range fm.Strings("media") {
		t := MediaImage
		url := item
		if i := strings.Index(item, ":"); i > 0 {
			switch MediaType(item[:i]) {
			case MediaImage, MediaVideo, MediaAudio:
				t = MediaType(item[:i])
				url = item[i+1:]
			}
		}
		out = append(out, Media{Type: t, URL: url})
	}
	return out
}

// reblogFromFrontmatter reconstructs a quoted post from frontmatter-only
// reblog fields, for reblog documents that carry no in-body quoted section.
func reblogFromFrontmatter(fm Frontmatter, parent *PostData) *NestedPost {
	name := fm.String("rebloggedFrom")
	url := fm.String("rebloggedFromUrl")
	if name == "" && url == "" {
		return nil
	}
	return &NestedPost{
		Platform: parent.Platform,
		URL:      url,
		Author: Author{
			Name:   name,
			Handle: fm.String("rebloggedFromHandle"),
		},
		Metadata:       NewMetadata(),
		DownloadedURLs: parent.DownloadedURLs,
		ProcessedURLs:  parent.ProcessedURLs,
	}
}

// counterValue prefers the frontmatter counter; the footer-derived value is
// fallback only.
func counterValue(fm Frontmatter, key, footer, label string) int {
	if v := fm.Int(key); v >= 0 {
		return v
	}
	return footerCount(footer, label)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseWhen(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
