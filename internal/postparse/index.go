package postparse

import "strings"

// BuildIndexEntry produces the reduced projection of one document used for
// filtering, sorting, and search over large collections. It prefers
// externally cached frontmatter, validates the same minimal invariants as
// ParseFile, and approximates media/comment counts with coarse pattern
// counts instead of full extraction. Never constructs nested post records;
// returns nil for documents that are not recognized posts.
func BuildIndexEntry(doc Document, hints *DocumentHints) (entry *PostIndexEntry) {
	defer func() {
		if recover() != nil {
			entry = nil
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
	body := stripNestedSections(stripFrontmatterBlock(doc.Text))

	e := &PostIndexEntry{
		Path:         doc.Path,
		Platform:     platform,
		ID:           firstNonEmpty(fm.String("postId"), fm.String("id")),
		URL:          firstNonEmpty(fm.String("url"), linkTarget(footerValue(footer, "Original URL"))),
		Title:        firstNonEmpty(fm.String("title"), extractTitle(platform, body)),
		AuthorHandle: firstNonEmpty(fm.String("authorHandle"), fm.String("handle")),
		Tags:         fm.Strings("tags"),
		SeriesID:     fm.String("seriesId"),
		IsReblog:     fm.Bool("isReblog"),
		Published:    firstNonEmpty(fm.String("published"), footerValue(footer, "Published")),
		Archived:     fm.String("archived"),
	}
	e.AuthorName = fm.String("author")
	if e.AuthorName == "" {
		e.AuthorName, _ = parseAuthorValue(footerValue(footer, "Author"))
	}
	e.Excerpt = excerpt(ExtractContentText(doc.Text), 200)
	e.Likes = counterValue(fm, "likes", footer, "Likes")
	e.Comments = counterValue(fm, "comments", footer, "Comments")
	e.Shares = counterValue(fm, "shares", footer, "Shares")
	e.Views = counterValue(fm, "views", footer, "Views")
	e.MediaCount = countMediaPatterns(body)
	e.CommentCount = countCommentPatterns(doc.Text)
	return e
}

// countMediaPatterns is the coarse media count: raw image-syntax matches in
// the section-stripped body, no resolution or dedup.
func countMediaPatterns(body string) int {
	return len(inlineImageRe.FindAllString(body, -1)) +
		len(embedLinkRe.FindAllString(body, -1))
}

// countCommentPatterns is the coarse comment count: header-line matches in
// the comments section, replies included.
func countCommentPatterns(text string) int {
	section := sectionBody(text, markerComments)
	if section == "" {
		return 0
	}
	return strings.Count(section, "**[@")
}

// excerpt collapses whitespace and truncates to max runes.
func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
