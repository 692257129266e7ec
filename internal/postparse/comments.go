package postparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const replyMarker = "↳"

var (
	commentHeaderRe = regexp.MustCompile(`^\*\*\[@?([^\]]+)\]\(([^)]*)\)\*\*\s*(.*)$`)
	commentLikesRe  = regexp.MustCompile(`^([\d,]+)\s+likes?$`)
	// Separator between header fields: the unicode dot variants different
	// platform exports use, or a hyphen followed by whitespace (the trailing
	// space requirement keeps dates like 2024-03-01 intact).
	commentSeparatorRe = regexp.MustCompile(`\s*[·•∙・]\s*|\s*-\s+`)
)

// ExtractComments parses the comments section into top-level comments with
// one level of replies. A block whose header line does not parse is skipped;
// the rest of the section still yields comments.
func ExtractComments(text string) []Comment {
	section := sectionBody(text, markerComments)
	if section == "" {
		return nil
	}
	var comments []Comment
	for _, block := range splitCommentBlocks(section) {
		if c, ok := parseCommentBlock(block, len(comments)); ok {
			comments = append(comments, c)
		}
	}
	return comments
}

// splitCommentBlocks splits the comments section on horizontal-rule lines.
func splitCommentBlocks(section string) []string {
	var blocks []string
	for _, chunk := range splitRuleChunks(section) {
		if strings.TrimSpace(chunk) != "" {
			blocks = append(blocks, strings.TrimSpace(chunk))
		}
	}
	return blocks
}

func parseCommentBlock(block string, index int) (Comment, bool) {
	lines := strings.Split(block, "\n")
	author, timestamp, likes, ok := parseCommentHeader(lines[0])
	if !ok {
		return Comment{}, false
	}
	c := Comment{
		ID:        fmt.Sprintf("c%d", index+1),
		Author:    author,
		Timestamp: timestamp,
		Likes:     likes,
	}

	i := 1
	var body []string
	for ; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), replyMarker) {
			break
		}
		body = append(body, lines[i])
	}
	c.Content = strings.TrimSpace(strings.Join(body, "\n"))

	for i < len(lines) {
		header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), replyMarker))
		rAuthor, rTimestamp, rLikes, rOK := parseCommentHeader(header)
		i++
		var rBody []string
		for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), replyMarker) {
			rBody = append(rBody, strings.TrimPrefix(lines[i], "  "))
			i++
		}
		if !rOK {
			continue
		}
		c.Replies = append(c.Replies, Comment{
			ID:        fmt.Sprintf("c%d-r%d", index+1, len(c.Replies)+1),
			Author:    rAuthor,
			Content:   strings.TrimSpace(strings.Join(rBody, "\n")),
			Timestamp: rTimestamp,
			Likes:     rLikes,
		})
	}
	return c, true
}

// parseCommentHeader parses "**[@user](url)** · timestamp · N likes". The
// trailing fields are optional and order-tolerant: whichever separated part
// matches the likes pattern becomes the count, the first remaining part the
// timestamp.
func parseCommentHeader(line string) (author CommentAuthor, timestamp string, likes int, ok bool) {
	m := commentHeaderRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return CommentAuthor{}, "", 0, false
	}
	author = CommentAuthor{
		Name:     m[1],
		URL:      m[2],
		Username: strings.TrimPrefix(m[1], "@"),
	}
	for _, part := range commentSeparatorRe.Split(m[3], -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lm := commentLikesRe.FindStringSubmatch(part); lm != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(lm[1], ",", "")); err == nil {
				likes = n
			}
			continue
		}
		if timestamp == "" {
			timestamp = part
		}
	}
	return author, timestamp, likes, true
}
