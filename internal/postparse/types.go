// Package postparse reconstructs typed post records from archived
// social-media markdown documents. The document dialect grew across many
// platform integrations and has no formal grammar; every extractor in this
// package is recovery-oriented and must never fail a whole file because one
// block inside it is malformed.
package postparse

import "time"

// MediaType classifies a media attachment.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// Media is a single attachment. URL is vault-relative after path resolution
// except for external schemes (http, data, obsidian, vault), which pass
// through unchanged.
type Media struct {
	Type    MediaType `json:"type"`
	URL     string    `json:"url"`
	AltText string    `json:"altText,omitempty"`
}

// Author identifies the person or account behind a post.
type Author struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Handle      string `json:"handle,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	LocalAvatar string `json:"localAvatar,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Followers   int    `json:"followers,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
}

// Content holds the textual body of a post.
type Content struct {
	Text        string `json:"text"`
	RawMarkdown string `json:"rawMarkdown,omitempty"`
	Community   string `json:"community,omitempty"`
}

// Metadata carries engagement counters and timestamps. Counter fields use -1
// for "not present in the document" so a legitimate zero survives a
// round-trip.
type Metadata struct {
	Timestamp string         `json:"timestamp,omitempty"`
	Likes     int            `json:"likes"`
	Comments  int            `json:"comments"`
	Shares    int            `json:"shares"`
	Views     int            `json:"views"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// NewMetadata returns a Metadata with all counters marked absent.
func NewMetadata() Metadata {
	return Metadata{Likes: -1, Comments: -1, Shares: -1, Views: -1}
}

// CommentAuthor identifies a comment's author.
type CommentAuthor struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
}

// Comment is a single comment with at most one level of replies.
type Comment struct {
	ID        string        `json:"id"`
	Author    CommentAuthor `json:"author"`
	Content   string        `json:"content"`
	Timestamp string        `json:"timestamp,omitempty"`
	Likes     int           `json:"likes,omitempty"`
	Replies   []Comment     `json:"replies,omitempty"`
}

// TranscriptSegment is one time-coded line of a transcript. Start and End
// are seconds from the start of the recording.
type TranscriptSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// MultiLangTranscript groups transcript segments by language code. Only
// constructed when at least two languages produced non-empty segment lists.
type MultiLangTranscript struct {
	DefaultLanguage string                         `json:"defaultLanguage"`
	ByLanguage      map[string][]TranscriptSegment `json:"byLanguage"`
}

// Series links a post to a multi-part series.
type Series struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// NestedPost is a post recovered from inside another document: a quoted
// (shared/reblogged) post or an embedded archive reference. It deliberately
// has no QuotedPost or EmbeddedArchives fields, so nesting deeper than one
// level cannot be represented at all.
type NestedPost struct {
	Platform       Platform `json:"platform"`
	ID             string   `json:"id,omitempty"`
	URL            string   `json:"url,omitempty"`
	Author         Author   `json:"author"`
	Content        Content  `json:"content"`
	Media          []Media  `json:"media"`
	Metadata       Metadata `json:"metadata"`
	DownloadedURLs []string `json:"downloadedUrls,omitempty"`
	ProcessedURLs  []string `json:"processedUrls,omitempty"`
}

// PostData is the fully-assembled record for one archived post document.
// Constructed fresh on every parse and never mutated after return.
type PostData struct {
	Platform            Platform             `json:"platform"`
	ID                  string               `json:"id"`
	URL                 string               `json:"url,omitempty"`
	Title               string               `json:"title,omitempty"`
	Author              Author               `json:"author"`
	Content             Content              `json:"content"`
	Media               []Media              `json:"media"`
	Metadata            Metadata             `json:"metadata"`
	Tags                []string             `json:"tags,omitempty"`
	Comments            []Comment            `json:"comments,omitempty"`
	QuotedPost          *NestedPost          `json:"quotedPost,omitempty"`
	EmbeddedArchives    []*NestedPost        `json:"embeddedArchives,omitempty"`
	IsReblog            bool                 `json:"isReblog,omitempty"`
	Series              *Series              `json:"series,omitempty"`
	WhisperTranscript   []TranscriptSegment  `json:"whisperTranscript,omitempty"`
	MultilangTranscript *MultiLangTranscript `json:"multilangTranscript,omitempty"`
	DownloadedURLs      []string             `json:"downloadedUrls,omitempty"`
	ProcessedURLs       []string             `json:"processedUrls,omitempty"`
	FilePath            string               `json:"filePath"`
	ArchivedAt          time.Time            `json:"archivedAt,omitempty"`
}

// PostIndexEntry is the reduced projection used for filtering, sorting, and
// search over large collections. Built by a cheaper path that never
// materializes nested posts, comments, or transcripts.
type PostIndexEntry struct {
	Path         string   `json:"path"`
	Platform     Platform `json:"platform"`
	ID           string   `json:"id,omitempty"`
	URL          string   `json:"url,omitempty"`
	Title        string   `json:"title,omitempty"`
	AuthorName   string   `json:"authorName,omitempty"`
	AuthorHandle string   `json:"authorHandle,omitempty"`
	Excerpt      string   `json:"excerpt,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Likes        int      `json:"likes"`
	Comments     int      `json:"comments"`
	Shares       int      `json:"shares"`
	Views        int      `json:"views"`
	MediaCount   int      `json:"mediaCount"`
	CommentCount int      `json:"commentCount"`
	SeriesID     string   `json:"seriesId,omitempty"`
	IsReblog     bool     `json:"isReblog,omitempty"`
	Published    string   `json:"published,omitempty"`
	Archived     string   `json:"archived,omitempty"`
}
