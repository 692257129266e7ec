package postparse

import (
	"strings"
	"testing"
)

func TestExtractEmbeddedArchives(t *testing.T) {
	doc := `---
platform: post
author: tester
published: 2024-11-11
---
Check out this post I found.

## 📦 Referenced Social Media Posts

### Facebook - handle123

Body paragraph of the referenced post.

**Media:**
![pic](../attachments/pic.jpg)

**Original URL:** https://facebook.com/x
`
	parent := &PostData{FilePath: "Social Archives/Posts/note.md", DownloadedURLs: []string{"https://d.com/1"}}
	archives := ExtractEmbeddedArchives(doc, parent)
	if len(archives) != 1 {
		t.Fatalf("got %d archives, want 1", len(archives))
	}
	a := archives[0]
	if a.Platform != PlatformFacebook {
		t.Errorf("platform = %q", a.Platform)
	}
	if a.Author.Handle != "handle123" {
		t.Errorf("handle = %q", a.Author.Handle)
	}
	if a.URL != "https://facebook.com/x" {
		t.Errorf("url = %q", a.URL)
	}
	if len(a.Media) != 1 {
		t.Fatalf("got %d media, want 1", len(a.Media))
	}
	if a.Media[0].URL != "Social Archives/attachments/pic.jpg" {
		t.Errorf("media url = %q", a.Media[0].URL)
	}
	if a.Content.Text != "Body paragraph of the referenced post." {
		t.Errorf("content = %q", a.Content.Text)
	}
	if len(a.DownloadedURLs) != 1 {
		t.Error("downloadedUrls must be inherited from the parent")
	}
}

func TestExtractEmbeddedArchivesMultipleBlocks(t *testing.T) {
	doc := `## Referenced Social Media Posts

### Twitter - first

First body.

**Original URL:** https://x.com/1

---

### Reddit - second

Second body.

**Original URL:** https://reddit.com/2
`
	archives := ExtractEmbeddedArchives(doc, nil)
	if len(archives) != 2 {
		t.Fatalf("got %d archives, want 2", len(archives))
	}
	if archives[0].Platform != PlatformTwitter || archives[1].Platform != PlatformReddit {
		t.Errorf("platforms = %q, %q", archives[0].Platform, archives[1].Platform)
	}
}

func TestExtractEmbeddedArchivesDropsBadBlock(t *testing.T) {
	doc := `## 📦 Referenced Social Media Posts

### Twitter - good

Fine body.

**Original URL:** https://x.com/1

---

<!-- corrupted block with no recoverable fields -->

---

### Mastodon - alsogood

Another body.

**Original URL:** https://m.social/2
`
	archives := ExtractEmbeddedArchives(doc, nil)
	if len(archives) != 2 {
		t.Fatalf("got %d archives, want 2 (bad block dropped)", len(archives))
	}
	if archives[0].Platform != PlatformTwitter || archives[1].Platform != PlatformMastodon {
		t.Errorf("platforms = %q, %q", archives[0].Platform, archives[1].Platform)
	}
}

func TestExtractQuotedPost(t *testing.T) {
	doc := `---
platform: tumblr
---
My commentary.

## 🔄 Reblogged Post

> Original words from the other blog.

**Author:** [origblog](https://origblog.tumblr.com)
**Original URL:** https://origblog.tumblr.com/post/1
**Likes:** 1,204
`
	q := ExtractQuotedPost(doc, nil)
	if q == nil {
		t.Fatal("expected quoted post")
	}
	if q.Author.Name != "origblog" || q.Author.URL != "https://origblog.tumblr.com" {
		t.Errorf("author = %+v", q.Author)
	}
	if q.URL != "https://origblog.tumblr.com/post/1" {
		t.Errorf("url = %q", q.URL)
	}
	if q.Metadata.Likes != 1204 {
		t.Errorf("likes = %d", q.Metadata.Likes)
	}
	if q.Content.Text != "Original words from the other blog." {
		t.Errorf("content = %q (block-quote prefix must be stripped)", q.Content.Text)
	}
}

func TestQuotedPostDepthCap(t *testing.T) {
	doc := `## 🔗 Shared Post

Outer quoted content.

` + markerSharedPost + `

An inner marker must be stripped, not recursed into.

**Original URL:** https://x.com/outer
`
	q := ExtractQuotedPost(doc, nil)
	if q == nil {
		t.Fatal("expected quoted post")
	}
	if strings.Contains(q.Content.Text, markerSharedPost) ||
		strings.Contains(q.Content.Text, markerRebloggedPost) {
		t.Errorf("inner marker survived in content: %q", q.Content.Text)
	}
	if !strings.Contains(q.Content.Text, "Outer quoted content.") {
		t.Errorf("outer content lost: %q", q.Content.Text)
	}
}

func TestSplitNestedMetaLastFooterWins(t *testing.T) {
	block := `Content that mentions **Author:** styling in prose.
More content.

**Author:** real-author
**Original URL:** https://x.com/1
`
	content, meta := splitNestedMeta(block)
	if footerValue(meta, "Author") != "real-author" {
		t.Errorf("meta author = %q", footerValue(meta, "Author"))
	}
	if !strings.Contains(content, "More content.") {
		t.Errorf("content = %q", content)
	}
}
