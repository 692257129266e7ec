package postparse

import "testing"

const indexDoc = `---
platform: instagram
author: someone
authorHandle: some1
url: https://instagram.com/p/abc
likes: 42
tags: [travel, food]
seriesId: trip-2024
---
A long caption about the trip.

![one](attachments/1.jpg)
![two](attachments/2.jpg)
![[attachments/3.png]]

## 💬 Comments

**[@fan](https://example.com/fan)** · 2024-02-02
Nice.

↳ **[@someone](https://example.com/someone)**
  Thanks!
`

func TestBuildIndexEntry(t *testing.T) {
	e := BuildIndexEntry(Document{Path: "IG/p.md", Text: indexDoc}, nil)
	if e == nil {
		t.Fatal("expected an index entry")
	}
	if e.Path != "IG/p.md" || e.Platform != PlatformInstagram {
		t.Errorf("identity = %q %q", e.Path, e.Platform)
	}
	if e.AuthorName != "someone" || e.AuthorHandle != "some1" {
		t.Errorf("author = %q %q", e.AuthorName, e.AuthorHandle)
	}
	if e.Likes != 42 {
		t.Errorf("likes = %d", e.Likes)
	}
	if e.MediaCount != 3 {
		t.Errorf("mediaCount = %d (coarse pattern count)", e.MediaCount)
	}
	if e.CommentCount != 2 {
		t.Errorf("commentCount = %d (replies included)", e.CommentCount)
	}
	if e.SeriesID != "trip-2024" {
		t.Errorf("seriesId = %q", e.SeriesID)
	}
	if e.Excerpt != "A long caption about the trip." {
		t.Errorf("excerpt = %q", e.Excerpt)
	}
	if e.Shares != -1 {
		t.Errorf("absent counter must be -1, got %d", e.Shares)
	}
}

func TestBuildIndexEntryValidatesLikeParseFile(t *testing.T) {
	for name, text := range map[string]string{
		"no frontmatter":      "plain note\n",
		"no platform":         "---\nauthor: x\n---\n",
		"post missing author": "---\nplatform: post\npublished: 2024-01-01\n---\n",
	} {
		if e := BuildIndexEntry(Document{Path: "n.md", Text: text}, nil); e != nil {
			t.Errorf("%s: expected nil, got %+v", name, e)
		}
	}
}

func TestBuildIndexEntryPrefersCachedFrontmatter(t *testing.T) {
	// The cached map says twitter; the raw text says instagram. The cached
	// form must win without re-scanning.
	e := BuildIndexEntry(
		Document{Path: "t.md", Text: "---\nplatform: instagram\n---\nbody\n"},
		&DocumentHints{Frontmatter: map[string]any{"platform": "twitter", "likes": 3}},
	)
	if e == nil {
		t.Fatal("expected an index entry")
	}
	if e.Platform != PlatformTwitter {
		t.Errorf("platform = %q, cached frontmatter must be preferred", e.Platform)
	}
	if e.Likes != 3 {
		t.Errorf("likes = %d", e.Likes)
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "word "
	}
	got := excerpt(long, 200)
	if len([]rune(got)) > 201 {
		t.Errorf("excerpt too long: %d runes", len([]rune(got)))
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("truncated excerpt must end with ellipsis: %q", got)
	}
}
