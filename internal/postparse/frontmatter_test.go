package postparse

import (
	"reflect"
	"testing"
)

func TestParseFrontmatterScalars(t *testing.T) {
	fm, ok := ParseFrontmatter(`---
platform: twitter
likes: 42
ratio: 1.5
verified: true
title: "Hello \"world\""
broken: "unterminated \q escape"
---
body`)
	if !ok {
		t.Fatal("expected frontmatter block")
	}
	if fm.String("platform") != "twitter" {
		t.Errorf("platform = %q", fm.String("platform"))
	}
	if fm.Int("likes") != 42 {
		t.Errorf("likes = %d", fm.Int("likes"))
	}
	if fm["ratio"] != 1.5 {
		t.Errorf("ratio = %v", fm["ratio"])
	}
	if !fm.Bool("verified") {
		t.Error("verified should be true")
	}
	if fm.String("title") != `Hello "world"` {
		t.Errorf("title = %q", fm.String("title"))
	}
	// malformed escape falls back to quote stripping, not failure
	if fm.String("broken") != `unterminated \q escape` {
		t.Errorf("broken = %q", fm.String("broken"))
	}
}

func TestParseFrontmatterArrays(t *testing.T) {
	fm, ok := ParseFrontmatter(`---
tags: [archive, "social media"]
downloadedUrls:
  - https://a.com/1.jpg
  - https://a.com/2.jpg
---
`)
	if !ok {
		t.Fatal("expected frontmatter block")
	}
	if got := fm.Strings("tags"); !reflect.DeepEqual(got, []string{"archive", "social media"}) {
		t.Errorf("tags = %v", got)
	}
	if got := fm.Strings("downloadedUrls"); len(got) != 2 || got[1] != "https://a.com/2.jpg" {
		t.Errorf("downloadedUrls = %v", got)
	}
}

func TestParseFrontmatterPendingArrayLeftAbsent(t *testing.T) {
	fm, ok := ParseFrontmatter(`---
platform: post
transcribedUrls:
author: tester
---
`)
	if !ok {
		t.Fatal("expected frontmatter block")
	}
	if fm.Has("transcribedUrls") {
		t.Error("empty key with no items should stay absent, not become []")
	}
	if fm.String("author") != "tester" {
		t.Errorf("author = %q", fm.String("author"))
	}
}

func TestParseFrontmatterAbsent(t *testing.T) {
	if _, ok := ParseFrontmatter("just a note\n"); ok {
		t.Error("text without a leading --- must report no frontmatter")
	}
	if _, ok := ParseFrontmatter("---\nplatform: x\nno closing delimiter"); ok {
		t.Error("unterminated block must report no frontmatter")
	}
}

func TestFrontmatterIntSentinel(t *testing.T) {
	fm, _ := ParseFrontmatter("---\nlikes: \"1200\"\n---\n")
	if fm.Int("likes") != 1200 {
		t.Errorf("quoted numeric string: likes = %d", fm.Int("likes"))
	}
	if fm.Int("views") != -1 {
		t.Errorf("absent counter must be -1, got %d", fm.Int("views"))
	}
}
