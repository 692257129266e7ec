package postparse

import "testing"

func TestExtractContentTextGalleryStop(t *testing.T) {
	doc := `---
platform: instagram
---
Caption text.

---

![image 1](attachments/1.jpg)
![image 2](attachments/2.jpg)
![image 3](attachments/3.jpg)

---

**Platform:** Instagram
**Original URL:** https://instagram.com/p/x
`
	if got := ExtractContentText(doc); got != "Caption text." {
		t.Errorf("content = %q, want %q", got, "Caption text.")
	}
}

func TestExtractContentTextPreservesInternalRules(t *testing.T) {
	doc := `---
platform: tumblr
---
First part.

---

Second part after a legitimate in-body rule.

---

**Platform:** Tumblr
`
	got := ExtractContentText(doc)
	want := "First part.\n\n---\n\nSecond part after a legitimate in-body rule."
	if got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestExtractContentTextImageOnlyDocument(t *testing.T) {
	doc := `---
platform: instagram
---
![photo](attachments/only.jpg)

**Platform:** Instagram
`
	if got := ExtractContentText(doc); got != "" {
		t.Errorf("image-only document must yield empty content, got %q", got)
	}
}

func TestExtractContentTextSkipsNestedSections(t *testing.T) {
	doc := `---
platform: tumblr
---
My commentary on this.

## 🔄 Reblogged Post

> Someone else's words.

**Platform:** Tumblr

## 💬 Comments

**[@fan](https://t.co/fan)** · 2024-01-01
Nice one.
`
	got := ExtractContentText(doc)
	if got != "My commentary on this." {
		t.Errorf("content = %q", got)
	}
}

func TestExtractContentTextSkipsLeadingHeadersAndLabels(t *testing.T) {
	doc := `---
platform: facebook
---
# Some Title

**Platform:** noise that is a footer label line

Actual prose starts here.
`
	// the footer label line before prose is skipped as leading noise
	if got := ExtractContentText(doc); got != "Actual prose starts here." {
		t.Errorf("content = %q", got)
	}
}

func TestIsHorizontalRule(t *testing.T) {
	for _, line := range []string{"---", "----", "***", "___", "- - -", "  ---  "} {
		if !isHorizontalRule(line) {
			t.Errorf("%q should be a rule", line)
		}
	}
	for _, line := range []string{"--", "-*-", "text", "--- not a rule"} {
		if isHorizontalRule(line) {
			t.Errorf("%q should not be a rule", line)
		}
	}
}
