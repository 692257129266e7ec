package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vaultarc/postarc/internal/postparse"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListSkipsConfiguredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Posts/a.md", "a")
	writeFile(t, root, "Posts/deep/b.md", "b")
	writeFile(t, root, ".obsidian/workspace.md", "ignored")
	writeFile(t, root, "node_modules/pkg/readme.md", "ignored")
	writeFile(t, root, "CLAUDE.md", "ignored")
	writeFile(t, root, "Posts/image.png", "not markdown")

	v := New(root)
	paths, err := v.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Posts/a.md", "Posts/deep/b.md"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestReadReturnsDocumentWithModTime(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Posts/a.md", "---\nplatform: post\n---\nbody\n")

	v := New(root)
	doc, err := v.Read("Posts/a.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Path != "Posts/a.md" {
		t.Errorf("path = %q", doc.Path)
	}
	if doc.Text == "" || doc.Created.IsZero() {
		t.Errorf("doc = %+v", doc)
	}
}

func TestReadRejectsEscape(t *testing.T) {
	v := New(t.TempDir())
	if _, err := v.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if _, err := v.Read("/etc/passwd"); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestHintsEmbedsAndFrontmatter(t *testing.T) {
	root := t.TempDir()
	v := New(root)

	text := "---\nplatform: instagram\nlikes: 4\n---\nbody\n\n![[attachments/pic.jpg|alias]]\nmore\n![[clip.mp4]]\n"
	hints := v.Hints("Posts/a.md", text)
	if hints == nil {
		t.Fatal("expected hints")
	}
	if hints.Frontmatter["platform"] != "instagram" {
		t.Errorf("frontmatter = %v", hints.Frontmatter)
	}
	if len(hints.Embeds) != 2 {
		t.Fatalf("embeds = %v", hints.Embeds)
	}
	if hints.Embeds[0].Link != "attachments/pic.jpg" {
		t.Errorf("alias must be stripped, got %q", hints.Embeds[0].Link)
	}
	if hints.Embeds[0].Offset >= hints.Embeds[1].Offset {
		t.Errorf("offsets out of order: %+v", hints.Embeds)
	}
}

func TestHintsCoverBothEmbedSyntaxes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "attachments/inline.jpg", "x")
	writeFile(t, root, "attachments/embed.png", "x")

	v := New(root)
	text := "---\nplatform: instagram\nauthor: a\n---\nbody\n\n" +
		"![inline](attachments/inline.jpg)\n" +
		"![ext](https://cdn.example.com/far.jpg)\n" +
		"![[attachments/embed.png]]\n"

	hints := v.Hints("post.md", text)

	fromHints := postparse.MediaPathsFromHints(text, hints, "post.md")
	fromScan := postparse.ExtractMediaPaths(text)

	want := []string{"attachments/inline.jpg", "attachments/embed.png"}
	for name, got := range map[string][]string{"hints": fromHints, "scan": fromScan} {
		if len(got) != len(want) {
			t.Fatalf("%s paths = %v, want %v", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s paths[%d] = %q, want %q", name, i, got[i], want[i])
			}
		}
	}
}

func TestResolveLinkExactAndBasename(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Posts/attachments/pic.jpg", "x")
	writeFile(t, root, "Media/clip.mp4", "x")
	writeFile(t, root, "Deep/nested/dir/clip.mp4", "x")

	v := New(root)

	// relative to the referencing document's directory
	if got := v.resolveLink("attachments/pic.jpg", "Posts/a.md"); got != "Posts/attachments/pic.jpg" {
		t.Errorf("relative resolve = %q", got)
	}
	// vault-root relative
	if got := v.resolveLink("Media/clip.mp4", "Posts/a.md"); got != "Media/clip.mp4" {
		t.Errorf("root resolve = %q", got)
	}
	// bare basename picks the shortest matching path
	if got := v.resolveLink("clip.mp4", "Posts/a.md"); got != "Media/clip.mp4" {
		t.Errorf("basename resolve = %q", got)
	}
	if got := v.resolveLink("missing.png", "Posts/a.md"); got != "" {
		t.Errorf("missing target must not resolve, got %q", got)
	}
}
