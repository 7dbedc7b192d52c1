package markdown_test

import (
	"strings"
	"testing"

	"miso/internal/platform/markdown"
)

func TestParseSplitsFrontmatter(t *testing.T) {
	t.Parallel()
	note, err := markdown.Parse("---\r\ntitle: Hello\r\nmood: 7\r\n---\r\nbody text\r\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if note.Meta["title"] != "Hello" || note.Meta["mood"] != 7 {
		t.Fatalf("unexpected meta %#v", note.Meta)
	}
	if note.Body != "body text\n" {
		t.Fatalf("unexpected body %q", note.Body)
	}
}

func TestParseWithoutFrontmatterIsAllBody(t *testing.T) {
	t.Parallel()
	note, err := markdown.Parse("just text")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(note.Meta) != 0 || note.Body != "just text" {
		t.Fatalf("unexpected note %#v", note)
	}
}

func TestParseRejectsUnclosedFrontmatter(t *testing.T) {
	t.Parallel()
	if _, err := markdown.Parse("---\ntitle: x\nbody"); err == nil {
		t.Fatalf("expected error for unclosed frontmatter")
	}
}

func TestSetBlockReplacesOnlyGeneratedText(t *testing.T) {
	t.Parallel()
	note := markdown.Note{Body: "intro\n"}
	note.SetBlock("miso:session", "first")
	note.Body += "\nmine\n"
	note.SetBlock("miso:session", "second\n")

	if strings.Contains(note.Body, "first") || !strings.Contains(note.Body, "second") {
		t.Fatalf("block not replaced:\n%s", note.Body)
	}
	if !strings.HasPrefix(note.Body, "intro\n") || !strings.HasSuffix(note.Body, "mine\n") {
		t.Fatalf("user text lost:\n%s", note.Body)
	}
	if strings.Count(note.Body, "<!-- miso:session:start -->") != 1 {
		t.Fatalf("expected one block:\n%s", note.Body)
	}
}

func TestMergeKeepsUnmanagedKeys(t *testing.T) {
	t.Parallel()
	note, err := markdown.Parse("---\ntags: [journal]\nmood_percent: 80\n---\nbody\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	note.Merge(map[string]any{"mood_percent": 90})
	out, err := note.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "mood_percent: 90") || !strings.Contains(out, "- journal") {
		t.Fatalf("unexpected render:\n%s", out)
	}
	if !strings.HasPrefix(out, "---\n") || !strings.HasSuffix(out, "\nbody\n") {
		t.Fatalf("unexpected layout:\n%s", out)
	}
}
