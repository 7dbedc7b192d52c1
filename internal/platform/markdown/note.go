package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Note is a markdown document with optional YAML frontmatter.
type Note struct {
	Meta map[string]any
	Body string
}

// Parse splits content into frontmatter and body. Content without a leading
// fence is all body. CRLF line endings are normalized.
func Parse(content string) (Note, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence+"\n") {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := content[len(fence)+1:]
	var raw, body string
	switch idx := strings.Index(rest, "\n"+fence+"\n"); {
	case idx >= 0:
		raw, body = rest[:idx], rest[idx+len(fence)+2:]
	case strings.HasSuffix(rest, "\n"+fence):
		raw = strings.TrimSuffix(rest, "\n"+fence)
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	default:
		return Note{}, fmt.Errorf("invalid frontmatter: missing closing fence")
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return Note{}, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return Note{Meta: meta, Body: body}, nil
}

// Merge overwrites the given keys and leaves every other key alone.
func (n *Note) Merge(meta map[string]any) {
	if n.Meta == nil {
		n.Meta = map[string]any{}
	}
	for k, v := range meta {
		n.Meta[k] = v
	}
}

// SetBlock replaces the generated block named name, or appends it when the
// body has none. Text outside the block is kept as is.
func (n *Note) SetBlock(name, generated string) {
	start := "<!-- " + name + ":start -->"
	end := "<!-- " + name + ":end -->"
	block := start + "\n" + strings.TrimRight(generated, "\n") + "\n" + end

	if s := strings.Index(n.Body, start); s >= 0 {
		if e := strings.Index(n.Body[s:], end); e >= 0 {
			n.Body = n.Body[:s] + block + n.Body[s+e+len(end):]
			return
		}
	}
	switch {
	case strings.TrimSpace(n.Body) == "":
		n.Body = block + "\n"
	case strings.HasSuffix(n.Body, "\n"):
		n.Body += "\n" + block + "\n"
	default:
		n.Body += "\n\n" + block + "\n"
	}
}

// Render writes the note back out with its frontmatter first.
func (n Note) Render() (string, error) {
	buf := bytes.Buffer{}
	if len(n.Meta) > 0 {
		raw, err := yaml.Marshal(n.Meta)
		if err != nil {
			return "", fmt.Errorf("marshal frontmatter: %w", err)
		}
		buf.WriteString(fence + "\n")
		buf.Write(raw)
		buf.WriteString(fence + "\n")
		if !strings.HasPrefix(n.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	buf.WriteString(n.Body)
	return buf.String(), nil
}
