package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"miso/internal/modules/session/domain"
	sessionout "miso/internal/modules/session/port/out"
	"miso/internal/platform/markdown"
	"miso/internal/platform/slug"
)

const noteBlock = "miso:session"

// MarkdownNoteStore writes one note per session under
// sessions/YYYY/MM/DD. Re-exporting rewrites the generated block and the
// managed frontmatter keys; anything else the user wrote is kept.
type MarkdownNoteStore struct{}

func NewMarkdownNoteStore() sessionout.NoteStore {
	return MarkdownNoteStore{}
}

func (MarkdownNoteStore) Save(_ context.Context, root string, detail domain.Detail) (string, error) {
	date := detail.StartedAt
	if date.IsZero() {
		return "", fmt.Errorf("session %s has no start time", detail.ID)
	}
	dir := filepath.Join(root, "sessions", date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", date.Format("150405"), slug.Make(detail.DisplayTitle()))
	path := filepath.Join(dir, name)

	note := markdown.Note{}
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		note, err = markdown.Parse(string(existing))
		if err != nil {
			return "", fmt.Errorf("parse existing note %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read existing note: %w", err)
	}

	m := detail.Metrics()
	note.Merge(map[string]any{
		"schema_version":     domain.SchemaVersion,
		"id":                 detail.ID,
		"title":              detail.DisplayTitle(),
		"started_at":         date.Format("2006-01-02T15:04:05Z07:00"),
		"status":             detail.Status,
		"duration_minutes":   m.DurationMinutes,
		"mood_percent":       m.MoodPercent,
		"engagement_percent": m.EngagementPercent,
		"words":              m.Words,
	})
	note.SetBlock(noteBlock, renderMarkdownBody(detail))
	rendered, err := note.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}
