package out

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"miso/internal/modules/session/domain"
	sessionout "miso/internal/modules/session/port/out"
	apperrors "miso/internal/platform/errors"
)

const (
	FormatText     = "text"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

type DetailRenderer struct{}

func NewDetailRenderer() sessionout.Renderer {
	return DetailRenderer{}
}

func (DetailRenderer) Render(detail domain.Detail, format string) (string, error) {
	switch format {
	case FormatText, "":
		return renderText(detail), nil
	case FormatYAML, "yml":
		return renderYAML(detail)
	case FormatMarkdown, "md":
		return renderMarkdownBody(detail), nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, format)
	}
}

func renderText(d domain.Detail) string {
	m := d.Metrics()
	b := strings.Builder{}
	fmt.Fprintf(&b, "%s\n", d.DisplayTitle())
	if !d.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started:    %s\n", d.StartedAt.Format("Jan 2, 2006 15:04"))
	}
	fmt.Fprintf(&b, "Duration:   %d min\n", m.DurationMinutes)
	fmt.Fprintf(&b, "Mood:       %d%%\n", m.MoodPercent)
	fmt.Fprintf(&b, "Engagement: %d%%\n", m.EngagementPercent)
	fmt.Fprintf(&b, "Words:      %d\n", m.Words)
	if d.Summary != "" {
		fmt.Fprintf(&b, "\nSummary\n  %s\n", d.Summary)
	}
	if len(d.KeyTopics) > 0 {
		fmt.Fprintf(&b, "\nKey topics\n  %s\n", strings.Join(d.KeyTopics, ", "))
	}
	if len(d.PrimaryEmotions) > 0 {
		fmt.Fprintf(&b, "\nPrimary emotions\n  %s\n", strings.Join(d.PrimaryEmotions, ", "))
	}
	if d.BreakthroughMoments != "" {
		fmt.Fprintf(&b, "\nBreakthrough moments\n  %s\n", d.BreakthroughMoments)
	}
	return b.String()
}

type yamlDetail struct {
	ID                  string   `yaml:"id"`
	Title               string   `yaml:"title"`
	StartedAt           string   `yaml:"started_at,omitempty"`
	Status              string   `yaml:"status,omitempty"`
	DurationMinutes     int      `yaml:"duration_minutes"`
	MoodPercent         int      `yaml:"mood_percent"`
	EngagementPercent   int      `yaml:"engagement_percent"`
	Words               int      `yaml:"words"`
	Summary             string   `yaml:"summary,omitempty"`
	KeyTopics           []string `yaml:"key_topics,omitempty"`
	PrimaryEmotions     []string `yaml:"primary_emotions,omitempty"`
	BreakthroughMoments string   `yaml:"breakthrough_moments,omitempty"`
}

func renderYAML(d domain.Detail) (string, error) {
	m := d.Metrics()
	doc := yamlDetail{
		ID:                  d.ID,
		Title:               d.DisplayTitle(),
		Status:              d.Status,
		DurationMinutes:     m.DurationMinutes,
		MoodPercent:         m.MoodPercent,
		EngagementPercent:   m.EngagementPercent,
		Words:               m.Words,
		Summary:             d.Summary,
		KeyTopics:           d.KeyTopics,
		PrimaryEmotions:     d.PrimaryEmotions,
		BreakthroughMoments: d.BreakthroughMoments,
	}
	if !d.StartedAt.IsZero() {
		doc.StartedAt = d.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal session detail: %w", err)
	}
	return string(raw), nil
}

func renderMarkdownBody(d domain.Detail) string {
	m := d.Metrics()
	b := strings.Builder{}
	fmt.Fprintf(&b, "# %s\n\n", d.DisplayTitle())
	fmt.Fprintf(&b, "- Duration: %d minutes\n- Mood: %d%%\n- Engagement: %d%%\n- Words: %d\n", m.DurationMinutes, m.MoodPercent, m.EngagementPercent, m.Words)
	if d.Summary != "" {
		fmt.Fprintf(&b, "\n## Summary\n\n%s\n", d.Summary)
	}
	if len(d.KeyTopics) > 0 {
		b.WriteString("\n## Key topics\n\n")
		for _, t := range d.KeyTopics {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if len(d.PrimaryEmotions) > 0 {
		b.WriteString("\n## Primary emotions\n\n")
		for _, e := range d.PrimaryEmotions {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if d.BreakthroughMoments != "" {
		fmt.Fprintf(&b, "\n## Breakthrough moments\n\n%s\n", d.BreakthroughMoments)
	}
	return b.String()
}
