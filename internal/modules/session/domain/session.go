package domain

import (
	"math"
	"time"
)

const SchemaVersion = 1

const defaultTitle = "Session Details"

type Summary struct {
	ID        string
	Title     string
	StartedAt time.Time
	Status    string
	MoodScore *float64
	Duration  *float64
}

type Detail struct {
	ID                  string
	Title               string
	StartedAt           time.Time
	Status              string
	Duration            float64
	MoodScore           float64
	EngagementScore     float64
	WordCount           int
	Summary             string
	KeyTopics           []string
	PrimaryEmotions     []string
	BreakthroughMoments string
}

// Metrics are the rounded figures shown on a session page. Scores arrive on
// a 0-10 scale and are shown as percentages.
type Metrics struct {
	DurationMinutes   int
	MoodPercent       int
	EngagementPercent int
	Words             int
}

func (d Detail) Metrics() Metrics {
	return Metrics{
		DurationMinutes:   int(math.Round(d.Duration / 60)),
		MoodPercent:       int(math.Round(d.MoodScore * 10)),
		EngagementPercent: int(math.Round(d.EngagementScore * 10)),
		Words:             d.WordCount,
	}
}

func (d Detail) DisplayTitle() string {
	if d.Title == "" {
		return defaultTitle
	}
	return d.Title
}

// ParseTimestamp accepts the backend's ISO timestamps with or without a zone.
func ParseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
