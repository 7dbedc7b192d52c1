package dto

import "time"

type SummaryOutput struct {
	ID        string
	Title     string
	StartedAt time.Time
	Status    string
	MoodScore *float64
	Duration  *float64
}

type MonthGroupOutput struct {
	MonthName string
	MonthKey  string
	Sessions  []SummaryOutput
}

type HistoryOutput struct {
	Groups      []MonthGroupOutput
	CurrentPage int
	TotalCount  int
	HasNext     bool
	// Warning is set when the history could not be loaded but the caller may
	// carry on with an empty list.
	Warning string
}

type DetailOutput struct {
	ID                  string
	Title               string
	StartedAt           time.Time
	Status              string
	DurationMinutes     int
	MoodPercent         int
	EngagementPercent   int
	Words               int
	Summary             string
	KeyTopics           []string
	PrimaryEmotions     []string
	BreakthroughMoments string
}

type DeleteOutput struct {
	SessionID string
	Message   string
}

type ExportInput struct {
	SessionID string
	Format    string
}

type ExportNoteInput struct {
	SessionID string
	Dir       string
}

type ExportNoteOutput struct {
	SessionID string
	Path      string
}
