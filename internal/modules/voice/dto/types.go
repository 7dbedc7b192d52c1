package dto

type SnapshotOutput struct {
	SessionStarted bool
	IsConnecting   bool
	SessionID      string
	State          string
	AgentState     string
	AudioLevel     float64
}

type ResumeOutput struct {
	Triggered bool
	SessionID string
}
