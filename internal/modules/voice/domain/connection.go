package domain

import "time"

type ConnectionState string

const (
	StateIdle         ConnectionState = "idle"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// AgentState is the remote agent's sub-state as reported by the room.
type AgentState string

const (
	AgentDisconnected AgentState = "disconnected"
	AgentConnecting   AgentState = "connecting"
	AgentInitializing AgentState = "initializing"
	AgentListening    AgentState = "listening"
	AgentThinking     AgentState = "thinking"
	AgentSpeaking     AgentState = "speaking"
)

// Available reports whether the agent has finished joining and can talk.
func (s AgentState) Available() bool {
	return s == AgentListening || s == AgentThinking || s == AgentSpeaking
}

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	SessionStarted bool
	IsConnecting   bool
	SessionID      string
	State          ConnectionState
	AgentState     AgentState
	AudioLevel     float64
}

// LastSession points at the most recently connected session so it can be
// resumed later without looking the id up.
type LastSession struct {
	SessionID   string    `json:"session_id"`
	RoomName    string    `json:"room_name"`
	ConnectedAt time.Time `json:"connected_at"`
}
