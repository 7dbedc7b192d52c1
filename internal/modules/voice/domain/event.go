package domain

type RoomEventKind string

const (
	EventDisconnected      RoomEventKind = "disconnected"
	EventMediaDeviceError  RoomEventKind = "media_device_error"
	EventAgentStateChanged RoomEventKind = "agent_state_changed"
	EventParticipantJoined RoomEventKind = "participant_joined"
	EventParticipantLeft   RoomEventKind = "participant_left"
	EventAudioLevel        RoomEventKind = "audio_level"
)

// RoomEvent is a lifecycle signal from the room transport. Only the fields
// relevant to Kind are set.
type RoomEvent struct {
	Kind        RoomEventKind
	AgentState  AgentState
	Participant string
	Level       float64
	Reason      string
	Err         error
}
