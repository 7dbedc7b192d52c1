package domain

type NoticeKind string

const (
	NoticePermissionDenied NoticeKind = "permission_denied"
	NoticeCredentialFailed NoticeKind = "credential_failed"
	NoticeConnectionFailed NoticeKind = "connection_failed"
	NoticeAgentTimeout     NoticeKind = "agent_timeout"
	NoticeDeviceError      NoticeKind = "device_error"
)

const (
	MessagePermissionDenied = "Microphone access is required for voice sessions. Please allow microphone access to continue."
	MessageStartFailed      = "Failed to start session"
	MessageAgentNeverJoined = "Agent did not join the room."
	MessageAgentNotReady    = "Agent connected but did not complete initializing."
)

// Notice is a user-facing notification, separate from returned errors.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}
