package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNotSignedIn       = errors.New("not signed in")
	ErrNotAuthenticated  = errors.New("authentication required")
	ErrNoSessionData     = errors.New("no session data received")
	ErrCredentialExpired = errors.New("session credential expired")
	ErrRoomURLMissing    = errors.New("server url not found")
	ErrMicrophoneDenied  = errors.New("microphone access denied")
	ErrNotConnected      = errors.New("room is not connected")
	ErrNoMorePages       = errors.New("no more sessions to load")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrControllerClosed  = errors.New("controller closed")
	ErrNoLastSession     = errors.New("no previous session to resume")
)
