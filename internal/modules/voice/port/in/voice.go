package in

import (
	"context"

	"miso/internal/modules/voice/dto"
)

type Usecase interface {
	// Toggle starts a new session when idle and ends the current one when
	// connected.
	Toggle(ctx context.Context) error
	// Resume rejoins sessionID on user request.
	Resume(ctx context.Context, sessionID string) (dto.ResumeOutput, error)
	// AutoResume rejoins an externally supplied sessionID. Each id triggers
	// at most once per controller.
	AutoResume(ctx context.Context, sessionID string) (dto.ResumeOutput, error)
	ResumeLast(ctx context.Context) (dto.ResumeOutput, error)
	Disconnect(ctx context.Context)
	Snapshot(ctx context.Context) dto.SnapshotOutput
	Watch(fn func(dto.SnapshotOutput)) (stop func())
	Close()
}
