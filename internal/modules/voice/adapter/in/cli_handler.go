package in

import (
	"context"

	voicedto "miso/internal/modules/voice/dto"
	voicein "miso/internal/modules/voice/port/in"
)

type CLIHandler struct {
	usecase voicein.Usecase
}

func NewCLIHandler(usecase voicein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Run starts or resumes a session and blocks until it ends or ctx is done.
// resumeID "last" resumes the most recently connected session. onChange, if
// set, receives every state change.
func (h CLIHandler) Run(ctx context.Context, resumeID string, onChange func(voicedto.SnapshotOutput)) error {
	ended := make(chan struct{}, 1)
	stop := h.usecase.Watch(func(s voicedto.SnapshotOutput) {
		if onChange != nil {
			onChange(s)
		}
		if s.State == "idle" {
			select {
			case ended <- struct{}{}:
			default:
			}
		}
	})
	defer stop()

	var err error
	switch resumeID {
	case "":
		err = h.usecase.Toggle(ctx)
	case "last":
		_, err = h.usecase.ResumeLast(ctx)
	default:
		_, err = h.usecase.AutoResume(ctx, resumeID)
	}
	if err != nil {
		return err
	}
	if !h.usecase.Snapshot(ctx).SessionStarted {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			h.usecase.Disconnect(context.WithoutCancel(ctx))
			return nil
		case <-ended:
			if !h.usecase.Snapshot(ctx).SessionStarted {
				return nil
			}
		}
	}
}

func (h CLIHandler) Toggle(ctx context.Context) error {
	return h.usecase.Toggle(ctx)
}

func (h CLIHandler) Resume(ctx context.Context, sessionID string) (voicedto.ResumeOutput, error) {
	return h.usecase.Resume(ctx, sessionID)
}

func (h CLIHandler) AutoResume(ctx context.Context, sessionID string) (voicedto.ResumeOutput, error) {
	return h.usecase.AutoResume(ctx, sessionID)
}

func (h CLIHandler) ResumeLast(ctx context.Context) (voicedto.ResumeOutput, error) {
	return h.usecase.ResumeLast(ctx)
}

func (h CLIHandler) Disconnect(ctx context.Context) {
	h.usecase.Disconnect(ctx)
}

func (h CLIHandler) Snapshot(ctx context.Context) voicedto.SnapshotOutput {
	return h.usecase.Snapshot(ctx)
}

func (h CLIHandler) Watch(fn func(voicedto.SnapshotOutput)) func() {
	return h.usecase.Watch(fn)
}

func (h CLIHandler) Close() {
	h.usecase.Close()
}
