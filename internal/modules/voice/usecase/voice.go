package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"miso/internal/modules/voice/domain"
	voicedto "miso/internal/modules/voice/dto"
	voicein "miso/internal/modules/voice/port/in"
	voiceout "miso/internal/modules/voice/port/out"
	"miso/internal/modules/voice/service"
	apperrors "miso/internal/platform/errors"
	"miso/internal/platform/logging"
)

type Interactor struct {
	controller *service.Controller
	last       voiceout.LastSessionStore
	log        zerolog.Logger
}

func NewInteractor(controller *service.Controller, last voiceout.LastSessionStore) voicein.Usecase {
	return &Interactor{controller: controller, last: last, log: logging.Module("voice")}
}

func (i *Interactor) Toggle(ctx context.Context) error {
	return i.controller.Activate(ctx)
}

func (i *Interactor) Resume(ctx context.Context, sessionID string) (voicedto.ResumeOutput, error) {
	triggered, err := i.controller.Resume(ctx, sessionID)
	return voicedto.ResumeOutput{Triggered: triggered, SessionID: sessionID}, err
}

func (i *Interactor) AutoResume(ctx context.Context, sessionID string) (voicedto.ResumeOutput, error) {
	triggered, err := i.controller.RequestResume(ctx, sessionID)
	return voicedto.ResumeOutput{Triggered: triggered, SessionID: sessionID}, err
}

func (i *Interactor) ResumeLast(ctx context.Context) (voicedto.ResumeOutput, error) {
	if i.last == nil {
		return voicedto.ResumeOutput{}, apperrors.ErrNoLastSession
	}
	last, err := i.last.Load(ctx)
	if err != nil {
		return voicedto.ResumeOutput{}, err
	}
	out, err := i.Resume(ctx, last.SessionID)
	if errors.Is(err, apperrors.ErrNotFound) {
		if cerr := i.last.Clear(ctx); cerr != nil {
			i.log.Warn().Err(cerr).Str("session_id", last.SessionID).Msg("failed to forget last session")
		}
	}
	return out, err
}

func (i *Interactor) Disconnect(_ context.Context) {
	i.controller.Disconnect()
}

func (i *Interactor) Snapshot(_ context.Context) voicedto.SnapshotOutput {
	return toSnapshotOutput(i.controller.Snapshot())
}

func (i *Interactor) Watch(fn func(voicedto.SnapshotOutput)) func() {
	return i.controller.Subscribe(func(s domain.Snapshot) { fn(toSnapshotOutput(s)) })
}

func (i *Interactor) Close() {
	i.controller.Close()
}

func toSnapshotOutput(s domain.Snapshot) voicedto.SnapshotOutput {
	return voicedto.SnapshotOutput{
		SessionStarted: s.SessionStarted,
		IsConnecting:   s.IsConnecting,
		SessionID:      s.SessionID,
		State:          string(s.State),
		AgentState:     string(s.AgentState),
		AudioLevel:     s.AudioLevel,
	}
}
