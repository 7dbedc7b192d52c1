package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	voiceout "miso/internal/modules/voice/adapter/out"
	"miso/internal/modules/voice/domain"
	portout "miso/internal/modules/voice/port/out"
	"miso/internal/modules/voice/service"
	"miso/internal/modules/voice/usecase"
	apperrors "miso/internal/platform/errors"
)

type nopRoom struct{}

func (nopRoom) Connect(context.Context, string, string) error { return nil }
func (nopRoom) EnableMicrophone(context.Context, portout.MicrophoneOptions) error {
	return nil
}
func (nopRoom) Disconnect() error                       { return nil }
func (nopRoom) Subscribe(func(domain.RoomEvent)) func() { return func() {} }

type allowMic struct{}

func (allowMic) RequestPermission(context.Context) (bool, error) { return true, nil }

type stubCredentials struct {
	token   string
	resumed []string
}

func (s *stubCredentials) Create(context.Context) (domain.Credential, error) {
	return domain.Credential{RoomName: "room-1", Token: s.token, SessionID: "sess-1"}, nil
}

func (s *stubCredentials) Resume(_ context.Context, id string) (domain.Credential, error) {
	s.resumed = append(s.resumed, id)
	return domain.Credential{RoomName: "room-1", Token: s.token, SessionID: id, IsResume: true}, nil
}

func token(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestResumeLastUsesRememberedSession(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	last := voiceout.NewFileLastSessionStore(dataDir)
	creds := &stubCredentials{token: token(t)}
	newUsecase := func() (*service.Controller, func()) {
		ctrl := service.NewController(service.Config{ServerURL: "wss://rooms.example.com"}, service.Deps{
			Room:        nopRoom{},
			Microphone:  allowMic{},
			Credentials: creds,
			LastSession: last,
		})
		return ctrl, ctrl.Close
	}

	first, closeFirst := newUsecase()
	uc := usecase.NewInteractor(first, last)
	if _, err := uc.ResumeLast(context.Background()); !errors.Is(err, apperrors.ErrNoLastSession) {
		t.Fatalf("expected no last session, got %v", err)
	}
	if err := uc.Toggle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap := uc.Snapshot(context.Background()); !snap.SessionStarted || snap.SessionID != "sess-1" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	closeFirst()

	second, closeSecond := newUsecase()
	defer closeSecond()
	uc = usecase.NewInteractor(second, last)
	out, err := uc.ResumeLast(context.Background())
	if err != nil || !out.Triggered || out.SessionID != "sess-1" {
		t.Fatalf("resume last: %+v %v", out, err)
	}
	if len(creds.resumed) != 1 || creds.resumed[0] != "sess-1" {
		t.Fatalf("expected resume of sess-1, got %v", creds.resumed)
	}
}

type goneCredentials struct{}

func (goneCredentials) Create(context.Context) (domain.Credential, error) {
	return domain.Credential{}, apperrors.ErrNotFound
}

func (goneCredentials) Resume(context.Context, string) (domain.Credential, error) {
	return domain.Credential{}, apperrors.ErrNotFound
}

type brokenLastSession struct {
	clears int
}

func (s *brokenLastSession) Save(context.Context, domain.LastSession) error { return nil }

func (s *brokenLastSession) Load(context.Context) (domain.LastSession, error) {
	return domain.LastSession{SessionID: "sess-gone"}, nil
}

func (s *brokenLastSession) Clear(context.Context) error {
	s.clears++
	return errors.New("disk full")
}

func TestResumeLastReportsMissingSessionWhenForgetFails(t *testing.T) {
	t.Parallel()
	last := &brokenLastSession{}
	ctrl := service.NewController(service.Config{ServerURL: "wss://rooms.example.com"}, service.Deps{
		Room:        nopRoom{},
		Microphone:  allowMic{},
		Credentials: goneCredentials{},
		LastSession: last,
	})
	defer ctrl.Close()

	_, err := usecase.NewInteractor(ctrl, last).ResumeLast(context.Background())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if last.clears != 1 {
		t.Fatalf("expected one clear attempt, got %d", last.clears)
	}
}

func TestAutoResumeFiresOnceButManualResumeRepeats(t *testing.T) {
	t.Parallel()
	creds := &stubCredentials{token: token(t)}
	ctrl := service.NewController(service.Config{ServerURL: "wss://rooms.example.com"}, service.Deps{
		Room:        nopRoom{},
		Microphone:  allowMic{},
		Credentials: creds,
	})
	defer ctrl.Close()
	uc := usecase.NewInteractor(ctrl, nil)
	ctx := context.Background()

	if out, err := uc.AutoResume(ctx, "abc123"); err != nil || !out.Triggered {
		t.Fatalf("auto resume: %+v %v", out, err)
	}
	uc.Disconnect(ctx)
	if out, _ := uc.AutoResume(ctx, "abc123"); out.Triggered {
		t.Fatalf("auto resume must not fire twice")
	}
	if out, err := uc.Resume(ctx, "abc123"); err != nil || !out.Triggered {
		t.Fatalf("manual resume: %+v %v", out, err)
	}
	if len(creds.resumed) != 2 {
		t.Fatalf("expected two resume calls, got %v", creds.resumed)
	}
}
