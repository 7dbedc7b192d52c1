package out

import (
	"context"

	"miso/internal/modules/voice/domain"
)

type MicrophoneOptions struct {
	// PreConnectBuffer keeps audio captured before the transport finishes
	// negotiating instead of dropping it.
	PreConnectBuffer bool
}

// Room is the real-time transport the controller drives.
type Room interface {
	Connect(ctx context.Context, serverURL, token string) error
	EnableMicrophone(ctx context.Context, opts MicrophoneOptions) error
	Disconnect() error
	// Subscribe registers handler for room events until the returned func
	// is called.
	Subscribe(handler func(domain.RoomEvent)) (unsubscribe func())
}

type Microphone interface {
	RequestPermission(ctx context.Context) (bool, error)
}

type CredentialSource interface {
	Create(ctx context.Context) (domain.Credential, error)
	Resume(ctx context.Context, sessionID string) (domain.Credential, error)
}

type Notifier interface {
	Notify(notice domain.Notice)
}

type LastSessionStore interface {
	Save(ctx context.Context, last domain.LastSession) error
	Load(ctx context.Context) (domain.LastSession, error)
	Clear(ctx context.Context) error
}
