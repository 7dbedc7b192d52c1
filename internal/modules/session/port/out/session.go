package out

import (
	"context"

	"miso/internal/modules/session/domain"
	"miso/internal/platform/authctx"
)

// HistoryGateway talks to the backend. Implementations wrap a 401 in
// apperrors.ErrNotAuthenticated and a 404 in apperrors.ErrNotFound.
type HistoryGateway interface {
	ListPage(ctx context.Context, page, pageSize int) (domain.History, error)
	Get(ctx context.Context, sessionID string) (domain.Detail, error)
	Delete(ctx context.Context, sessionID string) (string, error)
}

type UserSource interface {
	User(ctx context.Context) (authctx.User, error)
}

// Renderer turns a session detail into one of the export formats.
type Renderer interface {
	Render(detail domain.Detail, format string) (string, error)
}

// NoteStore writes a session note into a directory tree and returns its path.
type NoteStore interface {
	Save(ctx context.Context, dir string, detail domain.Detail) (string, error)
}
