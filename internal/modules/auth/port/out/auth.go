package out

import (
	"context"

	"miso/internal/modules/auth/domain"
	"miso/internal/platform/authctx"
)

// Gateway is the backend's authentication surface.
type Gateway interface {
	SignIn(ctx context.Context, creds domain.Credentials) (authctx.User, error)
	SignUp(ctx context.Context, reg domain.Registration) (string, authctx.User, error)
	Logout(ctx context.Context)
}

type UserContext interface {
	Init(ctx context.Context, user authctx.User) error
	User(ctx context.Context) (authctx.User, error)
}
