package out

import (
	"context"

	"miso/internal/modules/auth/domain"
	authout "miso/internal/modules/auth/port/out"
	"miso/internal/platform/apiclient"
	"miso/internal/platform/authctx"
)

type authAPI interface {
	SignIn(ctx context.Context, in apiclient.SignInRequest) apiclient.Result[apiclient.AuthResponse]
	SignUp(ctx context.Context, in apiclient.SignUpRequest) apiclient.Result[apiclient.AuthResponse]
	Logout(ctx context.Context)
}

type APIGateway struct {
	api authAPI
}

func NewAPIGateway(api authAPI) authout.Gateway {
	return &APIGateway{api: api}
}

func (g *APIGateway) SignIn(ctx context.Context, creds domain.Credentials) (authctx.User, error) {
	res := g.api.SignIn(ctx, apiclient.SignInRequest{Email: creds.Email, Password: creds.Password})
	if err := res.Err(); err != nil {
		return authctx.User{}, err
	}
	return toUser(res.Data.User), nil
}

func (g *APIGateway) SignUp(ctx context.Context, reg domain.Registration) (string, authctx.User, error) {
	res := g.api.SignUp(ctx, apiclient.SignUpRequest{Email: reg.Email, Password: reg.Password, Username: reg.Username})
	if err := res.Err(); err != nil {
		return "", authctx.User{}, err
	}
	return res.Data.Message, toUser(res.Data.User), nil
}

func (g *APIGateway) Logout(ctx context.Context) {
	g.api.Logout(ctx)
}

func toUser(u apiclient.User) authctx.User {
	return authctx.User{ID: u.ID, Email: u.Email, Username: u.Username}
}
