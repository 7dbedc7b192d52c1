package service

import (
	"context"
	"fmt"

	"miso/internal/modules/auth/domain"
	authout "miso/internal/modules/auth/port/out"
	"miso/internal/platform/authctx"
)

type AuthService struct {
	gateway authout.Gateway
	users   authout.UserContext
}

func NewAuthService(gateway authout.Gateway, users authout.UserContext) *AuthService {
	return &AuthService{gateway: gateway, users: users}
}

func (s *AuthService) SignIn(ctx context.Context, creds domain.Credentials) (authctx.User, error) {
	creds = creds.Normalize()
	if err := creds.Validate(); err != nil {
		return authctx.User{}, err
	}
	user, err := s.gateway.SignIn(ctx, creds)
	if err != nil {
		return authctx.User{}, err
	}
	if err := s.users.Init(ctx, user); err != nil {
		return authctx.User{}, fmt.Errorf("cache user: %w", err)
	}
	return user, nil
}

// SignUp registers an account. The backend does not sign the new user in, so
// nothing is cached.
func (s *AuthService) SignUp(ctx context.Context, reg domain.Registration) (string, authctx.User, error) {
	reg.Credentials = reg.Credentials.Normalize()
	if err := reg.Validate(); err != nil {
		return "", authctx.User{}, err
	}
	return s.gateway.SignUp(ctx, reg)
}

func (s *AuthService) Logout(ctx context.Context) {
	s.gateway.Logout(ctx)
}

func (s *AuthService) Current(ctx context.Context) (authctx.User, error) {
	return s.users.User(ctx)
}
