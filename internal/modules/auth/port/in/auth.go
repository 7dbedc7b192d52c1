package in

import (
	"context"

	"miso/internal/modules/auth/dto"
)

type Usecase interface {
	SignIn(ctx context.Context, input dto.SignInInput) (dto.UserOutput, error)
	SignUp(ctx context.Context, input dto.SignUpInput) (dto.SignUpOutput, error)
	Logout(ctx context.Context)
	Current(ctx context.Context) (dto.UserOutput, error)
}
