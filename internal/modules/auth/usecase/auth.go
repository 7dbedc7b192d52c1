package usecase

import (
	"context"

	"miso/internal/modules/auth/domain"
	"miso/internal/modules/auth/dto"
	authin "miso/internal/modules/auth/port/in"
	"miso/internal/modules/auth/service"
	"miso/internal/platform/authctx"
)

type Interactor struct {
	svc *service.AuthService
}

func NewInteractor(svc *service.AuthService) authin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) SignIn(ctx context.Context, input dto.SignInInput) (dto.UserOutput, error) {
	user, err := i.svc.SignIn(ctx, domain.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		return dto.UserOutput{}, err
	}
	return toOutput(user), nil
}

func (i *Interactor) SignUp(ctx context.Context, input dto.SignUpInput) (dto.SignUpOutput, error) {
	message, user, err := i.svc.SignUp(ctx, domain.Registration{
		Credentials: domain.Credentials{Email: input.Email, Password: input.Password},
		Username:    input.Username,
	})
	if err != nil {
		return dto.SignUpOutput{}, err
	}
	return dto.SignUpOutput{Message: message, User: toOutput(user)}, nil
}

func (i *Interactor) Logout(ctx context.Context) {
	i.svc.Logout(ctx)
}

func (i *Interactor) Current(ctx context.Context) (dto.UserOutput, error) {
	user, err := i.svc.Current(ctx)
	if err != nil {
		return dto.UserOutput{}, err
	}
	return toOutput(user), nil
}

func toOutput(user authctx.User) dto.UserOutput {
	return dto.UserOutput{ID: user.ID, Email: user.Email, Username: user.Username}
}
