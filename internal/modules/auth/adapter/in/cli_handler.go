package in

import (
	"context"

	"miso/internal/modules/auth/dto"
	authin "miso/internal/modules/auth/port/in"
)

type CLIHandler struct {
	usecase authin.Usecase
}

func NewCLIHandler(usecase authin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) SignIn(ctx context.Context, email, password string) (dto.UserOutput, error) {
	return h.usecase.SignIn(ctx, dto.SignInInput{Email: email, Password: password})
}

func (h CLIHandler) SignUp(ctx context.Context, email, password, username string) (dto.SignUpOutput, error) {
	return h.usecase.SignUp(ctx, dto.SignUpInput{Email: email, Password: password, Username: username})
}

func (h CLIHandler) Logout(ctx context.Context) {
	h.usecase.Logout(ctx)
}

func (h CLIHandler) Current(ctx context.Context) (dto.UserOutput, error) {
	return h.usecase.Current(ctx)
}
