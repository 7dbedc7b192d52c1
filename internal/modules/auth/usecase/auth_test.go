package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	authout "miso/internal/modules/auth/adapter/out"
	"miso/internal/modules/auth/dto"
	"miso/internal/modules/auth/service"
	"miso/internal/modules/auth/usecase"
	"miso/internal/platform/apiclient"
	"miso/internal/platform/authctx"
	"miso/internal/platform/clock"
	apperrors "miso/internal/platform/errors"
	"miso/internal/platform/sqlite"
)

type fakeAPI struct {
	signIn  apiclient.Result[apiclient.AuthResponse]
	signUp  apiclient.Result[apiclient.AuthResponse]
	calls   int
	expirer *authctx.Context
}

func (f *fakeAPI) SignIn(context.Context, apiclient.SignInRequest) apiclient.Result[apiclient.AuthResponse] {
	f.calls++
	return f.signIn
}

func (f *fakeAPI) SignUp(context.Context, apiclient.SignUpRequest) apiclient.Result[apiclient.AuthResponse] {
	f.calls++
	return f.signUp
}

func (f *fakeAPI) Logout(ctx context.Context) {
	f.expirer.Expire(ctx, "signed out")
}

func okAuth(user apiclient.User, message string) apiclient.Result[apiclient.AuthResponse] {
	return apiclient.Result[apiclient.AuthResponse]{Data: apiclient.AuthResponse{User: user, Message: message}, Status: http.StatusOK}
}

func newInteractor(t *testing.T, api *fakeAPI) (*authctx.Context, func() int) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "miso.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := authout.NewSQLiteUserStore(context.Background(), db, clock.SystemClock{})
	if err != nil {
		t.Fatalf("new user store: %v", err)
	}
	navigations := 0
	users := authctx.New(store, nil, authctx.NavigatorFunc(func(string) { navigations++ }))
	api.expirer = users
	return users, func() int { return navigations }
}

func TestSignInCachesUserAndLogoutClearsIt(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	api.signIn = okAuth(apiclient.User{ID: "u1", Email: "ana@example.com", Username: "ana"}, "")
	users, navigations := newInteractor(t, api)
	uc := usecase.NewInteractor(service.NewAuthService(authout.NewAPIGateway(api), users))

	out, err := uc.SignIn(context.Background(), dto.SignInInput{Email: "  Ana@Example.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if out.Username != "ana" {
		t.Fatalf("unexpected user %+v", out)
	}
	current, err := uc.Current(context.Background())
	if err != nil || current.ID != "u1" {
		t.Fatalf("expected cached user, got %+v %v", current, err)
	}

	uc.Logout(context.Background())
	if _, err := uc.Current(context.Background()); !errors.Is(err, apperrors.ErrNotSignedIn) {
		t.Fatalf("expected not signed in after logout, got %v", err)
	}
	if navigations() != 1 {
		t.Fatalf("expected one navigation to sign-in, got %d", navigations())
	}
}

func TestSignInValidatesBeforeCallingBackend(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	users, _ := newInteractor(t, api)
	uc := usecase.NewInteractor(service.NewAuthService(authout.NewAPIGateway(api), users))

	if _, err := uc.SignIn(context.Background(), dto.SignInInput{Email: "not-an-email", Password: "pw"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.SignUp(context.Background(), dto.SignUpInput{Email: "a@b.c", Password: "pw"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected missing username to fail, got %v", err)
	}
	if api.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", api.calls)
	}
}

func TestSignInFailureSurfacesAPIError(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{signIn: apiclient.Result[apiclient.AuthResponse]{Error: "invalid credentials", Status: http.StatusUnauthorized}}
	users, _ := newInteractor(t, api)
	uc := usecase.NewInteractor(service.NewAuthService(authout.NewAPIGateway(api), users))

	_, err := uc.SignIn(context.Background(), dto.SignInInput{Email: "a@b.c", Password: "bad"})
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
		t.Fatalf("expected unauthorized api error, got %v", err)
	}
	if users.SignedIn(context.Background()) {
		t.Fatalf("failed sign in must not cache a user")
	}
}

func TestSignUpReturnsServerMessageWithoutCaching(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	api.signUp = okAuth(apiclient.User{ID: "u9", Email: "new@example.com", Username: "newbie"}, "check your inbox")
	users, _ := newInteractor(t, api)
	uc := usecase.NewInteractor(service.NewAuthService(authout.NewAPIGateway(api), users))

	out, err := uc.SignUp(context.Background(), dto.SignUpInput{Email: "new@example.com", Password: "pw", Username: "newbie"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if out.Message != "check your inbox" || out.User.ID != "u9" {
		t.Fatalf("unexpected sign up output %+v", out)
	}
	if users.SignedIn(context.Background()) {
		t.Fatalf("sign up must not sign the user in")
	}
}
