package authctx

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"miso/internal/platform/logging"
)

// User is the display profile cached after sign-in.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	Username string `json:"username" yaml:"username"`
}

// Store persists the cached user. Load returns apperrors.ErrNotSignedIn when
// nothing is cached.
type Store interface {
	Load(ctx context.Context) (User, error)
	Save(ctx context.Context, user User) error
	Clear(ctx context.Context) error
}

// CookieClearer drops the backend session cookies.
type CookieClearer interface {
	Clear(ctx context.Context) error
}

// Navigator sends the user back to the sign-in entry point.
type Navigator interface {
	ToSignIn(reason string)
}

type NavigatorFunc func(reason string)

func (f NavigatorFunc) ToSignIn(reason string) { f(reason) }

// Context owns the signed-in state. Init is called on sign-in, Clear on
// sign-out, Expire when the backend refuses to refresh the session.
type Context struct {
	mu      sync.Mutex
	store   Store
	cookies CookieClearer
	nav     Navigator
	cached  *User
	log     zerolog.Logger
}

func New(store Store, cookies CookieClearer, nav Navigator) *Context {
	return &Context{store: store, cookies: cookies, nav: nav, log: logging.Module("authctx")}
}

// SetNavigator swaps the sign-in navigator, e.g. when the TUI takes over.
func (c *Context) SetNavigator(nav Navigator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nav = nav
}

func (c *Context) Init(ctx context.Context, user User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(ctx, user); err != nil {
		return err
	}
	c.cached = &user
	return nil
}

func (c *Context) User(ctx context.Context) (User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return *c.cached, nil
	}
	user, err := c.store.Load(ctx)
	if err != nil {
		return User{}, err
	}
	c.cached = &user
	return user, nil
}

// Clear forgets the cached user and the session cookies. Both are attempted
// even if one fails.
func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	var errs []error
	if err := c.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if c.cookies != nil {
		if err := c.cookies.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Expire clears local state and navigates to sign-in.
func (c *Context) Expire(ctx context.Context, reason string) {
	if err := c.Clear(ctx); err != nil {
		c.log.Warn().Err(err).Msg("clear auth state")
	}
	c.mu.Lock()
	nav := c.nav
	c.mu.Unlock()
	if nav != nil {
		nav.ToSignIn(reason)
	}
}

// SignedIn reports whether a user is cached.
func (c *Context) SignedIn(ctx context.Context) bool {
	_, err := c.User(ctx)
	return err == nil
}
