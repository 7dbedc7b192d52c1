package domain

import (
	"fmt"
	"strings"

	apperrors "miso/internal/platform/errors"
)

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Credentials
	Username string
}

// Normalize trims the email and lowercases it. Passwords are left alone.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

func (c Credentials) Validate() error {
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", apperrors.ErrInvalidInput)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", apperrors.ErrInvalidInput)
	}
	return nil
}

func (r Registration) Validate() error {
	if err := r.Credentials.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("%w: username is required", apperrors.ErrInvalidInput)
	}
	return nil
}
