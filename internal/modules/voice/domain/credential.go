package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway treats a token as expired this long before its exp claim.
const expiryLeeway = time.Minute

// Credential grants access to one room.
type Credential struct {
	RoomName          string
	Token             string
	SessionID         string
	IsResume          bool
	PreviousSessionID string
}

// ExpiresAt reads the exp claim without verifying the signature.
func (c Credential) ExpiresAt() (time.Time, bool) {
	if c.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token is missing, carries no exp, or expires
// within a minute of now.
func (c Credential) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	if !ok {
		return true
	}
	return !exp.Add(-expiryLeeway).After(now)
}
