package jwt

import (
	"time"

	"ride-hail-realtime/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a realtime connection token. Subject is the
// identity whose inbound topic the holder may subscribe to.
type Claims struct {
	Role user.Role `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

var _ jwtlib.Claims = (*Claims)(nil)

// NewConnectionClaims constructs claims for identity valid for ttl.
func NewConnectionClaims(identity string, role user.Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   identity,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
