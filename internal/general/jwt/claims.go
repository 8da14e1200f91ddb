package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the canonical JWT claims payload for a driver session.
type Claims struct {
	Role string `json:"role"` // always "DRIVER" for tokens minted here
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewDriverClaims constructs claims for a driver session token.
func NewDriverClaims(driverID string, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: "DRIVER",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   driverID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}

// DriverID returns the driver the claims were issued for.
func (c *Claims) DriverID() string {
	return c.Subject
}
