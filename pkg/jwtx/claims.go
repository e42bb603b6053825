package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRolesTokenTTL is the default lifetime for internally issued roles
// tokens. The flags embedded in a roles token are computed at issuance and
// never re-derived, so a bounded lifetime keeps stale memberships from
// living forever.
const DefaultRolesTokenTTL = 24 * time.Hour

// Claims are the claims carried by an internally issued roles token. Role
// flags are fixed at issuance time; verification only proves authenticity
// and identity, not current membership.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user (lower-cased)
	Username string `json:"username,omitempty"`

	// UserID is the external provider's identifier for the user
	UserID string `json:"user_id,omitempty"`

	// Role flags computed at issuance time
	IsAdmin bool `json:"is_admin"`
	IsMod   bool `json:"is_mod"`
}

// NewRolesClaims builds minimally-correct roles-token claims. A ttl of zero
// produces a token without an expiry claim.
func NewRolesClaims(
	username, userID string,
	isAdmin, isMod bool,
	issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        NewJTI(),
		},
		Username: username,
		UserID:   userID,
		IsAdmin:  isAdmin,
		IsMod:    isMod,
	}

	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return c
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
