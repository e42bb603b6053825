package satoken

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tabcorp-labs/sheetgate/pkg/jwtx"
)

// AssertionLifetime is the validity window baked into every assertion.
// Assertions are built fresh per exchange and never reused.
const AssertionLifetime = time.Hour

// ServicePrincipal is the non-human identity the service authenticates as
// against the spreadsheet API. Loaded once from configuration; immutable.
type ServicePrincipal struct {
	// Email is the service account's identifier, used as the issuer claim.
	Email string

	// PrivateKeyPEM is the account's RSA private key in PEM form.
	PrivateKeyPEM []byte

	// Scopes are the OAuth2 scopes requested during token exchange.
	Scopes []string
}

// Configured reports whether the principal carries enough material to
// attempt a token exchange.
func (p ServicePrincipal) Configured() bool {
	return p.Email != "" && len(p.PrivateKeyPEM) > 0
}

// AssertionClaims is the claim set of a service-account bearer assertion.
// Audience is deliberately a plain string: the token endpoint expects a
// single-valued aud.
type AssertionClaims struct {
	Issuer    string `json:"iss"`
	Scope     string `json:"scope"`
	Audience  string `json:"aud"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// jwt.Claims implementation.

func (c AssertionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c AssertionClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c AssertionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c AssertionClaims) GetIssuer() (string, error)              { return c.Issuer, nil }
func (c AssertionClaims) GetSubject() (string, error)             { return "", nil }

func (c AssertionClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}

// NewAssertionClaims builds the claim set for a fresh assertion.
// Deterministic given identical timestamps.
func NewAssertionClaims(p ServicePrincipal, audience string, now time.Time) AssertionClaims {
	return AssertionClaims{
		Issuer:    p.Email,
		Scope:     strings.Join(p.Scopes, " "),
		Audience:  audience,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(AssertionLifetime).Unix(),
	}
}

// SignAssertion builds and signs a bearer assertion for the given audience.
// Returns a CredentialError when the principal's key cannot be parsed.
func SignAssertion(p ServicePrincipal, audience string, now time.Time) (string, error) {
	signer, err := jwtx.NewSignerRS256(p.PrivateKeyPEM)
	if err != nil {
		return "", &CredentialError{Err: err}
	}

	token, err := signer.Sign(NewAssertionClaims(p, audience, now))
	if err != nil {
		return "", &CredentialError{Err: err}
	}

	return token, nil
}
