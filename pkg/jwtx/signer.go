package jwtx

import "github.com/golang-jwt/jwt/v5"

// Signer is our interface for anything that can sign JWTs. Sign accepts any
// jwt.Claims so both roles tokens and service-account assertions can share
// an implementation.
type Signer interface {
	Alg() string
	Sign(claims jwt.Claims) (string, error)
	Validate() error
}

// NewSignerRS256 creates an RS256 signer from PEM bytes.
// Handles both PKCS1 and PKCS8 encoded RSA keys.
func NewSignerRS256(pemKey []byte) (Signer, error) {
	return newRS256Signer(pemKey)
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(secret []byte) (Signer, error) {
	return newHS256Signer(secret)
}
