package satoken

import (
	"errors"
	"fmt"
)

// ErrCredentialsMissing reports that the service principal is not configured
// (no account email and/or no private key). This is checked before any
// signing or network work is attempted.
var ErrCredentialsMissing = errors.New("satoken: credentials missing")

// CredentialError reports that the principal's signing key is absent or
// unparseable. It always propagates to the caller.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("satoken: invalid signing key: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// TokenExchangeError reports that the OAuth2 token endpoint rejected the
// exchange or returned incomplete data. Message carries the provider's
// error_description or error code when available, otherwise the raw body.
type TokenExchangeError struct {
	// StatusCode is the HTTP status of the token endpoint response.
	// Zero when the request never completed (network failure, timeout).
	StatusCode int

	// Message is the best-effort failure description.
	Message string

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("satoken: token exchange failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("satoken: token exchange failed: %s", e.Message)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }
