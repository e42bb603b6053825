package auth

import (
	"fmt"
	"net/http"

	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
)

// AuthError is a caller-facing authentication/authorization failure carrying
// enough information for the HTTP layer to map it to a response.
type AuthError struct {
	// StatusCode is the HTTP status for this error
	StatusCode int `json:"-"`

	// Code is the short machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this AuthError to an HTTP response writer.
func (e *AuthError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSONError(w, e.StatusCode, e.Code, e.Description)
}

var (
	// ErrMissingBearer is returned when the Authorization header is absent
	// or does not carry the bearer scheme.
	ErrMissingBearer = &AuthError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "unauthorized",
		Description: "missing or malformed authorization header",
	}

	// ErrInvalidToken is returned when neither validation method accepts
	// the presented credential.
	ErrInvalidToken = &AuthError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "unauthorized",
		Description: "invalid token",
	}

	// ErrForbidden is returned when the identity is valid but lacks the
	// required role membership.
	ErrForbidden = &AuthError{
		StatusCode:  http.StatusForbidden,
		Code:        "forbidden",
		Description: "insufficient role",
	}
)
