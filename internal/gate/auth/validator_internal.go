package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tabcorp-labs/sheetgate/pkg/jwtx"
)

// InternalValidator verifies a credential as a locally issued roles token.
// Verification only proves authenticity and identity; role flags embedded in
// the token are not re-derived here.
type InternalValidator struct {
	Verifier jwtx.Verifier
}

// NewInternalValidator creates a validator over the shared-secret verifier.
func NewInternalValidator(secret []byte, issuer string) *InternalValidator {
	return &InternalValidator{Verifier: jwtx.NewVerifierHS256(secret, issuer)}
}

func (v *InternalValidator) Name() string { return string(SourceInternal) }

// Validate verifies the token signature and requires both a username and a
// user id in the claims.
func (v *InternalValidator) Validate(ctx context.Context, token string) (Identity, error) {
	claims, err := v.Verifier.Verify(token)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: roles token rejected: %w", err)
	}

	if claims.Username == "" || claims.UserID == "" {
		return Identity{}, errors.New("auth: roles token missing username or user id")
	}

	return Identity{
		Username: strings.ToLower(claims.Username),
		UserID:   claims.UserID,
		Source:   SourceInternal,
	}, nil
}
