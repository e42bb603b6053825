package auth

import (
	"context"
	"strings"

	"github.com/tabcorp-labs/sheetgate/pkg/slogx"
)

// Validator tries one authentication method against a normalized credential.
// A nil error is terminal success; any error means "try the next method".
type Validator interface {
	Name() string
	Validate(ctx context.Context, token string) (Identity, error)
}

// Authenticator resolves an inbound bearer credential into an Identity by
// evaluating an ordered list of validators, stopping at the first success.
// The usual chain is [external provider, internal roles token].
type Authenticator struct {
	// Validators are evaluated in order.
	Validators []Validator

	// Admins and Mods are normalized (lower-cased) membership lists.
	Admins []string
	Mods   []string
}

// NewAuthenticator builds the standard two-step chain.
func NewAuthenticator(external, internal Validator, admins, mods []string) *Authenticator {
	return &Authenticator{
		Validators: []Validator{external, internal},
		Admins:     admins,
		Mods:       mods,
	}
}

// Authenticate validates a raw Authorization header value and returns the
// normalized identity, or an *AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, bearerValue string) (Identity, error) {
	log := slogx.FromContext(ctx)

	if bearerValue == "" || !strings.HasPrefix(bearerValue, "Bearer ") {
		return Identity{}, ErrMissingBearer
	}

	token := normalizeToken(strings.TrimPrefix(bearerValue, "Bearer"))
	if token == "" {
		return Identity{}, ErrMissingBearer
	}

	for _, v := range a.Validators {
		identity, err := v.Validate(ctx, token)
		if err == nil {
			return identity, nil
		}
		// Deliberate fall-through: a failed method is not a hard error.
		log.Debug("validator did not accept token", "validator", v.Name(), "err", err)
	}

	return Identity{}, ErrInvalidToken
}

// RequireAdmin authenticates and then requires admin membership.
func (a *Authenticator) RequireAdmin(ctx context.Context, bearerValue string) (Identity, error) {
	identity, err := a.Authenticate(ctx, bearerValue)
	if err != nil {
		return Identity{}, err
	}

	if !memberOf(a.Admins, identity.Username) {
		return Identity{}, ErrForbidden
	}
	return identity, nil
}

// RequireMod authenticates and then requires moderator membership.
func (a *Authenticator) RequireMod(ctx context.Context, bearerValue string) (Identity, error) {
	identity, err := a.Authenticate(ctx, bearerValue)
	if err != nil {
		return Identity{}, err
	}

	if !memberOf(a.Mods, identity.Username) {
		return Identity{}, ErrForbidden
	}
	return identity, nil
}

// normalizeToken trims whitespace and strips exactly one matching pair of
// surrounding single or double quotes. Some clients quote the token when
// pasting it into config files and send it verbatim.
func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)

	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if first == last && (first == '"' || first == '\'') {
			token = token[1 : len(token)-1]
		}
	}

	return token
}
