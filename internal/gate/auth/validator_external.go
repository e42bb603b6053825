package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ExternalValidator asks the identity provider's token-validation endpoint
// whether a credential is live. Any failure here is "try the next method",
// not a hard error; the Authenticator falls through to the internal
// validator.
type ExternalValidator struct {
	// ValidateURL is the provider's validation endpoint.
	ValidateURL string

	// HTTPClient is used for the call. Defaults should be bounded-timeout.
	HTTPClient *http.Client
}

// NewExternalValidator creates a validator against the given endpoint with a
// bounded-timeout client.
func NewExternalValidator(validateURL string) *ExternalValidator {
	return &ExternalValidator{
		ValidateURL: validateURL,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *ExternalValidator) Name() string { return string(SourceExternal) }

// Validate presents the token to the provider as an OAuth credential and
// extracts the identity from a successful response.
func (v *ExternalValidator) Validate(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.ValidateURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: build validate request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+token)

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Identity{}, fmt.Errorf("auth: provider rejected token (status %d)", resp.StatusCode)
	}

	var payload struct {
		Login  string `json:"login"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, fmt.Errorf("auth: decode provider response: %w", err)
	}
	if payload.Login == "" || payload.UserID == "" {
		return Identity{}, errors.New("auth: provider response missing login or user id")
	}

	return Identity{
		Username: strings.ToLower(payload.Login),
		UserID:   payload.UserID,
		Source:   SourceExternal,
	}, nil
}
