package satoken

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenURL is the OAuth2 token endpoint used for the JWT-bearer
	// exchange.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	// GrantTypeJWTBearer is the grant type of the assertion exchange.
	GrantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// RefreshMargin is how close to expiry a cached token is still used.
	// Inside this window the broker refreshes instead.
	RefreshMargin = 60 * time.Second
)

// Broker exchanges signed assertions for short-lived access tokens and
// caches the result. Safe for concurrent use; concurrent callers racing past
// an expired cache share a single exchange.
type Broker struct {
	// Principal is the service identity used to sign assertions.
	Principal ServicePrincipal

	// TokenURL is the OAuth2 token endpoint. Defaults to DefaultTokenURL.
	TokenURL string

	// HTTPClient is used for the exchange. Defaults to a 10s-timeout client.
	HTTPClient *http.Client

	// Now is the clock, overridable in tests.
	Now func() time.Time

	// OnRefresh, if set, is invoked after every successful exchange.
	OnRefresh func()

	mu     sync.RWMutex
	cached cachedToken
	group  singleflight.Group
}

// cachedToken is only ever produced by a successful exchange, never from
// caller input.
type cachedToken struct {
	value     string
	expiresAt time.Time
}

// NewBroker returns a Broker with default endpoint, client and clock.
func NewBroker(principal ServicePrincipal) *Broker {
	return &Broker{
		Principal:  principal,
		TokenURL:   DefaultTokenURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Now:        time.Now,
	}
}

// AccessToken returns a valid access token, performing a token exchange when
// the cache is empty or within RefreshMargin of expiry. Idempotent-safe to
// call frequently.
func (b *Broker) AccessToken(ctx context.Context) (string, error) {
	if token, ok := b.cachedValid(); ok {
		return token, nil
	}

	// Credentials must be checked before any signing is attempted.
	if !b.Principal.Configured() {
		return "", ErrCredentialsMissing
	}

	v, err, _ := b.group.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited.
		if token, ok := b.cachedValid(); ok {
			return token, nil
		}
		return b.exchange(ctx)
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// cachedValid returns the cached token when it is still safely usable.
func (b *Broker) cachedValid() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.cached.value == "" {
		return "", false
	}
	if !b.Now().Before(b.cached.expiresAt.Add(-RefreshMargin)) {
		return "", false
	}
	return b.cached.value, true
}

// exchange signs a fresh assertion, posts it to the token endpoint, and
// overwrites the cache on success.
func (b *Broker) exchange(ctx context.Context) (string, error) {
	now := b.Now()

	assertion, err := SignAssertion(b.Principal, b.TokenURL, now)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {GrantTypeJWTBearer},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		b.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", &TokenExchangeError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return "", &TokenExchangeError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TokenExchangeError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TokenExchangeError{
			StatusCode: resp.StatusCode,
			Message:    exchangeFailureMessage(body),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	// A decode failure leaves both fields empty and falls through to the
	// incomplete-response error below.
	_ = json.Unmarshal(body, &tokenResp)

	if tokenResp.AccessToken == "" || tokenResp.ExpiresIn == 0 {
		return "", &TokenExchangeError{
			StatusCode: resp.StatusCode,
			Message:    "failed to obtain access token",
		}
	}

	b.mu.Lock()
	b.cached = cachedToken{
		value:     tokenResp.AccessToken,
		expiresAt: now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}
	b.mu.Unlock()

	if b.OnRefresh != nil {
		b.OnRefresh()
	}

	return tokenResp.AccessToken, nil
}

// exchangeFailureMessage pulls the most useful message out of an error body:
// error_description, then error, then the raw body.
func exchangeFailureMessage(body []byte) string {
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.ErrorDescription != "" {
			return errResp.ErrorDescription
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return string(body)
}
