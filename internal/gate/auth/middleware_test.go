package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
)

// tableValidator resolves tokens against a fixed identity table.
type tableValidator struct {
	identities map[string]auth.Identity
}

func (v *tableValidator) Name() string { return "table" }

func (v *tableValidator) Validate(ctx context.Context, token string) (auth.Identity, error) {
	identity, ok := v.identities[token]
	if !ok {
		return auth.Identity{}, errors.New("unknown token")
	}
	return identity, nil
}

func twoUserAuthenticator(admins, mods []string) *auth.Authenticator {
	external := &tableValidator{identities: map[string]auth.Identity{
		"tok-alice": {Username: "alice", UserID: "u-1", Source: auth.SourceExternal},
		"tok-bob":   {Username: "bob", UserID: "u-2", Source: auth.SourceExternal},
	}}
	internal := &recordingValidator{name: "internal", err: errors.New("not a roles token")}
	return auth.NewAuthenticator(external, internal, admins, mods)
}

func middlewareRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthnMiddlewareInjectsIdentity(t *testing.T) {
	a := twoUserAuthenticator(nil, nil)

	var results []string
	var sawIdentity auth.Identity
	var sawUserID string

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromCtx(r.Context())
			require.True(t, ok)
			sawIdentity = identity
			sawUserID = httpx.UserIDFromCtx(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
		auth.AuthnMiddleware(a, func(result string) { results = append(results, result) }),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, middlewareRequest("tok-alice"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", sawIdentity.Username)
	require.Equal(t, "u-1", sawUserID)
	require.Equal(t, []string{"external"}, results)
}

func TestAuthnMiddlewareRejectsBeforeHandler(t *testing.T) {
	a := twoUserAuthenticator(nil, nil)

	var results []string
	called := false

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
		auth.AuthnMiddleware(a, func(result string) { results = append(results, result) }),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, middlewareRequest("tok-nobody"))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)
	require.Equal(t, []string{"unauthorized"}, results)
}

func TestRequireRoleMiddleware(t *testing.T) {
	a := twoUserAuthenticator([]string{"alice"}, []string{"bob"})

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	adminOnly := httpx.Chain(okHandler,
		auth.AuthnMiddleware(a, nil),
		auth.RequireAdminRole(a, nil),
	)
	modOnly := httpx.Chain(okHandler,
		auth.AuthnMiddleware(a, nil),
		auth.RequireModRole(a, nil),
	)

	send := func(h http.Handler, token string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, middlewareRequest(token))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send(adminOnly, "tok-alice"))
	require.Equal(t, http.StatusForbidden, send(adminOnly, "tok-bob"))

	// Admin membership does not imply moderator membership.
	require.Equal(t, http.StatusForbidden, send(modOnly, "tok-alice"))
	require.Equal(t, http.StatusOK, send(modOnly, "tok-bob"))
}

func TestRequireRoleWithoutAuthnRejects(t *testing.T) {
	a := twoUserAuthenticator([]string{"alice"}, nil)

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
		auth.RequireAdminRole(a, nil),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, middlewareRequest("tok-alice"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPerUserRateLimitKeysOnAuthenticatedUser(t *testing.T) {
	a := twoUserAuthenticator(nil, nil)

	limit := httpx.RateLimitConfig{
		RequestsPerWindow: 1,
		Window:            time.Minute,
		Burst:             1,
	}

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
		auth.AuthnMiddleware(a, nil),
		httpx.RateLimitByUser(limit),
	)

	send := func(token string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, middlewareRequest(token))
		return rec.Code
	}

	// Two users behind the same address get separate buckets.
	require.Equal(t, http.StatusOK, send("tok-alice"))
	require.Equal(t, http.StatusOK, send("tok-bob"))

	// The same user exhausting their bucket is throttled.
	require.Equal(t, http.StatusTooManyRequests, send("tok-alice"))
}
