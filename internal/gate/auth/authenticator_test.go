package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
)

// recordingValidator is a scripted Validator that records the tokens it saw.
type recordingValidator struct {
	name     string
	identity auth.Identity
	err      error
	seen     []string
}

func (v *recordingValidator) Name() string { return v.name }

func (v *recordingValidator) Validate(ctx context.Context, token string) (auth.Identity, error) {
	v.seen = append(v.seen, token)
	return v.identity, v.err
}

func acceptAs(name, username, userID string) *recordingValidator {
	return &recordingValidator{
		name:     name,
		identity: auth.Identity{Username: username, UserID: userID, Source: auth.Source(name)},
	}
}

func reject(name string) *recordingValidator {
	return &recordingValidator{name: name, err: errors.New("nope")}
}

func TestAuthenticateStopsAtFirstSuccess(t *testing.T) {
	external := acceptAs("external", "alice", "123")
	internal := reject("internal")
	a := auth.NewAuthenticator(external, internal, nil, nil)

	identity, err := a.Authenticate(context.Background(), "Bearer abc123")
	require.NoError(t, err)
	require.Equal(t, "alice", identity.Username)
	require.Equal(t, "123", identity.UserID)

	// Internal verification must never run when the provider accepts.
	require.Empty(t, internal.seen)
}

func TestAuthenticateFallsBackToInternal(t *testing.T) {
	external := reject("external")
	internal := acceptAs("internal", "bob", "456")
	a := auth.NewAuthenticator(external, internal, nil, nil)

	identity, err := a.Authenticate(context.Background(), "Bearer abc123")
	require.NoError(t, err)
	require.Equal(t, "bob", identity.Username)
	require.Equal(t, []string{"abc123"}, external.seen)
	require.Equal(t, []string{"abc123"}, internal.seen)
}

func TestAuthenticateRejectsWhenBothFail(t *testing.T) {
	a := auth.NewAuthenticator(reject("external"), reject("internal"), nil, nil)

	_, err := a.Authenticate(context.Background(), "Bearer abc123")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAuthenticateRequiresBearerScheme(t *testing.T) {
	a := auth.NewAuthenticator(reject("external"), reject("internal"), nil, nil)

	cases := []string{"", "abc123", "Basic abc123", "Bearer ", "Bearer   "}
	for _, header := range cases {
		_, err := a.Authenticate(context.Background(), header)
		require.ErrorIs(t, err, auth.ErrMissingBearer, "header %q", header)
	}
}

func TestAuthenticateStripsSurroundingQuotes(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{`Bearer "abc123"`, "abc123"},
		{`Bearer 'abc123'`, "abc123"},
		{`Bearer abc123`, "abc123"},
		// Mismatched quotes are left alone.
		{`Bearer "abc123'`, `"abc123'`},
		// Only one pair is stripped.
		{`Bearer ""abc123""`, `"abc123"`},
	}

	for _, tc := range cases {
		external := acceptAs("external", "alice", "123")
		a := auth.NewAuthenticator(external, reject("internal"), nil, nil)

		_, err := a.Authenticate(context.Background(), tc.header)
		require.NoError(t, err)
		require.Equal(t, []string{tc.want}, external.seen, "header %q", tc.header)
	}
}

func TestRequireAdminIsCaseInsensitive(t *testing.T) {
	external := acceptAs("external", "foo", "123")
	a := auth.NewAuthenticator(external, reject("internal"), []string{"Foo"}, nil)

	identity, err := a.RequireAdmin(context.Background(), "Bearer abc123")
	require.NoError(t, err)
	require.Equal(t, "foo", identity.Username)
}

func TestRequireAdminForbidsNonMembers(t *testing.T) {
	external := acceptAs("external", "mallory", "666")
	a := auth.NewAuthenticator(external, reject("internal"), []string{"foo"}, nil)

	_, err := a.RequireAdmin(context.Background(), "Bearer abc123")
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRequireModChecksModList(t *testing.T) {
	external := acceptAs("external", "carol", "789")
	a := auth.NewAuthenticator(external, reject("internal"), nil, []string{"Carol"})

	_, err := a.RequireMod(context.Background(), "Bearer abc123")
	require.NoError(t, err)

	// Admin membership does not imply moderator membership.
	b := auth.NewAuthenticator(acceptAs("external", "carol", "789"), reject("internal"),
		[]string{"carol"}, nil)
	_, err = b.RequireMod(context.Background(), "Bearer abc123")
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestExternalValidatorAgainstProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status":401,"message":"invalid access token"}`)
			return
		}
		fmt.Fprint(w, `{"login":"Alice","user_id":"12345"}`)
	}))
	defer srv.Close()

	v := auth.NewExternalValidator(srv.URL)
	v.HTTPClient = srv.Client()

	identity, err := v.Validate(context.Background(), "good-token")
	require.NoError(t, err)
	require.Equal(t, "alice", identity.Username, "login must be lower-cased")
	require.Equal(t, "12345", identity.UserID)
	require.Equal(t, auth.SourceExternal, identity.Source)

	_, err = v.Validate(context.Background(), "bad-token")
	require.Error(t, err)
}

func TestExternalThenInternalEndToEnd(t *testing.T) {
	secret := []byte("shared-secret")

	// Provider rejects everything.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	external := auth.NewExternalValidator(srv.URL)
	external.HTTPClient = srv.Client()
	internal := auth.NewInternalValidator(secret, "sheetgate")

	issuer, err := auth.NewRoleIssuer(secret, "sheetgate", time.Hour, []string{"dana"}, nil)
	require.NoError(t, err)

	token, err := issuer.IssueRolesToken(auth.Identity{Username: "dana", UserID: "42"})
	require.NoError(t, err)

	a := auth.NewAuthenticator(external, internal, []string{"dana"}, nil)

	identity, err := a.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	require.Equal(t, "dana", identity.Username)
	require.Equal(t, "42", identity.UserID)
	require.Equal(t, auth.SourceInternal, identity.Source)

	// A token signed with a different secret fails closed.
	otherIssuer, err := auth.NewRoleIssuer([]byte("other-secret"), "sheetgate", time.Hour, nil, nil)
	require.NoError(t, err)
	forged, err := otherIssuer.IssueRolesToken(auth.Identity{Username: "dana", UserID: "42"})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer "+forged)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}
