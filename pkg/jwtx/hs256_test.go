package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabcorp-labs/sheetgate/pkg/jwtx"
)

const exampleIssuer = "sheetgate"

func TestHS256SignAndVerify(t *testing.T) {
	secret := []byte("a-shared-secret")

	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())

	now := time.Now().UTC()
	claims := jwtx.NewRolesClaims("alice", "123", true, false, exampleIssuer, time.Hour, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := jwtx.NewVerifierHS256(secret, exampleIssuer)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", parsed.Username)
	require.Equal(t, "123", parsed.UserID)
	require.True(t, parsed.IsAdmin)
	require.False(t, parsed.IsMod)
	require.Equal(t, exampleIssuer, parsed.Issuer)
	require.NotEmpty(t, parsed.ID) // JTI should be set
}

func TestHS256VerifyFailsForWrongSecret(t *testing.T) {
	signer, err := jwtx.NewSignerHS256([]byte("secret-one"))
	require.NoError(t, err)

	claims := jwtx.NewRolesClaims("alice", "123", false, false, exampleIssuer, time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierHS256([]byte("secret-two"), exampleIssuer)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256VerifyFailsForWrongIssuer(t *testing.T) {
	secret := []byte("a-shared-secret")

	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)

	claims := jwtx.NewRolesClaims("alice", "123", false, false, "someone-else", time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierHS256(secret, exampleIssuer)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestHS256VerifyFailsClosedOnGarbage(t *testing.T) {
	verifier := jwtx.NewVerifierHS256([]byte("secret"), exampleIssuer)

	cases := []string{"", "garbage", "a.b", "a.b.c.d", "!!!.???.###"}
	for _, in := range cases {
		_, err := verifier.Verify(in)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "input %q", in)
	}
}

func TestHS256RejectsAlgorithmConfusion(t *testing.T) {
	// A token signed with "none" must never verify.
	noneToken := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJ1c2VybmFtZSI6ImFsaWNlIiwidXNlcl9pZCI6IjEyMyJ9."

	verifier := jwtx.NewVerifierHS256([]byte("secret"), "")
	_, err := verifier.Verify(noneToken)
	require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
}

func TestNewSignerHS256RequiresSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256(nil)
	require.Error(t, err)
}

func TestRolesClaimsZeroTTLHasNoExpiry(t *testing.T) {
	claims := jwtx.NewRolesClaims("alice", "123", false, false, exampleIssuer, 0, time.Now().UTC())
	require.Nil(t, claims.ExpiresAt)
	require.NoError(t, claims.ValidateExpiry())
}

func TestValidateExpiryWithLeeway(t *testing.T) {
	now := time.Now().UTC()

	// Expired 10 seconds ago.
	claims := jwtx.NewRolesClaims("alice", "123", false, false, exampleIssuer, time.Second, now.Add(-11*time.Second))
	require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrExpired)
	require.NoError(t, claims.ValidateExpiryWithLeeway(time.Minute))
}
