package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	"github.com/tabcorp-labs/sheetgate/pkg/jwtx"
)

func TestIssueRolesTokenEmbedsRoleFlags(t *testing.T) {
	secret := []byte("shared-secret")

	issuer, err := auth.NewRoleIssuer(secret, "sheetgate", time.Hour,
		[]string{"alice"}, []string{"alice", "bob"})
	require.NoError(t, err)

	token, err := issuer.IssueRolesToken(auth.Identity{Username: "alice", UserID: "123"})
	require.NoError(t, err)

	claims, err := jwtx.NewVerifierHS256(secret, "sheetgate").Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "123", claims.UserID)
	require.True(t, claims.IsAdmin)
	require.True(t, claims.IsMod)
	require.NotNil(t, claims.ExpiresAt)

	token, err = issuer.IssueRolesToken(auth.Identity{Username: "bob", UserID: "456"})
	require.NoError(t, err)

	claims, err = jwtx.NewVerifierHS256(secret, "sheetgate").Verify(token)
	require.NoError(t, err)
	require.False(t, claims.IsAdmin)
	require.True(t, claims.IsMod)
}

func TestMembershipIsCaseInsensitive(t *testing.T) {
	issuer, err := auth.NewRoleIssuer([]byte("s"), "sheetgate", 0, []string{"Foo"}, []string{"BAR"})
	require.NoError(t, err)

	isAdmin, isMod := issuer.Membership("foo")
	require.True(t, isAdmin)
	require.False(t, isMod)

	isAdmin, isMod = issuer.Membership("bar")
	require.False(t, isAdmin)
	require.True(t, isMod)

	isAdmin, isMod = issuer.Membership("baz")
	require.False(t, isAdmin)
	require.False(t, isMod)
}

func TestZeroTTLIssuesTokenWithoutExpiry(t *testing.T) {
	secret := []byte("shared-secret")

	issuer, err := auth.NewRoleIssuer(secret, "sheetgate", 0, nil, nil)
	require.NoError(t, err)

	token, err := issuer.IssueRolesToken(auth.Identity{Username: "alice", UserID: "123"})
	require.NoError(t, err)

	claims, err := jwtx.NewVerifierHS256(secret, "sheetgate").Verify(token)
	require.NoError(t, err)
	require.Nil(t, claims.ExpiresAt)
}

func TestExpiredRolesTokenIsRejected(t *testing.T) {
	secret := []byte("shared-secret")

	issuer, err := auth.NewRoleIssuer(secret, "sheetgate", time.Minute, nil, nil)
	require.NoError(t, err)
	issuer.Now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, err := issuer.IssueRolesToken(auth.Identity{Username: "alice", UserID: "123"})
	require.NoError(t, err)

	_, err = jwtx.NewVerifierHS256(secret, "sheetgate").Verify(token)
	require.Error(t, err)
}

func TestNormalizeList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Alice", []string{"alice"}},
		{"Alice, Bob ,  CAROL", []string{"alice", "bob", "carol"}},
		{" , ,", nil},
		{"alice,,bob", []string{"alice", "bob"}},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, auth.NormalizeList(tc.in), "input %q", tc.in)
	}
}
