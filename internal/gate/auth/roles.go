package auth

import (
	"strings"
	"time"

	"github.com/tabcorp-labs/sheetgate/pkg/jwtx"
)

// RoleIssuer mints signed roles tokens for authenticated identities so the
// caller can skip repeated external validation. Role flags are computed here,
// at issuance, from the configured membership lists.
type RoleIssuer struct {
	// Signer is the shared-secret signer for roles tokens.
	Signer jwtx.Signer

	// Issuer is the iss claim stamped on every token.
	Issuer string

	// TTL bounds the token lifetime. Zero issues tokens without an expiry.
	TTL time.Duration

	// Admins and Mods are normalized (lower-cased) membership lists.
	Admins []string
	Mods   []string

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// NewRoleIssuer builds a RoleIssuer over the shared secret.
func NewRoleIssuer(secret []byte, issuer string, ttl time.Duration, admins, mods []string) (*RoleIssuer, error) {
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, err
	}

	return &RoleIssuer{
		Signer: signer,
		Issuer: issuer,
		TTL:    ttl,
		Admins: admins,
		Mods:   mods,
		Now:    time.Now,
	}, nil
}

// Membership resolves the identity's admin and moderator flags from the
// configured lists. Case-insensitive, never cached.
func (ri *RoleIssuer) Membership(username string) (isAdmin, isMod bool) {
	return memberOf(ri.Admins, username), memberOf(ri.Mods, username)
}

// IssueRolesToken signs a token embedding the identity and its role flags.
// Pure function of the identity and current configuration.
func (ri *RoleIssuer) IssueRolesToken(identity Identity) (string, error) {
	isAdmin, isMod := ri.Membership(identity.Username)

	claims := jwtx.NewRolesClaims(
		identity.Username,
		identity.UserID,
		isAdmin, isMod,
		ri.Issuer,
		ri.TTL,
		ri.Now().UTC(),
	)

	return ri.Signer.Sign(claims)
}

// NormalizeList splits a comma-separated membership list: entries are
// trimmed, lower-cased, and empty entries dropped.
func NormalizeList(csv string) []string {
	if csv == "" {
		return nil
	}

	var out []string
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// memberOf reports case-insensitive membership of username in list.
func memberOf(list []string, username string) bool {
	username = strings.ToLower(username)
	for _, entry := range list {
		if strings.ToLower(entry) == username {
			return true
		}
	}
	return false
}
