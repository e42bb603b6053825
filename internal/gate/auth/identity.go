package auth

// Source records which validation method produced an identity.
type Source string

const (
	// SourceExternal means the external identity provider accepted the token.
	SourceExternal Source = "external"

	// SourceInternal means the token was a locally issued roles token.
	SourceInternal Source = "internal"
)

// Identity is the normalized result of a successful authentication.
type Identity struct {
	// Username is always lower-cased.
	Username string

	// UserID is the external provider's identifier for the user.
	UserID string

	// Source is the validation method that succeeded.
	Source Source
}
