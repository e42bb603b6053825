package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
)

// IdentityFromCtx returns the identity injected by AuthnMiddleware.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(httpx.CtxKeyIdentity).(Identity)
	return identity, ok
}

// AuthnMiddleware authenticates the bearer credential and injects the
// resolved identity into the request context. It must run before any
// middleware that keys on the user, such as per-user rate limiting.
// Observe, when set, receives the authentication outcome.
func AuthnMiddleware(a *Authenticator, observe func(result string)) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if observe != nil {
					observe("unauthorized")
				}
				writeAuthFailure(w, err)
				return
			}

			if observe != nil {
				observe(string(identity.Source))
			}

			// Inject into context for downstream middleware and handlers.
			ctx := httpx.WithUser(r.Context(), identity.UserID, identity.Username, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminRole rejects context identities without admin membership.
// Chain after AuthnMiddleware.
func RequireAdminRole(a *Authenticator, observe func(result string)) httpx.Middleware {
	return requireMembership(observe, func(identity Identity) bool {
		return memberOf(a.Admins, identity.Username)
	})
}

// RequireModRole rejects context identities without moderator membership.
// Admin membership does not imply moderator membership. Chain after
// AuthnMiddleware.
func RequireModRole(a *Authenticator, observe func(result string)) httpx.Middleware {
	return requireMembership(observe, func(identity Identity) bool {
		return memberOf(a.Mods, identity.Username)
	})
}

func requireMembership(observe func(result string), allowed func(Identity) bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromCtx(r.Context())
			if !ok {
				// AuthnMiddleware was not chained in front of this guard.
				ErrMissingBearer.WriteError(w)
				return
			}

			if !allowed(identity) {
				if observe != nil {
					observe("forbidden")
				}
				ErrForbidden.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthFailure(w http.ResponseWriter, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		authErr.WriteError(w)
		return
	}
	httpx.WriteJSONError(w, http.StatusInternalServerError, "server_error", "authentication failed")
}
