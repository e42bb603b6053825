package http

import (
	"net/http"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	"github.com/tabcorp-labs/sheetgate/internal/gate/metrics"
	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
	"github.com/tabcorp-labs/sheetgate/pkg/slogx"
)

// SessionResponse is returned after a successful session mint. The token is
// a signed roles token the client presents on later requests to skip
// external validation.
type SessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	IsAdmin  bool   `json:"is_admin"`
	IsMod    bool   `json:"is_mod"`
}

// SessionHandler serves POST /v1/session: it authenticates the inbound
// bearer credential and mints a roles token for it.
type SessionHandler struct {
	Authenticator *auth.Authenticator
	RoleIssuer    *auth.RoleIssuer
	Metrics       *metrics.Metrics
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, err := h.Authenticator.Authenticate(ctx, r.Header.Get("Authorization"))
	if err != nil {
		h.Metrics.ObserveAuth("unauthorized")
		writeAuthError(w, err)
		return
	}
	h.Metrics.ObserveAuth(string(identity.Source))

	token, err := h.RoleIssuer.IssueRolesToken(identity)
	if err != nil {
		log.Error("roles token issuance failed", "err", err)
		httpx.WriteJSONError(w, http.StatusInternalServerError,
			"server_error", "failed to issue session token")
		return
	}

	isAdmin, isMod := h.RoleIssuer.Membership(identity.Username)

	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		Token:    token,
		Username: identity.Username,
		UserID:   identity.UserID,
		IsAdmin:  isAdmin,
		IsMod:    isMod,
	})
}
