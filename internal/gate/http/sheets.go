package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tabcorp-labs/sheetgate/internal/gate/auth"
	"github.com/tabcorp-labs/sheetgate/internal/gate/metrics"
	"github.com/tabcorp-labs/sheetgate/pkg/httpx"
	"github.com/tabcorp-labs/sheetgate/pkg/satoken"
	"github.com/tabcorp-labs/sheetgate/pkg/sheets"
	"github.com/tabcorp-labs/sheetgate/pkg/slogx"
)

// SheetsHandler exposes the spreadsheet read/append/update primitives.
// Authentication and role guards run in the route middleware chain; by the
// time a handler executes the context carries the resolved identity.
type SheetsHandler struct {
	Sheets  *sheets.Client
	Metrics *metrics.Metrics
}

// rowsPayload is the request body for append and update calls.
type rowsPayload struct {
	Values [][]any `json:"values"`
}

func (h *SheetsHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Sheets.ReadRange(ctx, r.PathValue("id"), r.PathValue("range"))
	h.Metrics.ObserveSheetOp("read", err)
	if err != nil {
		writeSheetError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *SheetsHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeRows(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	result, err := h.Sheets.AppendRows(ctx, r.PathValue("id"), r.PathValue("range"), payload.Values)
	h.Metrics.ObserveSheetOp("append", err)
	if err != nil {
		writeSheetError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *SheetsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeRows(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	result, err := h.Sheets.UpdateRange(ctx, r.PathValue("id"), r.PathValue("range"), payload.Values)
	h.Metrics.ObserveSheetOp("update", err)
	if err != nil {
		writeSheetError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// decodeRows parses the request body, rejecting anything that isn't a
// {"values": [[...]]} document.
func decodeRows(w http.ResponseWriter, r *http.Request) (rowsPayload, bool) {
	var payload rowsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.WriteJSONError(w, http.StatusBadRequest,
			"invalid_request", "request body must be a JSON document with a values array")
		return rowsPayload{}, false
	}
	return payload, true
}

// writeAuthError maps an authentication failure onto the response.
func writeAuthError(w http.ResponseWriter, err error) {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		authErr.WriteError(w)
		return
	}
	httpx.WriteJSONError(w, http.StatusInternalServerError, "server_error", "authentication failed")
}

// writeSheetError maps a spreadsheet-layer failure onto the response,
// logging the detail server-side rather than leaking it.
func writeSheetError(ctx context.Context, w http.ResponseWriter, err error) {
	log := slogx.FromContext(ctx)

	var valErr *sheets.ValidationError
	if errors.As(err, &valErr) {
		httpx.WriteJSONError(w, http.StatusBadRequest, "invalid_request", valErr.Message)
		return
	}

	var remoteErr *sheets.RemoteServiceError
	if errors.As(err, &remoteErr) {
		log.Error("spreadsheet call failed", "status", remoteErr.StatusCode, "message", remoteErr.Message)
		httpx.WriteJSONError(w, http.StatusInternalServerError,
			"upstream_error", "spreadsheet service rejected the request")
		return
	}

	var malErr *sheets.MalformedResponseError
	if errors.As(err, &malErr) {
		log.Error("spreadsheet response unparseable", "status", malErr.StatusCode)
		httpx.WriteJSONError(w, http.StatusInternalServerError,
			"upstream_error", "spreadsheet service returned an unreadable response")
		return
	}

	var exchErr *satoken.TokenExchangeError
	if errors.As(err, &exchErr) {
		log.Error("token exchange failed", "status", exchErr.StatusCode, "message", exchErr.Message)
		httpx.WriteJSONError(w, http.StatusInternalServerError,
			"server_error", "could not authenticate to the spreadsheet service")
		return
	}

	var credErr *satoken.CredentialError
	if errors.Is(err, satoken.ErrCredentialsMissing) || errors.As(err, &credErr) {
		log.Error("service credentials unusable", "err", err)
		httpx.WriteJSONError(w, http.StatusInternalServerError,
			"configuration_error", "service credentials are not configured")
		return
	}

	log.Error("sheet operation failed", "err", err)
	httpx.WriteJSONError(w, http.StatusInternalServerError, "server_error", "internal server error")
}
