package gateway

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bankmash/balance-gateway/internal/balance"
)

// handleBalance is the authenticated proxy. The two preconditions are
// independent and checked in order: no access token means the caller must
// log in, a token without a username means the session cannot name an owner
// to query.
func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	session := readSession(r)
	if session.AccessToken == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if session.Username == "" {
		writeError(w, http.StatusBadRequest, "No username in session")
		return
	}

	items, err := h.balances.Fetch(r.Context(), session.Username, session.AccessToken)
	if err != nil {
		var ue *balance.UpstreamError
		switch {
		case errors.As(err, &ue) && ue.Malformed:
			slog.Error("upstream balance body unparsable",
				"owner", session.Username, "status", ue.StatusCode)
			writeJSON(w, http.StatusBadGateway, map[string]any{"raw": ue.Body})
		case errors.As(err, &ue):
			slog.Error("upstream balance error",
				"owner", session.Username, "status", ue.StatusCode, "body", ue.Body)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  "upstream error",
				"status": ue.StatusCode,
				"body":   ue.Body,
			})
		default:
			slog.Error("balance fetch failed", "owner", session.Username, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, items)
}
