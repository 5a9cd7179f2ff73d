package gateway

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/bankmash/balance-gateway/internal/protocol"
)

// Allow-lists for the introspection view. Nothing outside these is ever
// returned, whatever else the token carries.
var (
	introspectHeaderFields = []string{"alg", "kid"}
	introspectClaimFields  = []string{
		"iss", "aud", "azp", "preferred_username", "exp", "iat", "client_id", "scope",
	}
)

// handleIntrospect shows what the access-token cookie currently holds. The
// decode is unverified on purpose: this endpoint is operational visibility,
// not an authorization check.
func (h *Handler) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	token := cookieValue(r, cookieAccessToken)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "no token")
		return
	}

	header, claims, err := protocol.DecodeUnverified(token)
	if err != nil {
		slog.Warn("access-token cookie does not decode", "error", err)
		writeError(w, http.StatusBadRequest, "malformed token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"header":  protocol.PickClaims(header, introspectHeaderFields...),
		"payload": protocol.PickClaims(claims, introspectClaimFields...),
	})
}

// handleUserInfo proxies the IdP userinfo endpoint with the session's bearer
// token and passes the response through.
func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	token := cookieValue(r, cookieAccessToken)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.endpoints.UserInfo, nil)
	if err != nil {
		slog.Error("create userinfo request", "error", err)
		writeError(w, http.StatusBadGateway, "userinfo request failed")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		slog.Error("fetch userinfo", "error", err)
		writeError(w, http.StatusBadGateway, "userinfo request failed")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("read userinfo response", "error", err)
		writeError(w, http.StatusBadGateway, "userinfo request failed")
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}
