// Package gateway implements the browser-facing authentication gateway: the
// PKCE login flow against the IdP, the cookie-bound session, and the
// authenticated balance proxy. The gateway is stateless across requests; all
// correlation and session state lives in the browser's cookie jar, so
// instances scale horizontally without affinity.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/bankmash/balance-gateway/internal/balance"
	"github.com/bankmash/balance-gateway/internal/config"
	"github.com/bankmash/balance-gateway/internal/protocol"
)

// Handler holds the gateway's request handlers.
type Handler struct {
	cfg          *config.Config
	endpoints    Endpoints
	oauth2Config *oauth2.Config
	httpClient   *http.Client
	balances     *balance.Client
}

// NewHandler wires the gateway against resolved IdP endpoints. The client is
// shared by every outbound call and is expected to carry a bounded timeout.
func NewHandler(cfg *config.Config, eps Endpoints, httpClient *http.Client) *Handler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Handler{
		cfg:       cfg,
		endpoints: eps,
		oauth2Config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  eps.Auth,
				TokenURL: eps.Token,
				// Public client: client_id goes in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		httpClient: httpClient,
		balances:   balance.NewClient(cfg.UpstreamBaseURL, httpClient),
	}
}

// Register mounts the gateway endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/login", h.handleLogin)
	r.Get("/auth/callback", h.handleCallback)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/userinfo", h.handleUserInfo)
	r.Get("/debug/token", h.handleIntrospect)
	r.Get("/balance", h.handleBalance)
}

// handleLogin starts the authorization-code flow: generate the PKCE pair and
// state, park both in correlation cookies, and send the browser to the IdP.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	pkce, err := protocol.NewChallenge(0)
	if err != nil {
		slog.Error("generate PKCE challenge", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	state, err := protocol.RandomState()
	if err != nil {
		slog.Error("generate state", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.setCorrelationCookie(w, cookieState, state)
	h.setCorrelationCookie(w, cookieVerifier, pkce.Verifier)

	authURL := h.oauth2Config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback completes the flow. Correlation failures redirect silently:
// a probing caller learns nothing about why the callback was rejected.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	stateCookie := cookieValue(r, cookieState)
	verifier := cookieValue(r, cookieVerifier)

	// Correlation cookies are strictly single-use: gone after the first
	// callback attempt whether or not it succeeds.
	clearCookie(w, cookieState)
	clearCookie(w, cookieVerifier)

	if code == "" || state == "" || stateCookie == "" || verifier == "" || state != stateCookie {
		slog.Warn("callback correlation rejected",
			"have_code", code != "",
			"have_state", state != "",
			"have_cookies", stateCookie != "" && verifier != "",
			"state_match", state != "" && state == stateCookie)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.httpClient)
	token, err := h.oauth2Config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			// The IdP answered and said no. Details stay server-side.
			slog.Error("token exchange rejected",
				"status", re.Response.StatusCode, "body", string(re.Body))
			http.Redirect(w, r, "/?error=token", http.StatusFound)
			return
		}
		slog.Error("token exchange failed", "error", err)
		http.Redirect(w, r, "/?error=exception", http.StatusFound)
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	var username string
	if idToken != "" {
		_, claims, err := protocol.DecodeUnverified(idToken)
		if err != nil {
			slog.Error("decode id_token claims", "error", err)
			http.Redirect(w, r, "/?error=exception", http.StatusFound)
			return
		}
		username = protocol.StringClaim(claims, "preferred_username")
	}
	refreshToken, _ := token.Extra("refresh_token").(string)

	expiresIn := defaultTokenTTL
	if v, ok := token.Extra("expires_in").(float64); ok && v > 0 {
		expiresIn = int(v)
	}

	h.issueSession(w, Session{
		AccessToken:  token.AccessToken,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		Username:     username,
	}, expiresIn)

	slog.Info("session established", "username", username, "expires_in", expiresIn)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout clears the session and hands the federated-logout URL back to
// the caller. The handler is hit by a background request, so it cannot
// perform the cross-origin navigation itself; the browser follows the URL
// from the X-IdP-Logout header.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	idToken := cookieValue(r, cookieIDToken)

	params := url.Values{}
	if idToken != "" {
		params.Set("id_token_hint", idToken)
	}
	params.Set("post_logout_redirect_uri", h.cfg.AppBaseURL)
	params.Set("client_id", h.cfg.ClientID)
	logoutURL := h.endpoints.Logout + "?" + params.Encode()

	h.clearSession(w)
	w.Header().Set("X-IdP-Logout", logoutURL)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
