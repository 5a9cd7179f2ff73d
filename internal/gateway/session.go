package gateway

import "net/http"

// Session cookies. The three token cookies are never readable by page
// script; username is the single script-readable attribute and is used for
// display only, never for authorization.
const (
	cookieAccessToken  = "access_token"
	cookieIDToken      = "id_token"
	cookieRefreshToken = "refresh_token"
	cookieUsername     = "username"
)

// Correlation cookies binding the callback leg to the login that started it.
const (
	cookieState    = "oauth_state"
	cookieVerifier = "pkce_verifier"
)

// Cookie lifetimes in seconds.
const (
	correlationMaxAge = 600
	defaultTokenTTL   = 900
	refreshTokenTTL   = 7 * 24 * 3600
)

// Session is the cookie-encoded authentication state. It is issued wholesale
// at a successful callback and destroyed wholesale at logout; there is no
// partial update.
type Session struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	Username     string
}

// readSession collects whatever session cookies the request carries. Missing
// cookies leave their fields empty.
func readSession(r *http.Request) Session {
	return Session{
		AccessToken:  cookieValue(r, cookieAccessToken),
		IDToken:      cookieValue(r, cookieIDToken),
		RefreshToken: cookieValue(r, cookieRefreshToken),
		Username:     cookieValue(r, cookieUsername),
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// issueSession sets the full session cookie set. expiresIn governs the
// access-token, id-token, and username cookies; the refresh token keeps its
// own fixed lifetime independent of the access token's.
func (h *Handler) issueSession(w http.ResponseWriter, s Session, expiresIn int) {
	h.setCookie(w, cookieAccessToken, s.AccessToken, expiresIn, true)
	if s.IDToken != "" {
		h.setCookie(w, cookieIDToken, s.IDToken, expiresIn, true)
	}
	if s.RefreshToken != "" {
		h.setCookie(w, cookieRefreshToken, s.RefreshToken, refreshTokenTTL, true)
	}
	if s.Username != "" {
		h.setCookie(w, cookieUsername, s.Username, expiresIn, false)
	}
}

// clearSession removes every session cookie regardless of which ones were
// actually present.
func (h *Handler) clearSession(w http.ResponseWriter) {
	for _, name := range []string{cookieAccessToken, cookieIDToken, cookieRefreshToken, cookieUsername} {
		clearCookie(w, name)
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setCorrelationCookie sets a short-lived single-use cookie for the PKCE
// state or verifier.
func (h *Handler) setCorrelationCookie(w http.ResponseWriter, name, value string) {
	h.setCookie(w, name, value, correlationMaxAge, true)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
