package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

// Endpoints are the IdP endpoints the gateway talks to.
type Endpoints struct {
	Auth     string
	Token    string
	Logout   string
	UserInfo string
}

const discoveryAttempts = 5

// Discover resolves the IdP endpoints via OIDC discovery, retrying briefly
// to ride out IdP startup. If discovery keeps failing it falls back to
// Keycloak-convention paths derived from the issuer so the gateway can still
// boot; the first authorization redirect will surface a broken issuer anyway.
func Discover(ctx context.Context, httpClient *http.Client, issuer string) Endpoints {
	ctx = gooidc.ClientContext(ctx, httpClient)

	var (
		provider *gooidc.Provider
		err      error
	)
	for i := range discoveryAttempts {
		provider, err = gooidc.NewProvider(ctx, issuer)
		if err == nil {
			break
		}
		slog.Warn("OIDC discovery attempt failed",
			"attempt", i+1, "attempts", discoveryAttempts, "issuer", issuer, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		slog.Warn("OIDC discovery unavailable, using Keycloak-convention endpoints", "issuer", issuer)
		return keycloakEndpoints(issuer)
	}

	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
		UserinfoEndpoint   string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&extra); err != nil {
		slog.Warn("could not read extra provider metadata", "error", err)
	}

	eps := Endpoints{
		Auth:     provider.Endpoint().AuthURL,
		Token:    provider.Endpoint().TokenURL,
		Logout:   extra.EndSessionEndpoint,
		UserInfo: extra.UserinfoEndpoint,
	}
	// Not every IdP advertises these two.
	fallback := keycloakEndpoints(issuer)
	if eps.Logout == "" {
		eps.Logout = fallback.Logout
	}
	if eps.UserInfo == "" {
		eps.UserInfo = fallback.UserInfo
	}
	slog.Info("OIDC provider discovered", "issuer", issuer)
	return eps
}

// keycloakEndpoints derives the endpoint set from the issuer by Keycloak
// path convention.
func keycloakEndpoints(issuer string) Endpoints {
	base := issuer + "/protocol/openid-connect"
	return Endpoints{
		Auth:     base + "/auth",
		Token:    base + "/token",
		Logout:   base + "/logout",
		UserInfo: base + "/userinfo",
	}
}
