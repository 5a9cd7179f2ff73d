package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config is the gateway's startup configuration. It is constructed once in
// main and handed to every component that needs it; nothing reads the
// environment after startup.
type Config struct {
	ListenAddr  string `toml:"listen_addr" env:"LISTEN_ADDR"`
	LogLevel    string `toml:"log_level" env:"LOG_LEVEL"`
	Environment string `toml:"environment" env:"APP_ENV"`

	// IdP and upstream wiring. All four are required.
	Issuer          string `toml:"issuer" env:"IDP_ISSUER"`
	ClientID        string `toml:"client_id" env:"IDP_CLIENT_ID"`
	AppBaseURL      string `toml:"app_base_url" env:"APP_BASE_URL"`
	UpstreamBaseURL string `toml:"upstream_base_url" env:"BACKEND_BASE_URL"`

	InsecureSkipVerify bool `toml:"insecure_skip_verify" env:"INSECURE_SKIP_VERIFY"`
}

// Load builds the configuration from an optional TOML file overlaid with
// environment variables. Environment values win. Missing required values are
// a startup error, never a per-request failure.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:  ":3000",
		LogLevel:    "info",
		Environment: "development",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"issuer (IDP_ISSUER)", c.Issuer},
		{"client_id (IDP_CLIENT_ID)", c.ClientID},
		{"app_base_url (APP_BASE_URL)", c.AppBaseURL},
		{"upstream_base_url (BACKEND_BASE_URL)", c.UpstreamBaseURL},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	for _, u := range []*string{&c.Issuer, &c.AppBaseURL, &c.UpstreamBaseURL} {
		normalized, err := normalizeBaseURL(*u)
		if err != nil {
			return err
		}
		*u = normalized
	}
	return nil
}

// normalizeBaseURL validates the URL and strips any trailing slash.
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q: host is required", raw)
	}
	p := strings.TrimRight(u.Path, "/")
	return u.Scheme + "://" + u.Host + p, nil
}

// RedirectURI returns the OAuth2 redirect URI derived from the app base URL.
func (c *Config) RedirectURI() string {
	return c.AppBaseURL + "/auth/callback"
}

// Production reports whether session cookies must carry the Secure flag.
func (c *Config) Production() bool {
	return c.Environment == "production"
}
