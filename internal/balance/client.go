package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client performs the single authenticated balance-inquiry call against the
// upstream resource service. It never retries: the call is a read and failure
// is surfaced to the caller instead.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given upstream base URL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// UpstreamError reports a response the upstream itself produced, as opposed
// to a transport failure (which surfaces as a plain wrapped error).
type UpstreamError struct {
	StatusCode int
	Body       string
	// Malformed marks a success-status response whose body was not a
	// parsable balance document.
	Malformed bool
}

func (e *UpstreamError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("upstream returned %d with unparsable body", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Fetch retrieves and normalizes the balance document for owner. The access
// token is passed through as a bearer credential; the gateway never mints its
// own.
func (c *Client) Fetch(ctx context.Context, owner, accessToken string) ([]Item, error) {
	target := c.baseURL + "/balance-inquiry/" + url.PathEscape(owner)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body), Malformed: true}
	}
	return Normalize(doc), nil
}
