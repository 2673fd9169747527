package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/core"
)

// Client is the authenticated HTTP wrapper: it attaches the bearer token to
// every request and invalidates the session on any authorization-denied
// response. Callers must not retry a denied request without
// re-authenticating.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *SessionStore
	log      zerolog.Logger
}

// NewClient creates an authenticated client reading its credential from the
// session store.
func NewClient(baseURL string, sessions *SessionStore, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// Do issues method path with an optional JSON body, decoding a 2xx response
// into out when out is non-nil. A 401 anywhere invalidates the session and
// returns ErrSessionInvalid.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.sessions.Read(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn().Str("path", path).Msg("authorization denied; invalidating session")
		c.sessions.Invalidate()
		return core.ErrSessionInvalid
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Session asks the backend whether the current token is still valid and
// returns the identity it belongs to.
func (c *Client) Session(ctx context.Context) (core.Identity, error) {
	var id core.Identity
	if err := c.Do(ctx, http.MethodGet, "/api/auth/session", nil, &id); err != nil {
		return core.Identity{}, err
	}
	return id, nil
}

// Engines fetches the per-engine reports from the backend.
func (c *Client) Engines(ctx context.Context) ([]core.EngineReport, error) {
	var reports []core.EngineReport
	if err := c.Do(ctx, http.MethodGet, "/api/engines", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Logout revokes the session server-side, then invalidates it locally
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.sessions.Invalidate()
	if err != nil && err != core.ErrSessionInvalid {
		return err
	}
	return nil
}
