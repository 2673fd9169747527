package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/siwe"
)

// Authenticator executes the three-step sign-in protocol: request a nonce,
// build the canonical signable message, submit the signature. It never keeps
// the resulting token; that belongs to the SessionStore.
type Authenticator struct {
	baseURL string
	domain  string
	http    *http.Client
	log     zerolog.Logger
}

// NewAuthenticator creates an authenticator against the backend at baseURL.
// The message domain is derived from the backend host.
func NewAuthenticator(baseURL string, log zerolog.Logger) (*Authenticator, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	return &Authenticator{
		baseURL: baseURL,
		domain:  u.Host,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "authenticator").Logger(),
	}, nil
}

// RequestNonce asks the backend for a fresh single-use nonce. Failures
// propagate as ErrNonceUnavailable; retrying is the caller's decision.
func (a *Authenticator) RequestNonce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/auth/nonce", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrNonceUnavailable, err)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrNonceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: backend returned %d", core.ErrNonceUnavailable, resp.StatusCode)
	}

	var body struct {
		Nonce string `json:"nonce"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Nonce == "" {
		return "", fmt.Errorf("%w: malformed nonce response", core.ErrNonceUnavailable)
	}
	return body.Nonce, nil
}

// BuildMessage produces the canonical signable message for the most recently
// issued nonce. Pure and deterministic: the same inputs always yield the
// same message.
func (a *Authenticator) BuildMessage(nonce, address string, chainID int64) (siwe.Message, error) {
	return siwe.Build(a.domain, a.baseURL, address, chainID, nonce)
}

// Verify submits the exact message string and its signature. On success it
// returns the opaque session token and the identity the backend issued it
// for; persisting them is the caller's job. A rejection maps to
// ErrSignatureRejected, a network failure to ErrVerifyTransport.
func (a *Authenticator) Verify(ctx context.Context, message, signature string) (string, core.Identity, error) {
	payload, err := json.Marshal(map[string]string{
		"message":   message,
		"signature": signature,
	})
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("%w: %v", core.ErrVerifyTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/auth/verify", bytes.NewReader(payload))
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("%w: %v", core.ErrVerifyTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("%w: %v", core.ErrVerifyTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		a.log.Debug().Int("status", resp.StatusCode).Bytes("body", body).Msg("verify rejected")
		return "", core.Identity{}, fmt.Errorf("%w: backend returned %d", core.ErrSignatureRejected, resp.StatusCode)
	}

	var body struct {
		Token   string `json:"token"`
		Address string `json:"address"`
		Role    string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Token == "" {
		return "", core.Identity{}, fmt.Errorf("%w: malformed verify response", core.ErrVerifyTransport)
	}
	return body.Token, core.Identity{Address: body.Address, Role: body.Role}, nil
}
