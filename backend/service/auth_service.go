// Package service holds the backend's authentication business logic: nonce
// issuance, sign-in verification and token validation.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/backend/store"
	"github.com/arbdesk/arbdesk/backend/tokenizer"
	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/siwe"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidMessage   = errors.New("invalid sign-in message")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// DefaultNonceTTL bounds how long a challenge stays answerable.
const DefaultNonceTTL = 5 * time.Minute

// AuthService verifies wallet ownership and manages session tokens.
type AuthService struct {
	tokenizer *tokenizer.Tokenizer
	store     store.Store
	domain    string
	nonceTTL  time.Duration
	log       zerolog.Logger
}

// NewAuthService creates the service. domain is the serving host expected in
// every sign-in message.
func NewAuthService(tok *tokenizer.Tokenizer, st store.Store, domain string, log zerolog.Logger) *AuthService {
	return &AuthService{
		tokenizer: tok,
		store:     st,
		domain:    domain,
		nonceTTL:  DefaultNonceTTL,
		log:       log.With().Str("component", "authsvc").Logger(),
	}
}

// IssueNonce generates and records a single-use random nonce.
func (s *AuthService) IssueNonce(ctx context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	if err := s.store.SaveNonce(ctx, nonce, s.nonceTTL); err != nil {
		return "", fmt.Errorf("failed to record nonce: %w", err)
	}
	return nonce, nil
}

// VerifyLogin checks a signed message byte-for-byte against the canonical
// template, consumes its nonce, recovers the signer and issues a session
// token for it.
func (s *AuthService) VerifyLogin(ctx context.Context, rawMessage, signature string) (string, core.Identity, error) {
	msg, err := siwe.Parse(rawMessage)
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Domain != s.domain {
		return "", core.Identity{}, fmt.Errorf("%w: domain %q", ErrInvalidMessage, msg.Domain)
	}
	if msg.ChainID != siwe.SupportedChainID {
		return "", core.Identity{}, fmt.Errorf("%w: chain id %d", ErrInvalidMessage, msg.ChainID)
	}

	live, err := s.store.ConsumeNonce(ctx, msg.Nonce)
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("failed to check nonce: %w", err)
	}
	if !live {
		return "", core.Identity{}, core.ErrInvalidNonce
	}

	recovered, err := recoverSigner(rawMessage, signature)
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if recovered != common.HexToAddress(msg.Address) {
		return "", core.Identity{}, ErrInvalidSignature
	}

	identity := core.Identity{Address: msg.Address, Role: "trader"}
	token, err := s.tokenizer.Issue(identity.Address, identity.Role)
	if err != nil {
		return "", core.Identity{}, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info().Str("address", identity.Address).Msg("sign-in verified")
	return token, identity, nil
}

// ValidateToken parses a bearer token and checks expiry and revocation.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (core.Identity, error) {
	session, err := s.tokenizer.Parse(tokenStr)
	if err != nil {
		return core.Identity{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		return core.Identity{}, ErrTokenExpired
	}

	revoked, err := s.store.IsTokenRevoked(ctx, session.TokenID)
	if err != nil {
		return core.Identity{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return core.Identity{}, ErrTokenRevoked
	}

	return core.Identity{Address: session.Address, Role: session.Role}, nil
}

// Logout revokes a token for the remainder of its lifetime. An expired token
// is listed briefly anyway so it cannot be replayed under clock skew.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	session, err := s.tokenizer.Parse(tokenStr)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := s.store.RevokeToken(ctx, session.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// recoverSigner recovers the address behind an EIP-191 personal-sign over
// rawMessage.
func recoverSigner(rawMessage, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	// Wallets emit the recovery id as 27/28.
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}

	hash := accounts.TextHash([]byte(rawMessage))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
