// Package store tracks single-use nonces and revoked session tokens.
package store

import (
	"context"
	"time"
)

// Store is the backend's nonce ledger and token revocation list. A nonce is
// written once, consumed at most once, and expires on its own; a revoked
// token id stays listed until the token would have expired anyway.
type Store interface {
	SaveNonce(ctx context.Context, nonce string, ttl time.Duration) error
	// ConsumeNonce atomically removes the nonce, reporting whether it was
	// present and unexpired.
	ConsumeNonce(ctx context.Context, nonce string) (bool, error)

	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
