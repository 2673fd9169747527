package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface. It is
// the default when no redis is configured and the implementation tests run
// against.
type MemoryStore struct {
	mu      sync.Mutex
	nonces  map[string]time.Time
	revoked map[string]time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces:  make(map[string]time.Time),
		revoked: make(map[string]time.Time),
	}
}

// SaveNonce records a nonce with an expiry.
func (s *MemoryStore) SaveNonce(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[nonce] = time.Now().Add(ttl)
	return nil
}

// ConsumeNonce removes the nonce and reports whether it was live.
func (s *MemoryStore) ConsumeNonce(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.nonces[nonce]
	if !ok {
		return false, nil
	}
	delete(s.nonces, nonce)
	if time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

// RevokeToken lists a token id until its natural expiry.
func (s *MemoryStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := time.Now().Add(ttl)
	s.revoked[tokenID] = expiry

	// Drop the entry once the token would have expired anyway.
	go func() {
		time.Sleep(ttl)

		s.mu.Lock()
		defer s.mu.Unlock()
		if stored, exists := s.revoked[tokenID]; exists && !stored.After(expiry) {
			delete(s.revoked, tokenID)
		}
	}()

	return nil
}

// IsTokenRevoked checks the revocation list.
func (s *MemoryStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
