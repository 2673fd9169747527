package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the Store interface, for running
// more than one backend instance against a shared ledger.
type RedisStore struct {
	client       *redis.Client
	noncePrefix  string
	revokePrefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:       client,
		noncePrefix:  "arbdesk:nonce:",
		revokePrefix: "arbdesk:revoked:",
	}
}

// SaveNonce records a nonce with an expiry.
func (s *RedisStore) SaveNonce(ctx context.Context, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.noncePrefix+nonce, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}
	return nil
}

// ConsumeNonce atomically removes the nonce; GETDEL makes the consume
// single-use across instances.
func (s *RedisStore) ConsumeNonce(ctx context.Context, nonce string) (bool, error) {
	_, err := s.client.GetDel(ctx, s.noncePrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return true, nil
}

// RevokeToken lists a token id until its natural expiry.
func (s *RedisStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.revokePrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks the revocation list.
func (s *RedisStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.revokePrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

var _ Store = (*RedisStore)(nil)
