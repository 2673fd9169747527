package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceSingleUse(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	require.NoError(t, st.SaveNonce(ctx, "n1", time.Minute))

	live, err := st.ConsumeNonce(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, live)

	live, err = st.ConsumeNonce(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, live, "a nonce answers exactly one challenge")
}

func TestUnknownNonce(t *testing.T) {
	st := NewMemoryStore()
	live, err := st.ConsumeNonce(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, live)
}

func TestExpiredNonce(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	require.NoError(t, st.SaveNonce(ctx, "n1", -time.Second))

	live, err := st.ConsumeNonce(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, live)
}

func TestRevocation(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	revoked, err := st.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, st.RevokeToken(ctx, "jti-1", time.Minute))

	revoked, err = st.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationExpires(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	require.NoError(t, st.RevokeToken(ctx, "jti-1", 2*time.Millisecond))

	assert.Eventually(t, func() bool {
		revoked, err := st.IsTokenRevoked(ctx, "jti-1")
		return err == nil && !revoked
	}, time.Second, time.Millisecond)
}
