package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbdesk/arbdesk/core"
)

func TestRestoreWithoutToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	sessions, _ := newTestStore(t)
	client := NewClient(srv.URL, sessions, zerolog.Nop())
	restorer := NewRestorer(sessions, client, zerolog.Nop())

	status := restorer.Restore(context.Background())
	assert.Equal(t, core.StatusUnauthenticated, status)
	assert.Zero(t, calls.Load(), "no session check without a persisted token")
}

func TestRestoreSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"address":"` + testAddress + `","role":"trader"}`))
	}))
	defer srv.Close()

	sessions, _ := newTestStore(t)
	sessions.Persist("tok-123", core.Identity{})
	client := NewClient(srv.URL, sessions, zerolog.Nop())
	restorer := NewRestorer(sessions, client, zerolog.Nop())

	status := restorer.Restore(context.Background())
	assert.Equal(t, core.StatusAuthenticated, status)
	assert.Equal(t, testAddress, sessions.Identity().Address)
	assert.Equal(t, "trader", sessions.Identity().Role)
}

func TestRestoreStaleTokenDemotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sessions, _ := newTestStore(t)
	sessions.Persist("stale", core.Identity{})
	client := NewClient(srv.URL, sessions, zerolog.Nop())
	restorer := NewRestorer(sessions, client, zerolog.Nop())

	status := restorer.Restore(context.Background())
	assert.Equal(t, core.StatusUnauthenticated, status)

	_, ok := sessions.Read()
	assert.False(t, ok, "stale token must be cleared")
}

func TestRestoreNetworkFailureDemotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	sessions, _ := newTestStore(t)
	sessions.Persist("tok-123", core.Identity{})
	client := NewClient(srv.URL, sessions, zerolog.Nop())
	restorer := NewRestorer(sessions, client, zerolog.Nop())
	srv.Close()

	status := restorer.Restore(context.Background())
	assert.Equal(t, core.StatusUnauthenticated, status)
	_, ok := sessions.Read()
	assert.False(t, ok)
}

func TestRestoreRunsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"address":"` + testAddress + `","role":"trader"}`))
	}))
	defer srv.Close()

	sessions, _ := newTestStore(t)
	sessions.Persist("tok-123", core.Identity{})
	client := NewClient(srv.URL, sessions, zerolog.Nop())
	restorer := NewRestorer(sessions, client, zerolog.Nop())

	restorer.Restore(context.Background())
	restorer.Restore(context.Background())

	assert.Equal(t, int32(1), calls.Load())
}
