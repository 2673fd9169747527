package auth

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbdesk/arbdesk/adapters/storage"
	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/ports"
)

func newTestStore(t *testing.T) (*SessionStore, *storage.MemoryStorage) {
	t.Helper()
	mem := storage.NewMemoryStorage()
	return NewSessionStore(mem, zerolog.Nop()), mem
}

func TestPersistThenRead(t *testing.T) {
	sessions, _ := newTestStore(t)

	id := core.Identity{Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Role: "trader"}
	sessions.Persist("tok-123", id)

	got, ok := sessions.Read()
	require.True(t, ok)
	assert.Equal(t, "tok-123", got)
	assert.Equal(t, core.StatusAuthenticated, sessions.Status())

	// A fresh sign-in records the identity right away, same as a restore.
	assert.Equal(t, id, sessions.Identity())
}

func TestPersistOverwrites(t *testing.T) {
	sessions, _ := newTestStore(t)

	sessions.Persist("old", core.Identity{})
	sessions.Persist("new", core.Identity{})

	got, ok := sessions.Read()
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestInvalidateClearsEverything(t *testing.T) {
	sessions, mem := newTestStore(t)
	require.NoError(t, mem.Set(ports.KeyDashboard, "true"))

	sessions.Persist("tok-123", core.Identity{})
	sessions.Invalidate()

	_, ok := sessions.Read()
	assert.False(t, ok)
	assert.Equal(t, core.StatusUnauthenticated, sessions.Status())
	assert.Equal(t, core.Identity{}, sessions.Identity())

	_, ok, err := mem.Get(ports.KeyDashboard)
	require.NoError(t, err)
	assert.False(t, ok, "dashboard flag should be cleared")
}

func TestInvalidateIsIdempotent(t *testing.T) {
	sessions, _ := newTestStore(t)
	sessions.Persist("tok-123", core.Identity{})

	sessions.Invalidate()
	sessions.Invalidate()

	_, ok := sessions.Read()
	assert.False(t, ok)
	assert.Equal(t, core.StatusUnauthenticated, sessions.Status())
}

func TestStorageFailureDegradesToNoToken(t *testing.T) {
	sessions, mem := newTestStore(t)
	sessions.Persist("tok-123", core.Identity{})

	mem.Fail = true
	_, ok := sessions.Read()
	assert.False(t, ok)
}

func TestSubscribeSeesChanges(t *testing.T) {
	sessions, _ := newTestStore(t)
	ch, cancel := sessions.Subscribe()
	defer cancel()

	sessions.Persist("tok-123", core.Identity{})
	assert.Equal(t, core.StatusAuthenticated, <-ch)

	sessions.Invalidate()
	assert.Equal(t, core.StatusUnauthenticated, <-ch)
}

func TestSubscriberBehindSeesLatest(t *testing.T) {
	sessions, _ := newTestStore(t)
	ch, cancel := sessions.Subscribe()
	defer cancel()

	// Several rapid flips; a lagging subscriber must still end on the
	// latest state.
	sessions.Persist("a", core.Identity{})
	sessions.Invalidate()
	sessions.Persist("b", core.Identity{})

	var last core.AuthStatus
	for {
		select {
		case st := <-ch:
			last = st
			continue
		default:
		}
		break
	}
	assert.Equal(t, core.StatusAuthenticated, last)
}

func TestCancelStopsNotifications(t *testing.T) {
	sessions, _ := newTestStore(t)
	ch, cancel := sessions.Subscribe()
	cancel()

	sessions.Persist("tok-123", core.Identity{})

	_, open := <-ch
	assert.False(t, open)
}
