package nav_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbdesk/arbdesk/adapters/storage"
	"github.com/arbdesk/arbdesk/auth"
	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/nav"
	"github.com/arbdesk/arbdesk/ports"
)

const testDelay = 5 * time.Millisecond

func newMachine(t *testing.T, st ports.Storage) (*nav.Machine, *auth.SessionStore) {
	t.Helper()
	sessions := auth.NewSessionStore(st, zerolog.Nop())
	m := nav.New(st, sessions, zerolog.Nop(), nav.WithTransitionDelay(testDelay))
	t.Cleanup(m.Close)
	return m, sessions
}

func awaitScreen(t *testing.T, m *nav.Machine, want core.Screen) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Screen() == want
	}, time.Second, time.Millisecond, "expected screen %s", want)
}

func TestFreshLoadLandsOnLanding(t *testing.T) {
	m, _ := newMachine(t, storage.NewMemoryStorage())
	assert.Equal(t, core.ScreenLanding, m.Screen())
	assert.Equal(t, core.TabOverview, m.Tab())
}

func TestEnterDashboardRequiresWallet(t *testing.T) {
	m, sessions := newMachine(t, storage.NewMemoryStorage())
	sessions.Persist("tok-1", core.Identity{})

	assert.Error(t, m.EnterDashboard())
	assert.Equal(t, core.ScreenLanding, m.Screen())
}

func TestEnterDashboardRequiresAuthentication(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, _ := newMachine(t, st)
	m.SetWalletConnected(true)

	assert.Error(t, m.EnterDashboard())
	assert.Equal(t, core.ScreenLanding, m.Screen())

	// A connected wallet alone must never reach the dashboard.
	time.Sleep(4 * testDelay)
	assert.Equal(t, core.ScreenLanding, m.Screen())
	_, ok, err := st.Get(ports.KeyDashboard)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnterDashboardTransition(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, sessions := newMachine(t, st)
	sessions.Persist("tok-1", core.Identity{})
	m.SetWalletConnected(true)

	require.NoError(t, m.EnterDashboard())
	assert.Equal(t, core.ScreenTransitioning, m.Screen())

	// A second entry attempt mid-transition is rejected.
	assert.Error(t, m.EnterDashboard())

	awaitScreen(t, m, core.ScreenDashboard)

	flag, ok, err := st.Get(ports.KeyDashboard)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", flag)
}

func TestSelectTabPersists(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, _ := newMachine(t, st)

	m.SelectTab(core.TabWatchlist)
	assert.Equal(t, core.TabWatchlist, m.Tab())

	raw, ok, err := st.Get(ports.KeyActiveTab)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "watchlist", raw)
}

func TestOptimisticRestore(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeySessionToken, "tok-1"))
	require.NoError(t, st.Set(ports.KeyDashboard, "true"))
	require.NoError(t, st.Set(ports.KeyActiveTab, "arb"))

	m, _ := newMachine(t, st)
	assert.Equal(t, core.ScreenDashboard, m.Screen())
	assert.Equal(t, core.TabArb, m.Tab())
}

func TestNoRestoreWithoutToken(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeyDashboard, "true"))

	m, _ := newMachine(t, st)
	assert.Equal(t, core.ScreenLanding, m.Screen())
}

func TestNoRestoreWithoutDashboardFlag(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeySessionToken, "tok-1"))

	m, _ := newMachine(t, st)
	assert.Equal(t, core.ScreenLanding, m.Screen())
}

func TestUnknownTabFallsBackToOverview(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeyActiveTab, "staking"))

	m, _ := newMachine(t, st)
	assert.Equal(t, core.TabOverview, m.Tab())
}

func TestFailedRestoreDemotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeySessionToken, "tok-stale"))
	require.NoError(t, st.Set(ports.KeyDashboard, "true"))
	require.NoError(t, st.Set(ports.KeyActiveTab, "arb"))

	m, sessions := newMachine(t, st)
	require.Equal(t, core.ScreenDashboard, m.Screen())
	require.Equal(t, core.TabArb, m.Tab())

	// The backend rejecting the persisted token demotes the restored view
	// back to landing.
	api := auth.NewClient(srv.URL, sessions, zerolog.Nop())
	restorer := auth.NewRestorer(sessions, api, zerolog.Nop())
	assert.Equal(t, core.StatusUnauthenticated, restorer.Restore(context.Background()))
	awaitScreen(t, m, core.ScreenLanding)

	_, ok, err := st.Get(ports.KeyDashboard)
	require.NoError(t, err)
	assert.False(t, ok)

	// The tab choice survives the demotion.
	assert.Equal(t, core.TabArb, m.Tab())
}

func TestMidSessionInvalidationDemotes(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, sessions := newMachine(t, st)

	sessions.Persist("tok-1", core.Identity{})
	m.SetWalletConnected(true)
	require.NoError(t, m.EnterDashboard())
	awaitScreen(t, m, core.ScreenDashboard)

	sessions.Invalidate()
	awaitScreen(t, m, core.ScreenLanding)
}

func TestWalletDisconnectInvalidatesAndLands(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, sessions := newMachine(t, st)

	sessions.Persist("tok-1", core.Identity{})
	m.SetWalletConnected(true)
	require.NoError(t, m.EnterDashboard())
	awaitScreen(t, m, core.ScreenDashboard)

	m.SetWalletConnected(false)
	awaitScreen(t, m, core.ScreenLanding)
	assert.Equal(t, core.StatusUnauthenticated, sessions.Status())
	_, ok := sessions.Read()
	assert.False(t, ok)
}

func TestDisconnectOnLandingWithoutSessionIsNoop(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, _ := newMachine(t, st)

	m.SetWalletConnected(true)
	m.SetWalletConnected(false)
	assert.Equal(t, core.ScreenLanding, m.Screen())
}

func TestDisconnectMidTransitionAbortsIt(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, sessions := newMachine(t, st)

	sessions.Persist("tok-1", core.Identity{})
	m.SetWalletConnected(true)
	require.NoError(t, m.EnterDashboard())
	m.SetWalletConnected(false)

	assert.Equal(t, core.ScreenLanding, m.Screen())

	// The aborted timer must never complete the transition later.
	time.Sleep(4 * testDelay)
	assert.Equal(t, core.ScreenLanding, m.Screen())
}

func TestSignOut(t *testing.T) {
	st := storage.NewMemoryStorage()
	m, sessions := newMachine(t, st)

	sessions.Persist("tok-1", core.Identity{})
	m.SetWalletConnected(true)
	require.NoError(t, m.EnterDashboard())
	awaitScreen(t, m, core.ScreenDashboard)

	m.SignOut()
	awaitScreen(t, m, core.ScreenLanding)
	assert.Equal(t, core.StatusUnauthenticated, sessions.Status())

	// Tab choice survives sign-out; only the dashboard flag is cleared.
	m.SelectTab(core.TabFunds)
	m.SignOut()
	assert.Equal(t, core.TabFunds, m.Tab())
}
