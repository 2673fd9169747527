// Package nav decides which top-level screen to render from
// {wallet-connected, authenticated} and persists the user's place across
// restarts.
package nav

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/auth"
	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/ports"
)

// DefaultTransitionDelay is the landing exit-animation window.
const DefaultTransitionDelay = 600 * time.Millisecond

// Machine is the navigation state machine. Screens move
// landing -> transitioning -> dashboard on explicit entry, and any loss of
// wallet or session forces landing. On a fresh load it restores the
// dashboard optimistically when both the dashboard flag and a token are
// persisted; if restoration later fails, the session store notification
// demotes it.
type Machine struct {
	storage  ports.Storage
	sessions *auth.SessionStore
	log      zerolog.Logger
	delay    time.Duration

	mu        sync.Mutex
	screen    core.Screen
	tab       core.Tab
	wallet    bool
	timer     *time.Timer
	closeOnce sync.Once
	unsub     func()
	done      chan struct{}
}

// Option tunes the machine.
type Option func(*Machine)

// WithTransitionDelay overrides the transition window (tests use a short
// one).
func WithTransitionDelay(d time.Duration) Option {
	return func(m *Machine) { m.delay = d }
}

// New builds the machine, restores the persisted view state, and starts
// observing the session store.
func New(storage ports.Storage, sessions *auth.SessionStore, log zerolog.Logger, opts ...Option) *Machine {
	m := &Machine{
		storage:  storage,
		sessions: sessions,
		log:      log.With().Str("component", "nav").Logger(),
		delay:    DefaultTransitionDelay,
		screen:   core.ScreenLanding,
		tab:      core.TabOverview,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if raw, ok, err := storage.Get(ports.KeyActiveTab); err == nil && ok {
		m.tab = core.ParseTab(raw)
	}

	// Optimistic restore: show the dashboard immediately only when the user
	// was last there and a token might still be good.
	flag, ok, err := storage.Get(ports.KeyDashboard)
	_, hasToken := sessions.Read()
	if err == nil && ok && flag == "true" && hasToken {
		m.screen = core.ScreenDashboard
	}

	ch, unsub := sessions.Subscribe()
	m.unsub = unsub
	go m.observe(ch)

	return m
}

// observe demotes to landing whenever authentication is lost while past the
// landing screen. This covers sign-out, a 401 on any authenticated call and
// a failed optimistic restore.
func (m *Machine) observe(ch <-chan core.AuthStatus) {
	defer close(m.done)
	for status := range ch {
		if status == core.StatusUnauthenticated {
			m.forceLanding("session lost")
		}
	}
}

// Screen returns the current screen.
func (m *Machine) Screen() core.Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screen
}

// Tab returns the selected dashboard tab.
func (m *Machine) Tab() core.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

// SelectTab switches the dashboard tab and persists the choice.
func (m *Machine) SelectTab(tab core.Tab) {
	m.mu.Lock()
	m.tab = tab
	m.mu.Unlock()

	if err := m.storage.Set(ports.KeyActiveTab, string(tab)); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist active tab")
	}
}

// SetWalletConnected records the wallet connection state. A disconnect while
// past the landing screen invalidates the session first, then forces
// landing.
func (m *Machine) SetWalletConnected(connected bool) {
	m.mu.Lock()
	m.wallet = connected
	past := m.screen != core.ScreenLanding
	m.mu.Unlock()

	if connected {
		return
	}
	if past || m.sessions.Status() == core.StatusAuthenticated {
		m.sessions.Invalidate()
		m.forceLanding("wallet disconnected")
	}
}

// EnterDashboard starts the landing -> transitioning -> dashboard sequence.
// It requires the landing screen, a connected wallet and an authenticated
// session.
func (m *Machine) EnterDashboard() error {
	if m.sessions.Status() != core.StatusAuthenticated {
		return fmt.Errorf("not signed in")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.screen != core.ScreenLanding {
		return fmt.Errorf("cannot enter dashboard from %s", m.screen)
	}
	if !m.wallet {
		return fmt.Errorf("wallet not connected")
	}

	m.screen = core.ScreenTransitioning
	m.timer = time.AfterFunc(m.delay, m.completeTransition)
	return nil
}

func (m *Machine) completeTransition() {
	// The session may have been lost since the transition was armed; the
	// dashboard is never shown without an authenticated session.
	if m.sessions.Status() != core.StatusAuthenticated {
		m.forceLanding("session lost before transition completed")
		return
	}

	m.mu.Lock()
	if m.screen != core.ScreenTransitioning {
		m.mu.Unlock()
		return
	}
	m.screen = core.ScreenDashboard
	m.mu.Unlock()

	if err := m.storage.Set(ports.KeyDashboard, "true"); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist dashboard flag")
	}
	m.log.Debug().Msg("entered dashboard")
}

// SignOut invalidates the session and returns to landing.
func (m *Machine) SignOut() {
	m.sessions.Invalidate()
	m.forceLanding("signed out")
}

func (m *Machine) forceLanding(reason string) {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	changed := m.screen != core.ScreenLanding
	m.screen = core.ScreenLanding
	m.mu.Unlock()

	// The session store clears this on Invalidate as well; clearing here too
	// covers demotions that never touched the store.
	if err := m.storage.Delete(ports.KeyDashboard); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear dashboard flag")
	}
	if changed {
		m.log.Info().Str("reason", reason).Msg("forced to landing")
	}
}

// Close stops the transition timer and the session observer.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		m.mu.Unlock()
		m.unsub()
		<-m.done
	})
}
