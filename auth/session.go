// Package auth implements the challenge-response sign-in protocol, the
// session token lifecycle, and cold-start session restoration.
package auth

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/ports"
)

// SessionStore is the single writer of the session token and of the
// process-wide authentication status. Everything else reads through it or
// subscribes to it.
type SessionStore struct {
	storage ports.Storage
	log     zerolog.Logger

	mu       sync.RWMutex
	status   core.AuthStatus
	identity core.Identity
	subs     map[int]chan core.AuthStatus
	nextSub  int
}

// NewSessionStore creates a session store on top of durable storage. The
// initial status is always unauthenticated; the Restorer promotes it.
func NewSessionStore(storage ports.Storage, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		storage: storage,
		log:     log.With().Str("component", "session").Logger(),
		status:  core.StatusUnauthenticated,
		subs:    make(map[int]chan core.AuthStatus),
	}
}

// Persist stores a token obtained from a completed verify, records the
// identity it was issued for and flips the status to authenticated. A
// storage failure is logged and the session stays valid in memory; it simply
// will not survive a restart.
func (s *SessionStore) Persist(token string, id core.Identity) {
	if err := s.storage.Set(ports.KeySessionToken, token); err != nil {
		s.log.Warn().Err(err).Msg("token not persisted; session will not survive restart")
	}

	s.mu.Lock()
	s.status = core.StatusAuthenticated
	s.identity = id
	s.notifyLocked()
	s.mu.Unlock()
}

// Read returns the persisted token, if any. Storage failures degrade to
// "no token".
func (s *SessionStore) Read() (string, bool) {
	v, ok, err := s.storage.Get(ports.KeySessionToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("storage read failed; treating as no token")
		return "", false
	}
	return v, ok && v != ""
}

// Invalidate clears the persisted token and the dashboard view state, and
// flips the status to unauthenticated. It is idempotent.
func (s *SessionStore) Invalidate() {
	if err := s.storage.Delete(ports.KeySessionToken); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted token")
	}
	if err := s.storage.Delete(ports.KeyDashboard); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear dashboard flag")
	}

	s.mu.Lock()
	changed := s.status != core.StatusUnauthenticated
	s.status = core.StatusUnauthenticated
	s.identity = core.Identity{}
	if changed {
		s.notifyLocked()
	}
	s.mu.Unlock()
}

// Status returns the current authentication status.
func (s *SessionStore) Status() core.AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Identity returns the identity recorded at restoration or sign-in. Zero
// value while unauthenticated.
func (s *SessionStore) Identity() core.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Subscribe returns a channel receiving every status change and a cancel
// function. The channel is buffered; a subscriber that falls behind misses
// intermediate states, never the latest one.
func (s *SessionStore) Subscribe() (<-chan core.AuthStatus, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan core.AuthStatus, 4)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// setLoading marks a restoration check in flight.
func (s *SessionStore) setLoading() {
	s.mu.Lock()
	s.status = core.StatusLoading
	s.notifyLocked()
	s.mu.Unlock()
}

// setAuthenticated records the confirmed identity.
func (s *SessionStore) setAuthenticated(id core.Identity) {
	s.mu.Lock()
	s.status = core.StatusAuthenticated
	s.identity = id
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *SessionStore) notifyLocked() {
	for _, ch := range s.subs {
		// Drain one stale value if the subscriber is behind, then push the
		// latest status.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.status:
		default:
		}
	}
}
