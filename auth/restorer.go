package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/core"
)

// Restorer turns a persisted token into an authenticated session on cold
// start without asking the user to sign again. It is a strict one-shot
// state machine: unauthenticated -> loading -> authenticated or
// unauthenticated, with no retries. A failed restoration demotes to
// unauthenticated and the user must sign in again.
type Restorer struct {
	sessions *SessionStore
	api      *Client
	log      zerolog.Logger
	once     sync.Once
}

// NewRestorer creates a restorer over the session store and the
// authenticated client.
func NewRestorer(sessions *SessionStore, api *Client, log zerolog.Logger) *Restorer {
	return &Restorer{
		sessions: sessions,
		api:      api,
		log:      log.With().Str("component", "restorer").Logger(),
	}
}

// Restore runs the restoration protocol once per process and returns the
// resulting authentication status. Subsequent calls return the current
// status without re-running.
func (r *Restorer) Restore(ctx context.Context) core.AuthStatus {
	r.once.Do(func() {
		if _, ok := r.sessions.Read(); !ok {
			r.log.Debug().Msg("no persisted token; staying unauthenticated")
			return
		}

		r.sessions.setLoading()

		id, err := r.api.Session(ctx)
		if err != nil {
			// Authorization-denied already invalidated through the client
			// wrapper; invalidating again is a no-op. Network failures take
			// the same path: demote, never retry here.
			r.log.Info().Err(err).Msg("session restoration failed")
			r.sessions.Invalidate()
			return
		}

		r.log.Info().Str("address", id.Address).Str("role", id.Role).Msg("session restored")
		r.sessions.setAuthenticated(id)
	})
	return r.sessions.Status()
}
