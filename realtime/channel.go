// Package realtime maintains the token-gated websocket that pushes engine
// status, wrapping the callback-style socket into a typed event stream.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/core"
)

// State is the channel's lifecycle state.
type State int

const (
	// StateIdle means Start has not been called.
	StateIdle State = iota

	// StateWaiting means the channel is polling for a token before its
	// first connect attempt.
	StateWaiting

	// StateConnecting means a dial is in flight. The wait loop is always
	// stopped before entering this state.
	StateConnecting

	// StateConnected means the socket is open and receiving pushes.
	StateConnected

	// StateDisconnected means the socket dropped; a redial is pending
	// while a token remains present.
	StateDisconnected

	// StateGaveUp means the wait loop exhausted its attempts without ever
	// seeing a token. A later sign-in re-arms the loop.
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateGaveUp:
		return "gave_up"
	default:
		return "idle"
	}
}

// EventType tags events on the channel's stream.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventStatus
	EventGaveUp
)

// Event is one occurrence on the channel: a connect, a disconnect, a status
// push, or the wait loop giving up.
type Event struct {
	Type   EventType
	Status core.EngineStatus
	Err    error
}

// Conn is the minimal socket surface the channel consumes. Satisfied by
// *websocket.Conn.
type Conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// DialFunc opens a socket to url. Injectable for tests.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// TokenSource is where the channel reads its credential and learns about
// authentication changes. Satisfied by *auth.SessionStore.
type TokenSource interface {
	Read() (string, bool)
	Subscribe() (<-chan core.AuthStatus, func())
}

// Config tunes the channel. Zero values take the defaults.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://host/ws.
	URL string

	// PollInterval is the token re-check interval while waiting.
	// Default 500ms.
	PollInterval time.Duration

	// MaxPollAttempts bounds the wait loop. Default 20.
	MaxPollAttempts int

	// RedialInterval paces reconnects after a drop. Default 5s.
	RedialInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = 20
	}
	if c.RedialInterval <= 0 {
		c.RedialInterval = 5 * time.Second
	}
}

// Channel is the realtime status consumer. It never dials while no token is
// present, keeps the last pushed snapshot (all-stopped until the first
// push), and tears down deterministically on Close.
type Channel struct {
	cfg    Config
	tokens TokenSource
	dial   DialFunc
	log    zerolog.Logger

	mu      sync.RWMutex
	state   State
	status  core.EngineStatus
	conn    Conn
	closing bool

	events  chan Event
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a channel. The default dialer is gorilla/websocket.
func New(cfg Config, tokens TokenSource, log zerolog.Logger) *Channel {
	cfg.applyDefaults()
	return &Channel{
		cfg:    cfg,
		tokens: tokens,
		dial:   gorillaDial,
		log:    log.With().Str("component", "realtime").Logger(),
		state:  StateIdle,
		status: core.EngineStatus{},
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}
}

// SetDialFunc overrides the dialer. Must be called before Start.
func (c *Channel) SetDialFunc(dial DialFunc) {
	c.dial = dial
}

// Events returns the channel's event stream. It is closed when the channel
// shuts down.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Status returns the last pushed snapshot. All engines read as stopped until
// the first push arrives.
func (c *Channel) Status() core.EngineStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.Clone()
}

// Connected reports whether the socket is currently open.
func (c *Channel) Connected() bool {
	return c.State() == StateConnected
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start launches the channel. Calling Start twice is an error; re-mounting
// means creating a new Channel after Close so two competing connections can
// never exist.
func (c *Channel) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("realtime channel already started")
	}
	c.started = true
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

// Close tears the channel down: the wait-loop timer is stopped, the socket
// is closed, and the run goroutine has exited by the time Close returns.
// Idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	// Registration of a freshly dialed socket checks this flag under the
	// same lock, so a dial resolving mid-teardown can never slip a live
	// connection past us.
	c.closing = true
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	cancel()
	if conn != nil {
		conn.Close()
	}
	<-c.done
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	authCh, unsub := c.tokens.Subscribe()
	defer unsub()

	for {
		token, ok := c.tokens.Read()
		if !ok {
			token, ok = c.waitForToken(ctx, authCh)
			if !ok {
				return
			}
		}

		// The wait loop's ticker is stopped by now; waiting and connecting
		// are mutually exclusive.
		c.setState(StateConnecting)
		conn, err := c.dial(ctx, c.endpoint(token))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.setState(StateDisconnected)
			c.emit(Event{Type: EventDisconnected, Err: fmt.Errorf("%w: %v", core.ErrRealtimeUnavailable, err)})
			c.log.Warn().Err(err).Msg("dial failed")
			if !c.pause(ctx, c.cfg.RedialInterval) {
				return
			}
			continue
		}

		if !c.register(conn) {
			conn.Close()
			return
		}
		c.emit(Event{Type: EventConnected})
		c.log.Info().Msg("status channel connected")

		c.readLoop(ctx, conn)

		c.setConn(nil)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.setState(StateDisconnected)
		c.emit(Event{Type: EventDisconnected})
		c.log.Info().Msg("status channel disconnected")
		if !c.pause(ctx, c.cfg.RedialInterval) {
			return
		}
	}
}

// waitForToken polls for a token on a fixed tick, up to the configured
// bound. Past the bound it parks in StateGaveUp until an authentication
// change re-arms it. Returns false only on shutdown.
func (c *Channel) waitForToken(ctx context.Context, authCh <-chan core.AuthStatus) (string, bool) {
	c.setState(StateWaiting)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-ticker.C:
			if token, ok := c.tokens.Read(); ok {
				return token, true
			}
			attempts++
			if attempts < c.cfg.MaxPollAttempts {
				continue
			}
			c.log.Debug().Int("attempts", attempts).Msg("no token; parking until sign-in")
			c.setState(StateGaveUp)
			c.emit(Event{Type: EventGaveUp})
			if !c.awaitSignIn(ctx, authCh) {
				return "", false
			}
			attempts = 0
			c.setState(StateWaiting)
		}
	}
}

// awaitSignIn blocks until the session becomes authenticated. Returns false
// on shutdown.
func (c *Channel) awaitSignIn(ctx context.Context, authCh <-chan core.AuthStatus) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case st, ok := <-authCh:
			if !ok {
				return false
			}
			if st == core.StatusAuthenticated {
				return true
			}
		}
	}
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		if env.Type != "status" {
			continue
		}

		var status core.EngineStatus
		if err := json.Unmarshal(env.Payload, &status); err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed status payload")
			continue
		}

		// Replace the snapshot wholesale.
		c.mu.Lock()
		c.status = status
		c.mu.Unlock()
		c.emit(Event{Type: EventStatus, Status: status.Clone()})
	}
}

func (c *Channel) pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Channel) endpoint(token string) string {
	return c.cfg.URL + "?token=" + url.QueryEscape(token)
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Channel) setConn(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// register records a freshly dialed socket as the live connection. It
// refuses once teardown has begun; the caller must close the socket itself
// in that case. Sharing the lock with Close makes the two mutually
// exclusive.
func (c *Channel) register(conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return false
	}
	c.conn = conn
	c.state = StateConnected
	return true
}

func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn().Int("type", int(ev.Type)).Msg("event dropped; consumer is behind")
	}
}

func gorillaDial(ctx context.Context, endpoint string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}
