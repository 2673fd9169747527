// Package engines supervises the stub trading engines and publishes status
// snapshots whenever one starts or stops.
package engines

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arbdesk/arbdesk/core"
)

// StatusTopic carries wholesale EngineStatus snapshots.
const StatusTopic = "engines.status"

// ErrUnknownEngine is returned for a name the supervisor does not manage.
var ErrUnknownEngine = errors.New("unknown engine")

// DefaultEngines are the stub engines the reference backend runs.
var DefaultEngines = []string{"arb", "dca", "mm"}

type engineState struct {
	state     core.EngineState
	startedAt time.Time
	uptime    time.Duration
	realized  decimal.Decimal
}

// Supervisor owns the engine set. Every state change publishes the full
// snapshot; subscribers never have to merge deltas.
type Supervisor struct {
	pub message.Publisher
	log zerolog.Logger

	mu      sync.Mutex
	engines map[string]*engineState
}

// NewSupervisor creates a supervisor over the given engine names (the
// defaults when empty), all stopped.
func NewSupervisor(pub message.Publisher, log zerolog.Logger, names ...string) *Supervisor {
	if len(names) == 0 {
		names = DefaultEngines
	}
	s := &Supervisor{
		pub:     pub,
		log:     log.With().Str("component", "engines").Logger(),
		engines: make(map[string]*engineState, len(names)),
	}
	for _, name := range names {
		s.engines[name] = &engineState{state: core.EngineStopped, realized: decimal.Zero}
	}
	return s
}

// Start marks the named engine running and publishes the new snapshot.
func (s *Supervisor) Start(name string) error {
	s.mu.Lock()
	e, ok := s.engines[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	if e.state != core.EngineRunning {
		e.state = core.EngineRunning
		e.startedAt = time.Now()
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info().Str("engine", name).Msg("engine started")
	s.publish(snapshot)
	return nil
}

// Stop marks the named engine stopped and publishes the new snapshot.
func (s *Supervisor) Stop(name string) error {
	s.mu.Lock()
	e, ok := s.engines[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	if e.state == core.EngineRunning {
		e.uptime += time.Since(e.startedAt)
		e.state = core.EngineStopped
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info().Str("engine", name).Msg("engine stopped")
	s.publish(snapshot)
	return nil
}

// RecordFill credits realized PnL to an engine.
func (s *Supervisor) RecordFill(name string, pnl decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.engines[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	e.realized = e.realized.Add(pnl)
	return nil
}

// Snapshot returns the current wholesale status.
func (s *Supervisor) Snapshot() core.EngineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Supervisor) snapshotLocked() core.EngineStatus {
	out := make(core.EngineStatus, len(s.engines))
	for name, e := range s.engines {
		out[name] = e.state
	}
	return out
}

// Reports returns the per-engine request/response view, sorted by name.
func (s *Supervisor) Reports() []core.EngineReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make([]core.EngineReport, 0, len(s.engines))
	for name, e := range s.engines {
		uptime := e.uptime
		if e.state == core.EngineRunning {
			uptime += time.Since(e.startedAt)
		}
		reports = append(reports, core.EngineReport{
			Name:          name,
			State:         e.state,
			UptimeSeconds: int64(uptime.Seconds()),
			RealizedPnL:   e.realized,
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })
	return reports
}

func (s *Supervisor) publish(snapshot core.EngineStatus) {
	if s.pub == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode snapshot")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pub.Publish(StatusTopic, msg); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish snapshot")
	}
}
