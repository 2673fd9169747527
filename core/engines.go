package core

import "github.com/shopspring/decimal"

// EngineState is the running/stopped state of a single backend engine.
type EngineState string

const (
	EngineRunning EngineState = "running"
	EngineStopped EngineState = "stopped"
)

// EngineStatus is the wholesale snapshot pushed by the backend over the
// realtime channel. An engine missing from the map is treated as stopped,
// which makes the zero value the safe "all stopped" default.
type EngineStatus map[string]EngineState

// Running reports whether the named engine is running in this snapshot.
func (s EngineStatus) Running(name string) bool {
	return s[name] == EngineRunning
}

// Clone returns an independent copy of the snapshot.
func (s EngineStatus) Clone() EngineStatus {
	out := make(EngineStatus, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EngineReport is the request/response view of a single engine, richer than
// the realtime snapshot.
type EngineReport struct {
	Name          string          `json:"name"`
	State         EngineState     `json:"state"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
}
