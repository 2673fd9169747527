// Package prefs holds the small user preference record consumed by
// peripheral dashboard panels.
package prefs

import (
	"encoding/json"
	"fmt"

	"github.com/arbdesk/arbdesk/ports"
)

// Prefs are per-profile display preferences. Losing them is cosmetic.
type Prefs struct {
	Theme             string `json:"theme"`
	Currency          string `json:"currency"`
	HideSmallBalances bool   `json:"hide_small_balances"`
}

// Defaults returns the out-of-the-box preferences.
func Defaults() Prefs {
	return Prefs{Theme: "dark", Currency: "USD"}
}

// Load reads preferences from storage, falling back to defaults on any
// missing or corrupt value.
func Load(storage ports.Storage) Prefs {
	raw, ok, err := storage.Get(ports.KeyPrefs)
	if err != nil || !ok {
		return Defaults()
	}
	p := Defaults()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Defaults()
	}
	return p
}

// Save persists preferences.
func Save(storage ports.Storage, p Prefs) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}
	if err := storage.Set(ports.KeyPrefs, string(raw)); err != nil {
		return fmt.Errorf("failed to persist prefs: %w", err)
	}
	return nil
}
