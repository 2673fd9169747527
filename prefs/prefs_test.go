package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbdesk/arbdesk/adapters/storage"
	"github.com/arbdesk/arbdesk/ports"
)

func TestLoadDefaultsWhenUnset(t *testing.T) {
	p := Load(storage.NewMemoryStorage())
	assert.Equal(t, "dark", p.Theme)
	assert.Equal(t, "USD", p.Currency)
	assert.False(t, p.HideSmallBalances)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, Save(st, Prefs{Theme: "light", Currency: "EUR", HideSmallBalances: true}))

	p := Load(st)
	assert.Equal(t, "light", p.Theme)
	assert.Equal(t, "EUR", p.Currency)
	assert.True(t, p.HideSmallBalances)
}

func TestLoadCorruptValueFallsBack(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeyPrefs, "{broken"))

	assert.Equal(t, Defaults(), Load(st))
}

func TestLoadPartialValueKeepsDefaults(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ports.KeyPrefs, `{"currency":"GBP"}`))

	p := Load(st)
	assert.Equal(t, "GBP", p.Currency)
	assert.Equal(t, "dark", p.Theme)
}

func TestLoadDisabledStorageFallsBack(t *testing.T) {
	st := storage.NewMemoryStorage()
	st.Fail = true
	assert.Equal(t, Defaults(), Load(st))
}
