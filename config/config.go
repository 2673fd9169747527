// Package config loads settings for the desk client and the reference
// backend from flags, environment and an optional config file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/arbdesk/arbdesk/siwe"
)

// Client configures the desk client.
type Client struct {
	BackendURL string
	WSURL      string
	StateFile  string
	WalletKey  string
	ChainID    int64
	LogLevel   string
}

// Backend configures the reference backend.
type Backend struct {
	Listen     string
	Domain     string
	RedisURL   string
	SessionTTL time.Duration
	LogLevel   string
}

// NewViper returns a viper instance wired for ARBDESK_* environment
// variables and an optional yaml file next to the state directory.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ARBDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("arbdesk")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultStateDir())
	v.AddConfigPath(".")
	return v
}

// LoadClient reads the client configuration. Missing config file is fine;
// defaults and environment cover everything.
func LoadClient(v *viper.Viper) Client {
	v.SetDefault("backend-url", "http://localhost:9000")
	v.SetDefault("ws-url", "ws://localhost:9000/ws")
	v.SetDefault("state-file", filepath.Join(defaultStateDir(), "profile.json"))
	v.SetDefault("chain-id", siwe.SupportedChainID)
	v.SetDefault("log-level", "info")
	_ = v.ReadInConfig()

	return Client{
		BackendURL: v.GetString("backend-url"),
		WSURL:      v.GetString("ws-url"),
		StateFile:  v.GetString("state-file"),
		WalletKey:  v.GetString("wallet-key"),
		ChainID:    v.GetInt64("chain-id"),
		LogLevel:   v.GetString("log-level"),
	}
}

// LoadBackend reads the backend configuration.
func LoadBackend(v *viper.Viper) Backend {
	v.SetDefault("listen", ":9000")
	v.SetDefault("domain", "localhost:9000")
	v.SetDefault("session-ttl", 24*time.Hour)
	v.SetDefault("log-level", "info")
	_ = v.ReadInConfig()

	return Backend{
		Listen:     v.GetString("listen"),
		Domain:     v.GetString("domain"),
		RedisURL:   v.GetString("redis-url"),
		SessionTTL: v.GetDuration("session-ttl"),
		LogLevel:   v.GetString("log-level"),
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".arbdesk")
}
