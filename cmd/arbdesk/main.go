// Command arbdesk is the trading desk client: it signs in with a local
// wallet key, keeps the session across runs, and follows live engine status.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arbdesk/arbdesk/adapters/storage"
	"github.com/arbdesk/arbdesk/adapters/wallet"
	"github.com/arbdesk/arbdesk/auth"
	"github.com/arbdesk/arbdesk/config"
)

// desk bundles everything a subcommand needs.
type desk struct {
	cfg      config.Client
	log      zerolog.Logger
	storage  *storage.FileStorage
	wallet   *wallet.KeyWallet
	sessions *auth.SessionStore
	api      *auth.Client
	authn    *auth.Authenticator
}

func newDesk(needWallet bool) (*desk, error) {
	v := config.NewViper()
	cfg := config.LoadClient(v)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	store, err := storage.NewFileStorage(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}

	d := &desk{
		cfg:     cfg,
		log:     log,
		storage: store,
	}

	if needWallet {
		if cfg.WalletKey == "" {
			return nil, fmt.Errorf("no wallet key configured; set ARBDESK_WALLET_KEY")
		}
		w, err := wallet.FromHex(cfg.WalletKey, cfg.ChainID)
		if err != nil {
			return nil, err
		}
		d.wallet = w
	}

	d.sessions = auth.NewSessionStore(store, log)
	d.api = auth.NewClient(cfg.BackendURL, d.sessions, log)
	d.authn, err = auth.NewAuthenticator(cfg.BackendURL, log)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func main() {
	root := &cobra.Command{
		Use:           "arbdesk",
		Short:         "Wallet-authenticated client for the arbdesk trading backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(loginCmd(), statusCmd(), watchCmd(), logoutCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
