package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arbdesk/arbdesk/auth"
	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/nav"
	"github.com/arbdesk/arbdesk/realtime"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live engine status until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDesk(false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			machine := nav.New(d.storage, d.sessions, d.log)
			defer machine.Close()
			machine.SetWalletConnected(true)
			fmt.Printf("screen: %s (tab %s)\n", machine.Screen(), machine.Tab())

			restorer := auth.NewRestorer(d.sessions, d.api, d.log)
			if restorer.Restore(ctx) != core.StatusAuthenticated {
				fmt.Printf("screen: %s\n", machine.Screen())
				return fmt.Errorf("not signed in; run `arbdesk login`")
			}
			if machine.Screen() == core.ScreenLanding {
				if err := machine.EnterDashboard(); err != nil {
					return err
				}
			}

			// The channel is started only after restoration resolved, so it
			// never dials on a token the backend was about to reject.
			channel := realtime.New(realtime.Config{URL: d.cfg.WSURL}, d.sessions, d.log)
			if err := channel.Start(); err != nil {
				return err
			}
			defer channel.Close()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case <-stop:
					return nil
				case ev, ok := <-channel.Events():
					if !ok {
						return nil
					}
					switch ev.Type {
					case realtime.EventConnected:
						fmt.Println("live")
					case realtime.EventDisconnected:
						fmt.Println("offline (showing last known status)")
					case realtime.EventStatus:
						printStatus(ev.Status)
					}
				}
			}
		},
	}
}

func printStatus(status core.EngineStatus) {
	for name, state := range status {
		fmt.Printf("  %-10s %s\n", name, state)
	}
}
