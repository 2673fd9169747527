package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbdesk/arbdesk/auth"
	"github.com/arbdesk/arbdesk/core"
	"github.com/arbdesk/arbdesk/prefs"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Restore the session and print engine reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDesk(false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			restorer := auth.NewRestorer(d.sessions, d.api, d.log)
			if restorer.Restore(ctx) != core.StatusAuthenticated {
				return fmt.Errorf("not signed in; run `arbdesk login`")
			}

			id := d.sessions.Identity()
			p := prefs.Load(d.storage)
			fmt.Printf("session: %s (%s)\n", id.Address, id.Role)

			reports, err := d.api.Engines(ctx)
			if err != nil {
				return err
			}
			for _, r := range reports {
				fmt.Printf("%-10s %-8s uptime %6ds  pnl %s %s\n",
					r.Name, r.State, r.UptimeSeconds, r.RealizedPnL.StringFixed(2), p.Currency)
			}
			return nil
		},
	}
}
