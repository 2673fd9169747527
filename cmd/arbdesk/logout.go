package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDesk(false)
			if err != nil {
				return err
			}

			if _, ok := d.sessions.Read(); !ok {
				fmt.Println("not signed in")
				return nil
			}
			if err := d.api.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("signed out")
			return nil
		},
	}
}
