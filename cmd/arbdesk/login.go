package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with the configured wallet key",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDesk(true)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			nonce, err := d.authn.RequestNonce(ctx)
			if err != nil {
				return err
			}

			msg, err := d.authn.BuildMessage(nonce, d.wallet.Address(), d.wallet.ChainID())
			if err != nil {
				return err
			}

			signature, err := d.wallet.SignMessage([]byte(msg.String()))
			if err != nil {
				return err
			}

			token, id, err := d.authn.Verify(ctx, msg.String(), signature)
			if err != nil {
				return err
			}

			// The token moves to the session store only after verify has
			// completed; it is never persisted speculatively.
			d.sessions.Persist(token, id)

			fmt.Printf("signed in as %s (%s)\n", id.Address, id.Role)
			return nil
		},
	}
}
