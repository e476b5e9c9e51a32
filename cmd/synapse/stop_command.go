package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahulptl/synapse-sub001/internal/ipc"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the daemon to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Shutdown()
				if err != nil {
					return err
				}
				if resp != nil && resp.Stopping {
					fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon did not acknowledge the shutdown request")
				return nil
			})
		},
	}
}
