package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahulptl/synapse-sub001/internal/ipc"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List the remote folder hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Folders()
				if err != nil {
					return err
				}
				if len(resp.Folders) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No remote folders")
					return nil
				}
				rows := make([][]string, 0, len(resp.Folders))
				for _, folder := range resp.Folders {
					rows = append(rows, []string{
						folder.ID,
						strings.Repeat("  ", folder.Depth) + folder.Name,
					})
				}
				out := renderTable(
					[]string{"ID", "Name"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}
