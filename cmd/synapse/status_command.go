package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rahulptl/synapse-sub001/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and storage status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			err := ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", statusOK, fmt.Sprintf("pid %d", status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
				if status.Draining {
					fmt.Fprintln(stdout, renderStatusLine("Sync worker", statusInfo, "draining", colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Sync worker", statusOK, "idle", colorize))
				}
				if status.PendingWakeAt != "" {
					fmt.Fprintln(stdout, renderStatusLine("Next wake", statusInfo, status.PendingWakeAt, colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Storage", colorize) {
					fmt.Fprintln(stdout, line)
				}
				usage := fmt.Sprintf("%d / %d bytes", status.StorageUsedBytes, status.StorageQuota)
				usageKind := statusOK
				if status.StorageQuota > 0 && status.StorageUsedBytes*10 >= status.StorageQuota*9 {
					usageKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Primary store", usageKind, usage, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Overflow entries", statusInfo, strconv.Itoa(status.OverflowEntries), colorize))
				fmt.Fprintln(stdout)

				printQueueHealth(cmd, status.Queue)
				return nil
			})
			if err != nil {
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", statusError, "daemon not reachable", colorize))
				return err
			}
			return nil
		},
	}
}
