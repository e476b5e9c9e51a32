package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rahulptl/synapse-sub001/internal/api"
	"github.com/rahulptl/synapse-sub001/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the delivery outbox",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending delivery tasks in attempt order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList()
				if err != nil {
					return err
				}
				if len(resp.Tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Outbox is empty")
					return nil
				}
				out := renderTable(
					[]string{"Task", "Type", "Item", "Attempts", "Next attempt", "Last error"},
					buildQueueRows(resp.Tasks),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func buildQueueRows(tasks []api.TaskView) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			task.TaskID,
			task.Type,
			task.ItemID,
			strconv.Itoa(task.Attempts),
			task.NextAttemptAt,
			task.LastError,
		})
	}
	return rows
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregate outbox health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueHealth()
				if err != nil {
					return err
				}
				printQueueHealth(cmd, *resp)
				return nil
			})
		},
	}
}

func printQueueHealth(cmd *cobra.Command, health api.QueueHealth) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Outbox", colorize) {
		fmt.Fprintln(stdout, line)
	}
	pendingKind := statusOK
	if health.Pending > 0 {
		pendingKind = statusInfo
	}
	fmt.Fprintln(stdout, renderStatusLine("Pending tasks", pendingKind, strconv.Itoa(health.Pending), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Eligible now", statusInfo, strconv.Itoa(health.EligibleNow), colorize))
	if health.NextAttemptAt != "" {
		fmt.Fprintln(stdout, renderStatusLine("Next attempt", statusInfo, health.NextAttemptAt, colorize))
	}

	for _, line := range renderSectionHeader("Items", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Pending", statusInfo, strconv.Itoa(health.ItemsPending), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Synced", statusOK, strconv.Itoa(health.ItemsSynced), colorize))
	erroredKind := statusOK
	if health.ItemsErrored > 0 {
		erroredKind = statusError
	}
	fmt.Fprintln(stdout, renderStatusLine("Errored", erroredKind, strconv.Itoa(health.ItemsErrored), colorize))
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Drain the outbox now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Drain(); err != nil {
					return err
				}
				resp, err := client.QueueHealth()
				if err != nil {
					return err
				}
				if resp.Pending == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Outbox drained")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Drain finished with %d tasks still pending\n", resp.Pending)
				return nil
			})
		},
	}
}
