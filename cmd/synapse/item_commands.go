package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahulptl/synapse-sub001/internal/api"
	"github.com/rahulptl/synapse-sub001/internal/ipc"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var stateFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ItemList()
				if err != nil {
					return err
				}
				views := resp.Items
				if filter := strings.TrimSpace(stateFilter); filter != "" {
					filtered := views[:0]
					for _, item := range views {
						if item.SyncState == filter {
							filtered = append(filtered, item)
						}
					}
					views = filtered
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No captured items")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, item := range views {
					rows = append(rows, []string{
						item.ID,
						item.Title,
						item.Kind,
						item.SyncState,
						item.CreatedAt,
					})
				}
				out := renderTable(
					[]string{"ID", "Title", "Kind", "State", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stateFilter, "state", "", "Only show items in this sync state (pending, synced, error)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one captured item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ItemShow(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				printItemDetail(cmd, resp.Item, full)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print the complete stored content")
	return cmd
}

func printItemDetail(cmd *cobra.Command, item api.ItemView, full bool) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Item "+item.ID, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Title", statusInfo, item.Title, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Kind", statusInfo, item.Kind, colorize))
	if item.SourceURL != "" {
		fmt.Fprintln(stdout, renderStatusLine("Source", statusInfo, item.SourceURL, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Folder", statusInfo, item.FolderID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Sync state", syncStateKind(item.SyncState), item.SyncState, colorize))
	if item.RemoteContentID != "" {
		fmt.Fprintln(stdout, renderStatusLine("Remote id", statusOK, item.RemoteContentID, colorize))
	}
	if item.ErrorCode != "" || item.ErrorMessage != "" {
		detail := strings.TrimSpace(item.ErrorCode + " " + item.ErrorMessage)
		fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, detail, colorize))
	}
	if item.Attempts > 0 {
		fmt.Fprintln(stdout, renderStatusLine("Attempts", statusInfo, fmt.Sprintf("%d", item.Attempts), colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Truncated", statusInfo, yesNo(item.Truncated), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Expired", statusInfo, yesNo(item.ContentExpired), colorize))
	if item.QuotaFallback {
		fmt.Fprintln(stdout, renderStatusLine("Quota fallback", statusWarn, "placeholder stored", colorize))
	}
	if item.FileName != "" {
		fmt.Fprintln(stdout, renderStatusLine("File", statusInfo, fmt.Sprintf("%s (%d bytes)", item.FileName, item.FileSize), colorize))
	}

	if item.TextContent == "" {
		return
	}
	fmt.Fprintln(stdout)
	content := item.TextContent
	if !full {
		content = excerpt(content, 400)
	}
	fmt.Fprintln(stdout, content)
}

func syncStateKind(state string) statusKind {
	switch state {
	case "synced":
		return statusOK
	case "error":
		return statusError
	default:
		return statusInfo
	}
}

func excerpt(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + " …"
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Delete a captured item and any pending delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				resp, err := client.ItemRemove(id)
				if err != nil {
					return err
				}
				if resp == nil || !resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %s\n", id)
				return nil
			})
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <item-id>",
		Short: "Re-queue delivery for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				resp, err := client.ItemRetry(id)
				if err != nil {
					return err
				}
				if resp == nil || !resp.Retried {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retry queued for item %s\n", id)
				return nil
			})
		},
	}
}
