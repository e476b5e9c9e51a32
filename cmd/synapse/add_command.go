package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahulptl/synapse-sub001/internal/ipc"
	"github.com/rahulptl/synapse-sub001/internal/items"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var title string
	var folderID string
	var sourceURL string
	var content string
	var contentFile string
	var attachPath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Capture content and queue it for delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.CaptureRequest{
				Kind:      strings.TrimSpace(kind),
				Title:     strings.TrimSpace(title),
				FolderID:  strings.TrimSpace(folderID),
				SourceURL: strings.TrimSpace(sourceURL),
			}
			if req.FolderID == "" {
				return errors.New("--folder is required")
			}

			text, err := resolveContent(cmd.InOrStdin(), content, contentFile)
			if err != nil {
				return err
			}
			req.Content = text

			if attachPath != "" {
				data, name, err := readAttachment(attachPath)
				if err != nil {
					return err
				}
				req.FileData = data
				req.FileName = name
				if !cmd.Flags().Changed("kind") {
					req.Kind = string(items.KindDroppedFile)
				}
			}

			if _, ok := items.ParseKind(req.Kind); !ok {
				return fmt.Errorf("unknown capture kind %q", req.Kind)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Capture(req)
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				item := resp.Item
				fmt.Fprintf(cmd.OutOrStdout(), "Captured %q as item %s (%s)\n", item.Title, item.ID, item.SyncState)
				if item.Truncated {
					fmt.Fprintln(cmd.OutOrStdout(), "Content exceeded the local cap and was truncated for storage")
				}
				if item.QuotaFallback {
					fmt.Fprintln(cmd.OutOrStdout(), "Local storage is full; a placeholder was stored instead of the full content")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(items.KindPage), "Capture kind (page, selection, dropped-file, dropped-url, dropped-text)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Item title")
	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Remote folder id the item is delivered to")
	cmd.Flags().StringVarP(&sourceURL, "url", "u", "", "Source URL of the capture")
	cmd.Flags().StringVar(&content, "content", "", "Captured text content (use - to read stdin)")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read captured text content from a file")
	cmd.Flags().StringVar(&attachPath, "file", "", "Attach a local file as a dropped-file capture")

	return cmd
}

func resolveContent(stdin io.Reader, content, contentFile string) (string, error) {
	switch {
	case content == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case contentFile != "":
		expanded, err := filepath.Abs(contentFile)
		if err != nil {
			return "", fmt.Errorf("resolve content file: %w", err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	default:
		return content, nil
	}
}

func readAttachment(path string) ([]byte, string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("file does not exist: %s", absPath)
		}
		return nil, "", fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", absPath)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, filepath.Base(absPath), nil
}
