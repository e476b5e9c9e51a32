package api

import (
	"time"

	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/outbox"
	"github.com/rahulptl/synapse-sub001/internal/services/synapse"
)

// FromItem converts a captured item into its transport representation.
func FromItem(item *items.CapturedItem) ItemView {
	view := ItemView{
		ID:             item.ID,
		Kind:           string(item.Kind),
		Title:          item.Title,
		TextContent:    item.TextContent,
		SourceURL:      item.SourceURL,
		FolderID:       item.RemoteFolderID,
		CreatedAt:      formatTime(item.CreatedAt),
		SyncState:      string(items.SyncPending),
		Truncated:      item.Storage.TruncatedForStorage,
		ContentExpired: item.Storage.SessionContentExpired,
		QuotaFallback:  item.Storage.QuotaFallback,
		FileName:       item.Storage.FileName,
		FileSize:       item.Storage.FileSize,
	}
	if status := item.RemoteSync; status != nil {
		view.SyncState = string(status.State)
		view.RemoteContentID = status.RemoteContentID
		view.Attempts = status.Attempts
		view.ErrorCode = status.ErrorCode
		view.ErrorMessage = status.ErrorMessage
		if status.SyncedAt != nil {
			view.SyncedAt = formatTime(*status.SyncedAt)
		}
	}
	return view
}

// FromItems converts a slice of captured items.
func FromItems(list []items.CapturedItem) []ItemView {
	views := make([]ItemView, 0, len(list))
	for i := range list {
		views = append(views, FromItem(&list[i]))
	}
	return views
}

// FromTask converts an outbox task into its transport representation.
func FromTask(task *outbox.SyncTask) TaskView {
	return TaskView{
		TaskID:        task.TaskID,
		Type:          string(task.Type),
		ItemID:        task.LocalContentID,
		FolderID:      task.RemoteFolderID,
		Attempts:      task.Attempts,
		NextAttemptAt: formatTime(task.NextAttemptAt),
		LastError:     task.LastError,
		CreatedAt:     formatTime(task.CreatedAt),
	}
}

// FromTasks converts a slice of outbox tasks.
func FromTasks(tasks []outbox.SyncTask) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, FromTask(&tasks[i]))
	}
	return views
}

// FlattenFolders walks the remote folder hierarchy depth-first, tagging each
// node with its nesting depth.
func FlattenFolders(folders []synapse.Folder) []FolderView {
	var views []FolderView
	var walk func(nodes []synapse.Folder, depth int)
	walk = func(nodes []synapse.Folder, depth int) {
		for _, node := range nodes {
			views = append(views, FolderView{ID: node.ID, Name: node.Name, Depth: depth})
			walk(node.Children, depth+1)
		}
	}
	walk(folders, 0)
	return views
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
