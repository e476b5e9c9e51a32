package ipc

import "github.com/rahulptl/synapse-sub001/internal/api"

// CaptureRequest submits one capture for storage and delivery.
type CaptureRequest = api.CaptureRequest

// ItemView mirrors the API item DTO for IPC callers.
type ItemView = api.ItemView

// TaskView mirrors the API task DTO for IPC callers.
type TaskView = api.TaskView

// CaptureResponse returns the stored item.
type CaptureResponse struct {
	Item ItemView `json:"item"`
}

// DrainRequest forces a queue drain.
type DrainRequest struct{}

// DrainResponse reports drain completion.
type DrainResponse struct {
	Drained bool `json:"drained"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries combined daemon status information.
type StatusResponse = api.DaemonStatus

// ItemListRequest lists captured items.
type ItemListRequest struct{}

// ItemListResponse contains captured items.
type ItemListResponse struct {
	Items []ItemView `json:"items"`
}

// ItemShowRequest fetches a single item by id.
type ItemShowRequest struct {
	ID string `json:"id"`
}

// ItemShowResponse contains a single item.
type ItemShowResponse struct {
	Item ItemView `json:"item"`
}

// ItemRemoveRequest deletes an item and its pending delivery.
type ItemRemoveRequest struct {
	ID string `json:"id"`
}

// ItemRemoveResponse reports whether the item existed.
type ItemRemoveResponse struct {
	Removed bool `json:"removed"`
}

// ItemRetryRequest re-queues delivery for an item.
type ItemRetryRequest struct {
	ID string `json:"id"`
}

// ItemRetryResponse reports whether a retry was queued.
type ItemRetryResponse struct {
	Retried bool `json:"retried"`
}

// QueueListRequest lists pending outbox tasks.
type QueueListRequest struct{}

// QueueListResponse contains pending tasks in attempt order.
type QueueListResponse struct {
	Tasks []TaskView `json:"tasks"`
}

// QueueHealthRequest fetches aggregate queue diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse = api.QueueHealth

// FoldersRequest lists remote folders.
type FoldersRequest struct{}

// FoldersResponse contains the flattened folder hierarchy.
type FoldersResponse struct {
	Folders []api.FolderView `json:"folders"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ShutdownRequest asks the daemon to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}
