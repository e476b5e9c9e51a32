package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CaptureRequest is one capture submitted for storage and delivery.
type CaptureRequest struct {
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceURL string `json:"sourceUrl,omitempty"`
	FolderID  string `json:"folderId"`
	RawHTML   []byte `json:"rawHtml,omitempty"`
	FileData  []byte `json:"fileData,omitempty"`
	FileName  string `json:"fileName,omitempty"`
}

// ItemView describes a captured item in a transport-friendly format.
type ItemView struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Title           string `json:"title"`
	TextContent     string `json:"textContent,omitempty"`
	SourceURL       string `json:"sourceUrl,omitempty"`
	FolderID        string `json:"folderId,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	SyncState       string `json:"syncState"`
	RemoteContentID string `json:"remoteContentId,omitempty"`
	Attempts        int    `json:"attempts,omitempty"`
	ErrorCode       string `json:"errorCode,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	SyncedAt        string `json:"syncedAt,omitempty"`
	Truncated       bool   `json:"truncated,omitempty"`
	ContentExpired  bool   `json:"contentExpired,omitempty"`
	QuotaFallback   bool   `json:"quotaFallback,omitempty"`
	FileName        string `json:"fileName,omitempty"`
	FileSize        int64  `json:"fileSize,omitempty"`
}

// TaskView describes one pending outbox task.
type TaskView struct {
	TaskID        string `json:"taskId"`
	Type          string `json:"taskType"`
	ItemID        string `json:"itemId"`
	FolderID      string `json:"folderId,omitempty"`
	Attempts      int    `json:"attempts"`
	NextAttemptAt string `json:"nextAttemptAt,omitempty"`
	LastError     string `json:"lastError,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// QueueHealth summarizes the outbox for status displays.
type QueueHealth struct {
	Pending       int    `json:"pending"`
	EligibleNow   int    `json:"eligibleNow"`
	NextAttemptAt string `json:"nextAttemptAt,omitempty"`
	ItemsPending  int    `json:"itemsPending"`
	ItemsSynced   int    `json:"itemsSynced"`
	ItemsErrored  int    `json:"itemsErrored"`
}

// FolderView is one node of the remote folder hierarchy, flattened with its
// nesting depth for display.
type FolderView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running          bool        `json:"running"`
	PID              int         `json:"pid"`
	DatabasePath     string      `json:"databasePath"`
	LockFilePath     string      `json:"lockFilePath"`
	Draining         bool        `json:"draining"`
	Queue            QueueHealth `json:"queue"`
	PendingWakeAt    string      `json:"pendingWakeAt,omitempty"`
	StorageUsedBytes int64       `json:"storageUsedBytes"`
	StorageQuota     int64       `json:"storageQuotaBytes"`
	OverflowEntries  int         `json:"overflowEntries"`
}

// ItemListResponse wraps a collection of items for API responses.
type ItemListResponse struct {
	Items []ItemView `json:"items"`
}

// TaskListResponse wraps the pending outbox tasks.
type TaskListResponse struct {
	Tasks []TaskView `json:"tasks"`
}
