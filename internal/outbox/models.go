package outbox

import (
	"time"

	"github.com/rahulptl/synapse-sub001/internal/services/synapse"
)

// TaskType selects the delivery operation performed at send time.
type TaskType string

const (
	// TaskIngest delivers prebuilt text content.
	TaskIngest TaskType = "ingest"
	// TaskFileUpload resolves a staged file payload and uploads it.
	TaskFileUpload TaskType = "file-upload"
)

// SyncTask is one pending delivery job. It lives until terminal success or a
// non-retryable failure; retryable failures persist it with an updated
// NextAttemptAt.
type SyncTask struct {
	TaskID         string                  `json:"taskId"`
	Type           TaskType                `json:"taskType"`
	LocalContentID string                  `json:"localContentId"`
	RemoteFolderID string                  `json:"remoteFolderId"`
	Payload        *synapse.ContentRequest `json:"payload,omitempty"`
	FileSessionKey string                  `json:"fileSessionKey,omitempty"`
	FileName       string                  `json:"fileName,omitempty"`
	Title          string                  `json:"title,omitempty"`
	Description    string                  `json:"description,omitempty"`
	Attempts       int                     `json:"attempts"`
	NextAttemptAt  time.Time               `json:"nextAttemptAt"`
	LastError      string                  `json:"lastError,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// Eligible reports whether the task may be attempted at the given time.
func (t *SyncTask) Eligible(now time.Time) bool {
	return !t.NextAttemptAt.After(now)
}
