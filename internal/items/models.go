package items

import (
	"strings"
	"time"
)

// Kind identifies how a capture was produced.
type Kind string

const (
	KindPage        Kind = "page"
	KindSelection   Kind = "selection"
	KindDroppedFile Kind = "dropped-file"
	KindDroppedURL  Kind = "dropped-url"
	KindDroppedText Kind = "dropped-text"
)

var allKinds = []Kind{KindPage, KindSelection, KindDroppedFile, KindDroppedURL, KindDroppedText}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// SyncState is the remote delivery state of a captured item.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncError   SyncState = "error"
)

// StorageTierInfo records where an item's payloads landed across the two
// storage tiers.
type StorageTierInfo struct {
	SessionContentStored  bool   `json:"sessionContentStored,omitempty"`
	SessionContentKey     string `json:"sessionContentKey,omitempty"`
	SessionContentExpired bool   `json:"sessionContentExpired,omitempty"`
	TruncatedForStorage   bool   `json:"truncatedForStorage,omitempty"`
	OriginalContentBytes  int64  `json:"originalContentBytes,omitempty"`

	RawHTMLStored bool   `json:"rawHtmlStored,omitempty"`
	RawHTMLKey    string `json:"rawHtmlKey,omitempty"`

	FileStored bool   `json:"fileStored,omitempty"`
	FileKey    string `json:"fileKey,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	FileSize   int64  `json:"fileSize,omitempty"`

	QuotaFallback     bool  `json:"quotaFallback,omitempty"`
	QuotaOriginalSize int64 `json:"quotaOriginalSize,omitempty"`
}

// RemoteSyncStatus tracks delivery of an item to the knowledge store.
// Invariant: State == SyncSynced implies RemoteContentID is set.
type RemoteSyncStatus struct {
	State           SyncState  `json:"state"`
	RemoteContentID string     `json:"remoteContentId,omitempty"`
	Attempts        int        `json:"attempts,omitempty"`
	LastAttemptAt   *time.Time `json:"lastAttemptAt,omitempty"`
	ErrorCode       string     `json:"errorCode,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	SyncedAt        *time.Time `json:"syncedAt,omitempty"`
}

// CapturedItem is one user capture. It is owned by the tier manager; sync
// status is mutated only by the sync worker through the catalog.
type CapturedItem struct {
	ID             string            `json:"id"`
	Kind           Kind              `json:"kind"`
	Title          string            `json:"title"`
	TextContent    string            `json:"textContent"`
	SourceURL      string            `json:"sourceUrl,omitempty"`
	RemoteFolderID string            `json:"remoteFolderId,omitempty"`
	CreatedAt      time.Time         `json:"timestampCreated"`
	Storage        StorageTierInfo   `json:"storage"`
	RemoteSync     *RemoteSyncStatus `json:"remoteSync,omitempty"`
}

// OverflowKeys lists every overflow-tier key the item references.
func (i *CapturedItem) OverflowKeys() []string {
	var keys []string
	for _, key := range []string{i.Storage.SessionContentKey, i.Storage.RawHTMLKey, i.Storage.FileKey} {
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// MarkPending records a (re)queued delivery attempt count.
func (i *CapturedItem) MarkPending(attempts int, at time.Time) {
	status := i.ensureRemoteSync()
	status.State = SyncPending
	status.Attempts = attempts
	status.LastAttemptAt = &at
	status.ErrorCode = ""
	status.ErrorMessage = ""
}

// MarkSynced records successful delivery.
func (i *CapturedItem) MarkSynced(remoteID string, at time.Time) {
	status := i.ensureRemoteSync()
	status.State = SyncSynced
	status.RemoteContentID = remoteID
	status.SyncedAt = &at
	status.LastAttemptAt = &at
	status.ErrorCode = ""
	status.ErrorMessage = ""
}

// MarkError records a terminal delivery failure.
func (i *CapturedItem) MarkError(code, message string, at time.Time) {
	status := i.ensureRemoteSync()
	status.State = SyncError
	status.ErrorCode = code
	status.ErrorMessage = message
	status.LastAttemptAt = &at
}

func (i *CapturedItem) ensureRemoteSync() *RemoteSyncStatus {
	if i.RemoteSync == nil {
		i.RemoteSync = &RemoteSyncStatus{State: SyncPending}
	}
	return i.RemoteSync
}
