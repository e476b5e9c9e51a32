package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/logging"
	"github.com/rahulptl/synapse-sub001/internal/notifications"
	"github.com/rahulptl/synapse-sub001/internal/outbox"
	"github.com/rahulptl/synapse-sub001/internal/services/synapse"
	"github.com/rahulptl/synapse-sub001/internal/storage"
	"github.com/rahulptl/synapse-sub001/internal/syncer"
	"github.com/rahulptl/synapse-sub001/internal/tier"
	"github.com/rahulptl/synapse-sub001/internal/wake"
)

// FolderLister is the remote folder surface the service exposes to clients.
type FolderLister interface {
	ListFolders(ctx context.Context) ([]synapse.Folder, error)
}

// Deps collects the collaborators a QueueService is built from.
type Deps struct {
	Config   *config.Config
	Store    *storage.Store
	Catalog  *items.Catalog
	Tiers    *tier.Manager
	Overflow *storage.Overflow
	Queue    *outbox.Queue
	Worker   *syncer.Worker
	Wake     *wake.Scheduler
	Remote   FolderLister
	Notifier notifications.Service
	Logger   *slog.Logger
}

// QueueService is the single entry point for capture, queue, and status
// operations. Mutations funnel through it so the IPC server and CLI share one
// code path.
type QueueService struct {
	cfg      *config.Config
	store    *storage.Store
	catalog  *items.Catalog
	tiers    *tier.Manager
	overflow *storage.Overflow
	queue    *outbox.Queue
	worker   *syncer.Worker
	wake     *wake.Scheduler
	remote   FolderLister
	notifier notifications.Service
	logger   *slog.Logger

	// kick triggers an asynchronous drain after a mutation; overridable in
	// tests for determinism.
	kick func()
}

// NewQueueService wires the service. A freshly enqueued or retried task kicks
// off a background drain.
func NewQueueService(deps Deps) *QueueService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &QueueService{
		cfg:      deps.Config,
		store:    deps.Store,
		catalog:  deps.Catalog,
		tiers:    deps.Tiers,
		overflow: deps.Overflow,
		queue:    deps.Queue,
		worker:   deps.Worker,
		wake:     deps.Wake,
		remote:   deps.Remote,
		notifier: deps.Notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "api")),
	}
	s.kick = func() {
		go func() {
			if err := s.worker.Drain(context.Background()); err != nil {
				s.logger.Warn("background drain", logging.Error(err))
			}
		}()
	}
	return s
}

// EnqueueCapture places a capture across the storage tiers and queues its
// delivery. The returned view reflects what was actually stored, which may be
// a quota placeholder.
func (s *QueueService) EnqueueCapture(ctx context.Context, req CaptureRequest) (*ItemView, error) {
	kind, ok := items.ParseKind(req.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown capture kind %q", req.Kind)
	}
	folderID := strings.TrimSpace(req.FolderID)
	if folderID == "" {
		return nil, fmt.Errorf("folder id is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled capture"
	}

	now := time.Now().UTC()
	item := items.CapturedItem{
		ID:             uuid.NewString(),
		Kind:           kind,
		Title:          title,
		TextContent:    req.Content,
		SourceURL:      strings.TrimSpace(req.SourceURL),
		RemoteFolderID: folderID,
		CreatedAt:      now,
		RemoteSync:     &items.RemoteSyncStatus{State: items.SyncPending},
	}

	placed, err := s.tiers.Place(ctx, item, tier.AuxPayloads{
		RawHTML:  req.RawHTML,
		FileData: req.FileData,
		FileName: req.FileName,
	})
	if err != nil {
		return nil, err
	}
	if placed.Storage.QuotaFallback && s.notifier != nil {
		if err := s.notifier.NotifyQuotaFallback(ctx, placed.Title); err != nil {
			s.logger.Warn("quota notification", logging.Error(err))
		}
	}

	task := s.buildTask(&placed, req.Content)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("capture queued",
		logging.String(logging.FieldItemID, placed.ID),
		logging.String("task_type", string(task.Type)))
	s.kick()

	view := FromItem(&placed)
	return &view, nil
}

// Drain runs the sync worker synchronously.
func (s *QueueService) Drain(ctx context.Context) error {
	return s.worker.Drain(ctx)
}

// Items lists every captured item with full content hydrated from the
// overflow tier.
func (s *QueueService) Items(ctx context.Context) ([]ItemView, error) {
	list, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	hydrated, err := s.tiers.Hydrate(ctx, list)
	if err != nil {
		return nil, err
	}
	return FromItems(hydrated), nil
}

// Item fetches a single item, hydrated. Returns nil when the id is unknown.
func (s *QueueService) Item(ctx context.Context, id string) (*ItemView, error) {
	item, err := s.catalog.Get(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	hydrated, err := s.tiers.Hydrate(ctx, []items.CapturedItem{*item})
	if err != nil {
		return nil, err
	}
	view := FromItem(&hydrated[0])
	return &view, nil
}

// RemoveItem deletes an item, its pending delivery, and its overflow
// payloads. Reports whether anything was removed.
func (s *QueueService) RemoveItem(ctx context.Context, id string) (bool, error) {
	if _, err := s.queue.RemoveForItem(ctx, id); err != nil {
		return false, err
	}
	removed, err := s.catalog.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if removed == nil {
		return false, nil
	}
	s.tiers.Release(removed)
	s.logger.Info("item removed", logging.String(logging.FieldItemID, id))
	return true, nil
}

// RetryItem re-queues delivery for an item, typically one stuck in the error
// state. The rebuilt task starts with a clean attempt counter.
func (s *QueueService) RetryItem(ctx context.Context, id string) (bool, error) {
	item, err := s.catalog.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	hydrated, err := s.tiers.Hydrate(ctx, []items.CapturedItem{*item})
	if err != nil {
		return false, err
	}
	refreshed := hydrated[0]

	task := s.buildTask(&refreshed, refreshed.TextContent)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if _, err := s.catalog.Update(ctx, id, func(stored *items.CapturedItem) {
		stored.MarkPending(0, now)
	}); err != nil {
		return false, err
	}
	s.logger.Info("item retry queued", logging.String(logging.FieldItemID, id))
	s.kick()
	return true, nil
}

// Queue lists the pending outbox tasks in attempt order.
func (s *QueueService) Queue(ctx context.Context) ([]TaskView, error) {
	tasks, err := s.queue.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return FromTasks(tasks), nil
}

// Health summarizes the outbox and per-state item counts.
func (s *QueueService) Health(ctx context.Context) (QueueHealth, error) {
	tasks, err := s.queue.LoadAll(ctx)
	if err != nil {
		return QueueHealth{}, err
	}
	health := QueueHealth{Pending: len(tasks)}
	now := time.Now().UTC()
	for i := range tasks {
		if tasks[i].Eligible(now) {
			health.EligibleNow++
		}
	}
	if len(tasks) > 0 {
		health.NextAttemptAt = formatTime(tasks[0].NextAttemptAt)
	}

	list, err := s.catalog.List(ctx)
	if err != nil {
		return QueueHealth{}, err
	}
	for i := range list {
		state := items.SyncPending
		if list[i].RemoteSync != nil {
			state = list[i].RemoteSync.State
		}
		switch state {
		case items.SyncSynced:
			health.ItemsSynced++
		case items.SyncError:
			health.ItemsErrored++
		default:
			health.ItemsPending++
		}
	}
	return health, nil
}

// Folders lists the remote folder hierarchy, flattened for display.
func (s *QueueService) Folders(ctx context.Context) ([]FolderView, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("remote client not configured")
	}
	folders, err := s.remote.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	return FlattenFolders(folders), nil
}

// Status reports daemon runtime state.
func (s *QueueService) Status(ctx context.Context) (DaemonStatus, error) {
	health, err := s.Health(ctx)
	if err != nil {
		return DaemonStatus{}, err
	}
	used, err := s.store.UsedBytes(ctx)
	if err != nil {
		return DaemonStatus{}, err
	}

	status := DaemonStatus{
		Running:          true,
		PID:              os.Getpid(),
		DatabasePath:     s.cfg.DatabasePath(),
		LockFilePath:     s.cfg.LockPath(),
		Draining:         s.worker.Draining(),
		Queue:            health,
		StorageUsedBytes: used,
		StorageQuota:     s.cfg.Storage.QuotaBytes,
	}
	if s.overflow != nil {
		status.OverflowEntries = s.overflow.Len()
	}
	if s.wake != nil {
		if at, ok, err := s.wake.PendingWake(ctx); err == nil && ok {
			status.PendingWakeAt = formatTime(at)
		}
	}
	return status, nil
}

// TestNotification exercises the configured notifier.
func (s *QueueService) TestNotification(ctx context.Context) error {
	if s.notifier == nil {
		return fmt.Errorf("notifications not configured")
	}
	return s.notifier.TestNotification(ctx)
}

// buildTask derives the delivery task for a placed item. Items with a staged
// file payload upload it; everything else ingests text content. The payload
// carries the full original content when it is still available.
func (s *QueueService) buildTask(item *items.CapturedItem, fullContent string) outbox.SyncTask {
	if item.Storage.FileStored && item.Storage.FileKey != "" {
		return outbox.SyncTask{
			Type:           outbox.TaskFileUpload,
			LocalContentID: item.ID,
			RemoteFolderID: item.RemoteFolderID,
			FileSessionKey: item.Storage.FileKey,
			FileName:       item.Storage.FileName,
			Title:          item.Title,
		}
	}
	content := fullContent
	if item.Storage.QuotaFallback || content == "" {
		content = item.TextContent
	}
	return outbox.SyncTask{
		Type:           outbox.TaskIngest,
		LocalContentID: item.ID,
		RemoteFolderID: item.RemoteFolderID,
		Payload: &synapse.ContentRequest{
			FolderID:    item.RemoteFolderID,
			Title:       item.Title,
			Content:     content,
			ContentType: "text",
			SourceURL:   item.SourceURL,
			Metadata: map[string]string{
				"kind":        string(item.Kind),
				"captured_at": item.CreatedAt.UTC().Format(dateTimeFormat),
			},
		},
	}
}
