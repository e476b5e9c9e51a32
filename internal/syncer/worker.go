package syncer

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/logging"
	"github.com/rahulptl/synapse-sub001/internal/notifications"
	"github.com/rahulptl/synapse-sub001/internal/outbox"
	"github.com/rahulptl/synapse-sub001/internal/services"
	"github.com/rahulptl/synapse-sub001/internal/services/synapse"
	"github.com/rahulptl/synapse-sub001/internal/tier"
)

// DeliveryClient is the remote surface the worker drives. Satisfied by
// *synapse.Client.
type DeliveryClient interface {
	IngestContent(ctx context.Context, payload synapse.ContentRequest) (synapse.IngestResult, error)
	UploadFile(ctx context.Context, payload synapse.UploadRequest) (synapse.UploadResult, error)
}

// Worker drains the outbox queue against the remote knowledge store. Drains
// are single-flight: overlapping triggers (wake alarm, fresh enqueue, manual
// command) collapse into the one already running.
type Worker struct {
	queue    *outbox.Queue
	catalog  *items.Catalog
	overflow tier.OverflowStore
	client   DeliveryClient
	notifier notifications.Service
	logger   *slog.Logger

	maxBackoff time.Duration
	draining   atomic.Bool
	nowFn      func() time.Time
	jitterFn   func() time.Duration
}

// NewWorker wires the sync worker over its collaborators.
func NewWorker(
	cfg *config.Config,
	queue *outbox.Queue,
	catalog *items.Catalog,
	overflow tier.OverflowStore,
	client DeliveryClient,
	notifier notifications.Service,
	logger *slog.Logger,
) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxBackoff := time.Duration(cfg.Sync.MaxBackoffSeconds) * time.Second
	if maxBackoff <= 0 {
		maxBackoff = time.Minute
	}
	return &Worker{
		queue:      queue,
		catalog:    catalog,
		overflow:   overflow,
		client:     client,
		notifier:   notifier,
		logger:     logger.With(logging.String(logging.FieldComponent, "syncer")),
		maxBackoff: maxBackoff,
		nowFn:      time.Now,
		jitterFn:   defaultJitter,
	}
}

// Drain works through every eligible task in queue order. Success removes the
// task and continues greedily; a non-retryable failure drops the task and
// continues; a retryable failure re-arms the head with backoff and stops so a
// stuck head is never skipped. A second Drain while one is in flight returns
// immediately.
func (w *Worker) Drain(ctx context.Context) error {
	if !w.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer w.draining.Store(false)

	start := w.nowFn()
	delivered, failed := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tasks, err := w.queue.LoadAll(ctx)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			break
		}
		head := tasks[0]
		if !head.Eligible(w.nowFn().UTC()) {
			// Nothing eligible yet; the wake alarm re-invokes us.
			break
		}

		remoteID, deliverErr := w.deliver(ctx, &head)
		switch {
		case deliverErr == nil:
			if err := w.completeHead(ctx, &head, remoteID); err != nil {
				return err
			}
			delivered++
		case services.Retryable(deliverErr):
			if err := w.rearmHead(ctx, tasks, deliverErr); err != nil {
				return err
			}
			w.notifyDrained(ctx, delivered, failed, start)
			return nil
		default:
			if err := w.dropHead(ctx, &head, deliverErr); err != nil {
				return err
			}
			failed++
		}
	}

	w.notifyDrained(ctx, delivered, failed, start)
	return nil
}

// Draining reports whether a drain is currently in flight.
func (w *Worker) Draining() bool {
	return w.draining.Load()
}

func (w *Worker) deliver(ctx context.Context, task *outbox.SyncTask) (string, error) {
	switch task.Type {
	case outbox.TaskIngest:
		if task.Payload == nil {
			return "", services.Wrap(services.ErrBadPayload, "syncer", "ingest", "task has no payload", nil)
		}
		result, err := w.client.IngestContent(ctx, *task.Payload)
		if err != nil {
			return "", err
		}
		return result.ID, nil
	case outbox.TaskFileUpload:
		payloads := w.overflow.Get(task.FileSessionKey)
		data, ok := payloads[task.FileSessionKey]
		if !ok {
			return "", services.Wrap(services.ErrMissingFileData, "syncer", "upload",
				"file payload expired from session storage", nil)
		}
		result, err := w.client.UploadFile(ctx, synapse.UploadRequest{
			Data:        data,
			FileName:    task.FileName,
			FolderID:    task.RemoteFolderID,
			Title:       task.Title,
			Description: task.Description,
		})
		if err != nil {
			return "", err
		}
		return result.ID, nil
	default:
		return "", services.Wrap(services.ErrBadPayload, "syncer", "deliver",
			"unknown task type "+string(task.Type), nil)
	}
}

func (w *Worker) completeHead(ctx context.Context, task *outbox.SyncTask, remoteID string) error {
	if _, err := w.queue.RemoveHead(ctx); err != nil {
		return err
	}
	w.releaseConsumed(task)

	now := w.nowFn().UTC()
	updated, err := w.catalog.Update(ctx, task.LocalContentID, func(item *items.CapturedItem) {
		item.MarkSynced(remoteID, now)
		if task.Type == outbox.TaskFileUpload {
			item.Storage.FileStored = false
			item.Storage.FileKey = ""
		}
	})
	if err != nil {
		return err
	}

	w.logger.Info("task delivered",
		logging.String(logging.FieldTaskID, task.TaskID),
		logging.String(logging.FieldItemID, task.LocalContentID),
		logging.String("remote_id", remoteID))
	if w.notifier != nil && updated != nil {
		if err := w.notifier.NotifyContentSynced(ctx, updated.Title, remoteID); err != nil {
			w.logger.Warn("synced notification", logging.Error(err))
		}
	}
	return nil
}

// dropHead removes a terminally failed task and marks its item errored. The
// file payload stays in the overflow tier so a manual retry can still deliver
// it.
func (w *Worker) dropHead(ctx context.Context, task *outbox.SyncTask, deliverErr error) error {
	if _, err := w.queue.RemoveHead(ctx); err != nil {
		return err
	}

	code := services.CodeOf(deliverErr)
	now := w.nowFn().UTC()
	updated, err := w.catalog.Update(ctx, task.LocalContentID, func(item *items.CapturedItem) {
		item.MarkError(code, deliverErr.Error(), now)
	})
	if err != nil {
		return err
	}

	w.logger.Warn("task dropped",
		logging.String(logging.FieldTaskID, task.TaskID),
		logging.String(logging.FieldItemID, task.LocalContentID),
		logging.String(logging.FieldErrorHint, code),
		logging.Error(deliverErr))
	if w.notifier != nil && updated != nil {
		if err := w.notifier.NotifyItemFailed(ctx, updated.Title, code, deliverErr.Error()); err != nil {
			w.logger.Warn("failure notification", logging.Error(err))
		}
	}
	return nil
}

// rearmHead rewrites the head task in place with incremented attempts and a
// backed-off next attempt, then persists the whole queue so the wake alarm is
// re-armed for the new head time.
func (w *Worker) rearmHead(ctx context.Context, tasks []outbox.SyncTask, deliverErr error) error {
	head := &tasks[0]
	head.Attempts++
	now := w.nowFn().UTC()
	head.NextAttemptAt = now.Add(Backoff(head.Attempts, w.maxBackoff, w.jitterFn))
	head.LastError = deliverErr.Error()

	if err := w.queue.ReplaceHead(ctx, *head); err != nil {
		return err
	}
	if _, err := w.catalog.Update(ctx, head.LocalContentID, func(item *items.CapturedItem) {
		item.MarkPending(head.Attempts, now)
	}); err != nil {
		return err
	}

	w.logger.Info("task re-armed",
		logging.String(logging.FieldTaskID, head.TaskID),
		logging.String(logging.FieldItemID, head.LocalContentID),
		logging.Int(logging.FieldAttempts, head.Attempts),
		logging.Time("next_attempt", head.NextAttemptAt),
		logging.Error(deliverErr))
	return nil
}

// releaseConsumed drops the file payload a delivered task referenced so the
// overflow tier is not leaked.
func (w *Worker) releaseConsumed(task *outbox.SyncTask) {
	if task.FileSessionKey != "" {
		w.overflow.Remove(task.FileSessionKey)
	}
}

func (w *Worker) notifyDrained(ctx context.Context, delivered, failed int, start time.Time) {
	if w.notifier == nil || delivered+failed == 0 {
		return
	}
	if err := w.notifier.NotifyQueueDrained(ctx, delivered, failed, w.nowFn().Sub(start)); err != nil {
		w.logger.Warn("drain notification", logging.Error(err))
	}
}
