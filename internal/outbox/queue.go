package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rahulptl/synapse-sub001/internal/logging"
	"github.com/rahulptl/synapse-sub001/internal/storage"
)

// QueueKey is the primary-store key holding the full outbox.
const QueueKey = "sync_outbox"

// WakePlanner re-arms the delivery alarm whenever the persisted queue
// changes. Satisfied by *wake.Scheduler.
type WakePlanner interface {
	ScheduleWake(ctx context.Context, at time.Time) error
	CancelWake(ctx context.Context) error
}

// Queue is the persisted, ordered outbox of delivery tasks. The stored
// representation is always sorted by NextAttemptAt ascending, so the head is
// the next task eligible (or soonest) for an attempt.
type Queue struct {
	store  *storage.Store
	wake   WakePlanner
	logger *slog.Logger
	nowFn  func() time.Time
	mu     sync.Mutex
}

// NewQueue wraps the primary store. wake may be nil when no alarm facility is
// available (e.g. one-shot CLI commands).
func NewQueue(store *storage.Store, wake WakePlanner, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{
		store:  store,
		wake:   wake,
		logger: logger.With(logging.String(logging.FieldComponent, "outbox")),
		nowFn:  time.Now,
	}
}

// Enqueue appends a task, replacing any active task for the same item so an
// item never has two pending deliveries. Missing identity and timing fields
// are filled in.
func (q *Queue) Enqueue(ctx context.Context, task SyncTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.nowFn().UTC()
	if task.TaskID == "" {
		task.TaskID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.NextAttemptAt.IsZero() {
		task.NextAttemptAt = now
	}

	tasks, err := q.loadLocked(ctx)
	if err != nil {
		return err
	}
	if task.LocalContentID != "" {
		filtered := tasks[:0]
		for _, existing := range tasks {
			if existing.LocalContentID != task.LocalContentID {
				filtered = append(filtered, existing)
			}
		}
		tasks = filtered
	}
	if err := q.saveLocked(ctx, append(tasks, task)); err != nil {
		return err
	}
	q.logger.Debug("task enqueued",
		logging.String(logging.FieldTaskID, task.TaskID),
		logging.String(logging.FieldItemID, task.LocalContentID),
		logging.String("task_type", string(task.Type)))
	return nil
}

// LoadAll returns every pending task sorted by NextAttemptAt ascending.
func (q *Queue) LoadAll(ctx context.Context) ([]SyncTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked(ctx)
}

// SaveAll rewrites the whole queue and re-arms the wake alarm: cancelled when
// the queue is empty, otherwise scheduled for max(now, head.NextAttemptAt).
func (q *Queue) SaveAll(ctx context.Context, tasks []SyncTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saveLocked(ctx, tasks)
}

// RemoveHead drops the earliest task and returns it. Returns nil on an empty
// queue.
func (q *Queue) RemoveHead(ctx context.Context) (*SyncTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks, err := q.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	head := tasks[0]
	if err := q.saveLocked(ctx, tasks[1:]); err != nil {
		return nil, err
	}
	return &head, nil
}

// ReplaceHead rewrites the head task, matched by id, leaving the rest of the
// queue intact. The save re-sorts, so a backed-off head may move behind tasks
// that are due sooner.
func (q *Queue) ReplaceHead(ctx context.Context, task SyncTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks, err := q.loadLocked(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 || tasks[0].TaskID != task.TaskID {
		return fmt.Errorf("replace head: task %s is not at the head of the outbox", task.TaskID)
	}
	tasks[0] = task
	return q.saveLocked(ctx, tasks)
}

// RemoveForItem drops any pending task for the given item, e.g. when the item
// is deleted. Returns whether a task was removed.
func (q *Queue) RemoveForItem(ctx context.Context, localContentID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks, err := q.loadLocked(ctx)
	if err != nil {
		return false, err
	}
	filtered := tasks[:0]
	for _, task := range tasks {
		if task.LocalContentID != localContentID {
			filtered = append(filtered, task)
		}
	}
	if len(filtered) == len(tasks) {
		return false, nil
	}
	if err := q.saveLocked(ctx, filtered); err != nil {
		return false, err
	}
	return true, nil
}

func (q *Queue) loadLocked(ctx context.Context) ([]SyncTask, error) {
	values, err := q.store.Get(ctx, QueueKey)
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}
	raw, ok := values[QueueKey]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var tasks []SyncTask
	if err := json.Unmarshal(raw, &tasks); err != nil {
		// Malformed record: recover silently with an empty queue.
		return nil, nil
	}
	sortTasks(tasks)
	return tasks, nil
}

func (q *Queue) saveLocked(ctx context.Context, tasks []SyncTask) error {
	if tasks == nil {
		tasks = []SyncTask{}
	}
	sortTasks(tasks)

	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal outbox: %w", err)
	}
	if err := q.store.Set(ctx, map[string][]byte{QueueKey: raw}); err != nil {
		return fmt.Errorf("persist outbox: %w", err)
	}
	q.rearmWake(ctx, tasks)
	return nil
}

// rearmWake keeps the alarm aligned with the persisted head. Alarm failures
// are logged, not escalated: the queue itself is intact and the next save or
// manual drain recovers.
func (q *Queue) rearmWake(ctx context.Context, tasks []SyncTask) {
	if q.wake == nil {
		return
	}
	if len(tasks) == 0 {
		if err := q.wake.CancelWake(ctx); err != nil {
			q.logger.Warn("cancel wake", logging.Error(err))
		}
		return
	}
	at := tasks[0].NextAttemptAt
	if now := q.nowFn().UTC(); at.Before(now) {
		at = now
	}
	if err := q.wake.ScheduleWake(ctx, at); err != nil {
		q.logger.Warn("schedule wake", logging.Error(err))
	}
}

func sortTasks(tasks []SyncTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].NextAttemptAt.Before(tasks[j].NextAttemptAt)
	})
}
