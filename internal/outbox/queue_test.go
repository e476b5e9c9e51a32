package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/outbox"
	"github.com/rahulptl/synapse-sub001/internal/testsupport"
)

// recordingPlanner captures wake re-arm calls.
type recordingPlanner struct {
	scheduled []time.Time
	cancels   int
}

func (p *recordingPlanner) ScheduleWake(ctx context.Context, at time.Time) error {
	p.scheduled = append(p.scheduled, at)
	return nil
}

func (p *recordingPlanner) CancelWake(ctx context.Context) error {
	p.cancels++
	return nil
}

func newQueue(t *testing.T) (*outbox.Queue, *recordingPlanner) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	planner := &recordingPlanner{}
	return outbox.NewQueue(store, planner, nil), planner
}

func task(itemID string, next time.Time) outbox.SyncTask {
	return outbox.SyncTask{
		Type:           outbox.TaskIngest,
		LocalContentID: itemID,
		RemoteFolderID: "folder-1",
		NextAttemptAt:  next,
	}
}

func TestLoadAllSortedByNextAttempt(t *testing.T) {
	queue, _ := newQueue(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, tk := range []outbox.SyncTask{
		task("late", now.Add(30*time.Second)),
		task("soon", now.Add(5*time.Second)),
		task("due", now.Add(-time.Second)),
	} {
		if err := queue.Enqueue(ctx, tk); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	tasks, err := queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("len = %d, want 3", len(tasks))
	}
	for i, want := range []string{"due", "soon", "late"} {
		if tasks[i].LocalContentID != want {
			t.Fatalf("position %d is %q, want %q", i, tasks[i].LocalContentID, want)
		}
	}
}

func TestEnqueueFillsIdentityAndTiming(t *testing.T) {
	queue, _ := newQueue(t)
	ctx := context.Background()

	before := time.Now().UTC()
	if err := queue.Enqueue(ctx, outbox.SyncTask{Type: outbox.TaskIngest, LocalContentID: "a"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	tasks, err := queue.LoadAll(ctx)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("LoadAll: tasks=%v err=%v", tasks, err)
	}
	head := tasks[0]
	if head.TaskID == "" {
		t.Fatal("TaskID not assigned")
	}
	if head.CreatedAt.Before(before) || head.NextAttemptAt.Before(before) {
		t.Fatalf("timestamps not filled: %#v", head)
	}
	if !head.Eligible(time.Now().UTC()) {
		t.Fatal("fresh task should be immediately eligible")
	}
}

func TestEnqueueReplacesTaskForSameItem(t *testing.T) {
	queue, _ := newQueue(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := queue.Enqueue(ctx, task("a", now)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	replacement := task("a", now.Add(time.Minute))
	replacement.Type = outbox.TaskFileUpload
	if err := queue.Enqueue(ctx, replacement); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	tasks, err := queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Type != outbox.TaskFileUpload {
		t.Fatalf("expected single replaced task, got %#v", tasks)
	}
}

func TestRemoveHead(t *testing.T) {
	queue, _ := newQueue(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := queue.Enqueue(ctx, task("first", now)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.Enqueue(ctx, task("second", now.Add(time.Second))); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	head, err := queue.RemoveHead(ctx)
	if err != nil {
		t.Fatalf("RemoveHead failed: %v", err)
	}
	if head == nil || head.LocalContentID != "first" {
		t.Fatalf("unexpected head: %#v", head)
	}

	remaining, err := queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].LocalContentID != "second" {
		t.Fatalf("unexpected remainder: %#v", remaining)
	}
}

func TestReplaceHeadRewritesAndResorts(t *testing.T) {
	queue, _ := newQueue(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := queue.Enqueue(ctx, task("stuck", now)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.Enqueue(ctx, task("waiting", now.Add(time.Second))); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	tasks, err := queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	head := tasks[0]
	head.Attempts = 3
	head.NextAttemptAt = now.Add(time.Minute)
	head.LastError = "upstream timeout"
	if err := queue.ReplaceHead(ctx, head); err != nil {
		t.Fatalf("ReplaceHead failed: %v", err)
	}

	tasks, err = queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected both tasks, got %d", len(tasks))
	}
	if tasks[0].LocalContentID != "waiting" {
		t.Fatalf("backed-off head should sort behind due task, got %#v", tasks[0])
	}
	if tasks[1].Attempts != 3 || tasks[1].LastError != "upstream timeout" {
		t.Fatalf("replacement not persisted: %#v", tasks[1])
	}

	stale := head
	stale.TaskID = "not-the-head"
	if err := queue.ReplaceHead(ctx, stale); err == nil {
		t.Fatal("expected error replacing a non-head task")
	}
}

func TestRemoveHeadOnEmptyQueue(t *testing.T) {
	queue, _ := newQueue(t)

	head, err := queue.RemoveHead(context.Background())
	if err != nil {
		t.Fatalf("RemoveHead failed: %v", err)
	}
	if head != nil {
		t.Fatalf("expected nil head, got %#v", head)
	}
}

func TestSaveAllRearmsWakeForHead(t *testing.T) {
	queue, planner := newQueue(t)
	ctx := context.Background()

	future := time.Now().UTC().Add(10 * time.Second)
	if err := queue.SaveAll(ctx, []outbox.SyncTask{task("a", future)}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	if len(planner.scheduled) == 0 {
		t.Fatal("expected a wake to be scheduled")
	}
	got := planner.scheduled[len(planner.scheduled)-1]
	if !got.Equal(future) {
		t.Fatalf("wake at %v, want %v", got, future)
	}
}

func TestSaveAllClampsOverdueHeadToNow(t *testing.T) {
	queue, planner := newQueue(t)
	ctx := context.Background()

	before := time.Now().UTC()
	if err := queue.SaveAll(ctx, []outbox.SyncTask{task("a", before.Add(-time.Hour))}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	got := planner.scheduled[len(planner.scheduled)-1]
	if got.Before(before) {
		t.Fatalf("overdue head must clamp to now, got %v", got)
	}
}

func TestSaveAllEmptyCancelsWake(t *testing.T) {
	queue, planner := newQueue(t)
	ctx := context.Background()

	if err := queue.Enqueue(ctx, task("a", time.Now().UTC())); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.SaveAll(ctx, nil); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	if planner.cancels == 0 {
		t.Fatal("expected wake cancellation for empty queue")
	}

	tasks, err := queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("queue not emptied: %#v", tasks)
	}
}

func TestRemoveForItem(t *testing.T) {
	queue, _ := newQueue(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := queue.Enqueue(ctx, task("keep", now)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.Enqueue(ctx, task("drop", now)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	removed, err := queue.RemoveForItem(ctx, "drop")
	if err != nil || !removed {
		t.Fatalf("RemoveForItem: removed=%v err=%v", removed, err)
	}
	removed, err = queue.RemoveForItem(ctx, "missing")
	if err != nil || removed {
		t.Fatalf("RemoveForItem on missing item: removed=%v err=%v", removed, err)
	}

	tasks, err := queue.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].LocalContentID != "keep" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}
