package wake

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/logging"
	"github.com/rahulptl/synapse-sub001/internal/storage"
)

// AlarmName identifies the single delivery alarm. Re-arming replaces any
// pending firing.
const AlarmName = "remote-sync"

// stateKey holds the pending wake time (epoch milliseconds) in the primary
// store so a restarted daemon can re-arm it.
const stateKey = "alarm:" + AlarmName

// Scheduler arranges for the sync worker to run at a scheduled time. The
// schedule survives daemon restarts: the wake time is persisted alongside the
// queue, and Rearm restores the in-process timer at startup.
type Scheduler struct {
	store  *storage.Store
	fire   func()
	logger *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewScheduler builds a scheduler that invokes fire when the alarm goes off.
func NewScheduler(store *storage.Store, fire func(), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if fire == nil {
		fire = func() {}
	}
	return &Scheduler{
		store:  store,
		fire:   fire,
		logger: logger.With(logging.String(logging.FieldComponent, "wake")),
	}
}

// ScheduleWake persists and arms a wake at the given time, replacing any
// pending one. Times in the past fire immediately.
func (s *Scheduler) ScheduleWake(ctx context.Context, at time.Time) error {
	encoded := strconv.FormatInt(at.UnixMilli(), 10)
	if err := s.store.Set(ctx, map[string][]byte{stateKey: []byte(encoded)}); err != nil {
		return fmt.Errorf("persist wake time: %w", err)
	}
	s.arm(at)
	s.logger.Debug("wake scheduled", logging.Time("at", at))
	return nil
}

// CancelWake clears any pending wake.
func (s *Scheduler) CancelWake(ctx context.Context) error {
	if err := s.store.Remove(ctx, stateKey); err != nil {
		return fmt.Errorf("clear wake time: %w", err)
	}
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
	s.logger.Debug("wake cancelled")
	return nil
}

// Rearm restores the persisted wake after a daemon restart. A wake time that
// already passed while the daemon was down fires immediately.
func (s *Scheduler) Rearm(ctx context.Context) error {
	at, ok, err := s.PendingWake(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.arm(at)
	s.logger.Info("wake re-armed", logging.Time("at", at))
	return nil
}

// PendingWake reports the persisted wake time, if one is set.
func (s *Scheduler) PendingWake(ctx context.Context) (time.Time, bool, error) {
	values, err := s.store.Get(ctx, stateKey)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read wake time: %w", err)
	}
	raw, ok := values[stateKey]
	if !ok {
		return time.Time{}, false, nil
	}
	millis, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		// Malformed record: drop it rather than wedge the scheduler.
		_ = s.store.Remove(ctx, stateKey)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// Close stops the in-process timer. The persisted wake time is left in place
// for the next daemon run.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Scheduler) arm(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopTimerLocked()

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, s.onFire)
}

func (s *Scheduler) onFire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	// The store entry is cleared before firing so a drain that reschedules
	// sees a clean slate.
	if err := s.store.Remove(context.Background(), stateKey); err != nil {
		s.logger.Warn("clear fired wake", logging.Error(err))
	}
	s.fire()
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
