package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/rahulptl/synapse-sub001/internal/api"
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

// Daemon owns the delivery pipeline and enforces single-instance execution
// with a file lock. It wires the storage tiers, outbox, sync worker, and wake
// scheduler, and exposes them behind one QueueService.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store    *storage.Store
	overflow *storage.Overflow
	catalog  *items.Catalog
	tiers    *tier.Manager
	queue    *outbox.Queue
	worker   *syncer.Worker
	wake     *wake.Scheduler
	notifier notifications.Service
	service  *api.QueueService

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open primary store: %w", err)
	}
	overflow, err := storage.NewOverflow(cfg.Storage.OverflowMaxEntries)
	if err != nil {
		store.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		overflow: overflow,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.catalog = items.NewCatalog(store)
	d.tiers = tier.NewManager(cfg, d.catalog, overflow, logger)
	d.wake = wake.NewScheduler(store, d.onWake, logger)
	d.queue = outbox.NewQueue(store, d.wake, logger)
	d.notifier = notifications.NewService(cfg)
	d.worker = syncer.NewWorker(cfg, d.queue, d.catalog, overflow, synapse.NewClient(cfg), d.notifier, logger)
	d.service = api.NewQueueService(api.Deps{
		Config:   cfg,
		Store:    store,
		Catalog:  d.catalog,
		Tiers:    d.tiers,
		Overflow: overflow,
		Queue:    d.queue,
		Worker:   d.worker,
		Wake:     d.wake,
		Remote:   synapse.NewClient(cfg),
		Notifier: d.notifier,
		Logger:   logger,
	})
	return d, nil
}

// Service exposes the daemon's operations to transports.
func (d *Daemon) Service() *api.QueueService {
	return d.service
}

// Start acquires the daemon lock, re-arms any persisted wake, and optionally
// drains the queue left over from the previous run.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another synapse daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running.Store(true)

	if err := d.wake.Rearm(d.ctx); err != nil {
		d.logger.Warn("wake re-arm failed", logging.Error(err))
	}
	if d.cfg.Sync.StartupDrain {
		go d.drain()
	}

	d.logger.Info("synapse daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.cfg.DatabasePath()))
	return nil
}

// Stop halts background work and releases the daemon lock. The persisted
// queue and wake time survive for the next run.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wake.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("synapse daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// onWake is invoked by the wake scheduler when a retry becomes eligible.
func (d *Daemon) onWake() {
	if !d.running.Load() {
		return
	}
	go d.drain()
}

func (d *Daemon) drain() {
	ctx := d.ctx
	if ctx == nil {
		return
	}
	if err := d.worker.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("queue drain failed", logging.Error(err))
	}
}
