package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"printq/internal/artifacts"
	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/notifications"
	"printq/internal/retention"
	"printq/internal/store"
)

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	engine     *retention.Engine
	notifier   notifications.Service
	dispatcher *notifications.Dispatcher
	metrics    *metrics
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status reports daemon runtime information.
type Status struct {
	Running       bool          `json:"running"`
	PID           int           `json:"pid"`
	StartedAt     time.Time     `json:"started_at,omitzero"`
	DataDir       string        `json:"data_dir"`
	LockFilePath  string        `json:"lock_file_path"`
	Requests      store.Summary `json:"requests"`
	DroppedEvents uint64        `json:"dropped_events"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	files, err := artifacts.NewStore(cfg.Paths.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	notifier := notifications.NewService(cfg)
	lockPath := filepath.Join(cfg.Paths.LogDir, "printqd.lock")

	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		engine:     retention.NewEngine(cfg, st, files, logger),
		notifier:   notifier,
		dispatcher: notifications.NewDispatcher(notifier, logger),
		metrics:    newMetrics(),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logging.NewComponentLogger(logger, "api"))
	return d, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another printq daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatcher.Run(runCtx, d.store.Events())
	}()

	d.wg.Add(2)
	go d.runRetentionLoop(runCtx)
	go d.runBackupLoop(runCtx)

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			cancel()
			d.wg.Wait()
			_ = d.lock.Unlock()
			d.cancel = nil
			return err
		}
	}

	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("printq daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("printq daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status summarizes the daemon's runtime state.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		StartedAt:     d.startedAt,
		DataDir:       d.cfg.Paths.DataDir,
		LockFilePath:  d.lockPath,
		Requests:      d.store.Stats(),
		DroppedEvents: d.store.DroppedEvents(),
	}
}

// RunCleanup runs a retention pass immediately and reports the outcome.
func (d *Daemon) RunCleanup(ctx context.Context) (retention.Result, error) {
	result, err := d.engine.Cleanup(ctx)
	if err != nil {
		return result, err
	}
	expired, err := d.engine.ExpireArtifacts(ctx)
	if err != nil {
		return result, err
	}
	d.metrics.observeCleanup(result, expired)
	d.metrics.observeSummary(d.store.Stats())
	if result.Archived > 0 || result.Purged > 0 {
		if err := d.notifier.NotifyCleanupCompleted(ctx, result.Archived, result.Purged); err != nil {
			d.logger.Warn("cleanup notification failed", logging.Error(err))
		}
	}
	return result, nil
}
