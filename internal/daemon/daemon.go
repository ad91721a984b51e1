package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"sift/internal/config"
	"sift/internal/ingest"
	"sift/internal/logging"
)

// ErrAlreadyRunning reports a second watcher on the same state directory.
var ErrAlreadyRunning = errors.New("another sift watcher is already running")

// Daemon owns the watch lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *ingest.Pipeline
	monitor  *watchMonitor

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	cancel    context.CancelFunc
	batchDone chan struct{}
	lastBatch *ingest.Summary
	batchErr  error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Watching     bool
	Root         string
	InFlight     int
	RunID        string
	LockFilePath string
	HistoryPath  string
	LastBatch    *ingest.Summary
	BatchError   error
}

// New constructs a daemon around an existing pipeline.
func New(cfg *config.Config, pipeline *ingest.Pipeline, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || pipeline == nil {
		return nil, errors.New("daemon requires config and pipeline")
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pipeline: pipeline,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.monitor = newWatchMonitor(cfg.Paths.RootDir, logger, pipeline.Submit)
	return d, nil
}

// Start acquires the lock, subscribes to the root and, when configured,
// organizes files already present. The batch pass runs alongside the watch
// subscription; the pipeline's in-flight set keeps them from colliding.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	if err := tryLock(d.lock); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.monitor.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start watch: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)

	d.batchDone = make(chan struct{})
	if d.cfg.Watch.OrganizeExisting {
		go d.organizeExisting(runCtx, d.batchDone)
	} else {
		close(d.batchDone)
	}

	d.logger.Info("sift watcher started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("root", d.cfg.Paths.RootDir),
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldCorrelationID, d.pipeline.RunID()),
	)
	return nil
}

// AcquireLock takes the single-instance lock at path for callers that
// organize without a Daemon. The caller must Unlock the returned lock.
func AcquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	if err := tryLock(lock); err != nil {
		return nil, err
	}
	return lock, nil
}

func tryLock(lock *flock.Flock) error {
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	return nil
}

func (d *Daemon) organizeExisting(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	summary, err := d.pipeline.Organize(ctx)
	d.mu.Lock()
	d.lastBatch = &summary
	d.batchErr = err
	d.mu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(d.logger, "initial organize pass incomplete", "organize_existing_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the organization root is readable"),
			logging.String(logging.FieldImpact, "existing files may remain unorganized until the next run"),
		)
	}
}

// Stop unsubscribes, cancels pending stability waits, waits for files
// already claimed to finish and releases the lock. Safe to call repeatedly.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	d.running.Store(false)
	cancel := d.cancel
	d.cancel = nil
	batchDone := d.batchDone
	d.mu.Unlock()

	d.monitor.Stop()
	if cancel != nil {
		cancel()
	}
	if batchDone != nil {
		<-batchDone
	}
	d.pipeline.Wait()

	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no watcher is running"),
		)
	}
	d.logger.Info("sift watcher stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// WaitBatch blocks until the startup organize pass finishes, or returns
// immediately when none was started.
func (d *Daemon) WaitBatch() {
	d.mu.Lock()
	done := d.batchDone
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		Watching:     d.monitor.Running(),
		Root:         d.cfg.Paths.RootDir,
		InFlight:     d.pipeline.InFlight().Len(),
		RunID:        d.pipeline.RunID(),
		LockFilePath: d.lockPath,
		HistoryPath:  d.cfg.HistoryPath(),
		LastBatch:    d.lastBatch,
		BatchError:   d.batchErr,
	}
}
