package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"sift/internal/classifier"
	"sift/internal/config"
	"sift/internal/daemon"
	"sift/internal/folders"
	"sift/internal/history"
	"sift/internal/ingest"
	"sift/internal/logging"
	"sift/internal/policy"
	"sift/internal/preflight"
)

// Options configures process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Listeners receive every terminal outcome in addition to the history log.
	Listeners   []ingest.Listener
}

// Runtime bundles the components that serve one organization root.
type Runtime struct {
	Config   *config.Config
	Model    *classifier.Model
	Resolver *folders.Resolver
	History  *history.Store
	Pipeline *ingest.Pipeline
	Logger   *slog.Logger
}

// Build loads the model, scans the root, opens the history log and wires
// the pipeline. A model that cannot be loaded is fatal.
func Build(cfg *config.Config, logger *slog.Logger, listeners ...ingest.Listener) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	model, err := classifier.Open(cfg.Model.Backend, cfg.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	resolver, err := folders.NewResolver(cfg.Paths.RootDir, logger)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	pipeline, err := ingest.New(ingest.Options{
		Config:    cfg,
		Model:     model,
		Policy:    policy.New(policy.FromConfig(cfg.Policy)),
		Resolver:  resolver,
		Recorder:  store,
		Listeners: listeners,
		Logger:    logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Runtime{
		Config:   cfg,
		Model:    model,
		Resolver: resolver,
		History:  store,
		Pipeline: pipeline,
		Logger:   logger,
	}, nil
}

// Close releases the history database.
func (r *Runtime) Close() error {
	if r == nil || r.History == nil {
		return nil
	}
	return r.History.Close()
}

// Organize performs one batch pass over the root while holding the
// single-instance lock, so it never races a running watcher.
func (r *Runtime) Organize(ctx context.Context) (ingest.Summary, error) {
	lock, err := daemon.AcquireLock(r.Config.LockPath())
	if err != nil {
		return ingest.Summary{}, err
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return r.Pipeline.Organize(ctx)
}

// NewLogger builds the process logger from config, honoring a level override.
func NewLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "sift.log")},
		Development: opts.Development,
	})
}

// Run starts the watcher and blocks until SIGINT, SIGTERM or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := NewLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	for _, result := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `sift preflight` for details"),
			logging.String(logging.FieldImpact, "the watcher may not be able to organize files"),
		)
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "sift.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rt, err := Build(cfg, logger, opts.Listeners...)
	if err != nil {
		logging.ErrorWithContext(logger, "sift runtime unavailable", "runtime_build_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check model.path and paths.root_dir"),
		)
		return err
	}
	defer rt.Close()

	d, err := daemon.New(cfg, rt.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("sift watcher shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	d.Stop()
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("config snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("root", cfg.Paths.RootDir),
		logging.String("state_dir", cfg.Paths.StateDir),
		logging.String("model_backend", cfg.Model.Backend),
		logging.String("model_path", cfg.Model.Path),
		logging.Bool("organize_existing", cfg.Watch.OrganizeExisting),
		logging.Int("stability_delay_ms", cfg.Watch.StabilityDelayMS),
		logging.Int("stability_attempts", cfg.Watch.StabilityAttempts),
		logging.Int("max_workers", cfg.Watch.MaxWorkers),
	)
}
