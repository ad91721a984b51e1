package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"sift/internal/logging"
)

// watchMonitor subscribes to file creation under the organization root. A
// rename into the root surfaces as a create, which covers browsers that
// finish downloads by renaming a partial file.
type watchMonitor struct {
	root    string
	logger  *slog.Logger
	handler func(ctx context.Context, path string)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	quit    chan struct{}
	done    chan struct{}
	running bool
}

func newWatchMonitor(root string, logger *slog.Logger, handler func(ctx context.Context, path string)) *watchMonitor {
	return &watchMonitor{
		root:    root,
		logger:  logging.NewComponentLogger(logger, "watch-monitor"),
		handler: handler,
	}
}

// Start begins delivering create and write events to the handler.
func (m *watchMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(m.root); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", m.root, err)
	}

	m.watcher = watcher
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	go m.monitorLoop(ctx, watcher, m.quit, m.done)

	m.logger.Info("watch monitor started",
		logging.String(logging.FieldEventType, "watch_monitor_started"),
		logging.String("root", m.root),
	)
	return nil
}

// Stop closes the subscription and waits for the event loop to exit.
func (m *watchMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	watcher, done := m.watcher, m.done
	m.quit, m.watcher, m.done = nil, nil, nil
	m.running = false
	m.mu.Unlock()

	_ = watcher.Close()
	<-done

	m.logger.Info("watch monitor stopped",
		logging.String(logging.FieldEventType, "watch_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *watchMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *watchMonitor) monitorLoop(ctx context.Context, watcher *fsnotify.Watcher, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(m.logger, "watch monitor error", "watch_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_queued_events if events overflow"),
				logging.String(logging.FieldImpact, "some new files may not be organized until the next batch pass"),
			)
		}
	}
}

func (m *watchMonitor) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Writes re-submit a file still being downloaded; the pipeline folds them
	// into the running stability check.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	m.logger.Debug("file detected",
		logging.String(logging.FieldPath, event.Name),
		logging.String("op", event.Op.String()),
	)
	if m.handler != nil {
		m.handler(ctx, event.Name)
	}
}
