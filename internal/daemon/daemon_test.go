package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sift/internal/config"
	"sift/internal/folders"
	"sift/internal/ingest"
	"sift/internal/logging"
	"sift/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config) (*Daemon, *ingest.OutcomeQueue) {
	t.Helper()
	resolver, err := folders.NewResolver(cfg.Paths.RootDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	queue := ingest.NewOutcomeQueue(32)
	p, err := ingest.New(ingest.Options{
		Config:    cfg,
		Model:     testsupport.OpenModel(t, cfg.Model.Path),
		Resolver:  resolver,
		Recorder:  testsupport.MustOpenHistory(t, cfg),
		Listeners: []ingest.Listener{queue},
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	d, err := New(cfg, p, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, queue
}

func waitOutcome(t *testing.T, q *ingest.OutcomeQueue) ingest.Outcome {
	t.Helper()
	select {
	case o := <-q.Outcomes():
		return o
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return ingest.Outcome{}
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running || !status.Watching {
		t.Fatalf("status = %+v, want running and watching", status)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	d.Stop()
	if status := d.Status(); status.Running || status.Watching {
		t.Fatalf("status = %+v, want stopped", status)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newTestDaemon(t, cfg)
	second, _ := newTestDaemon(t, cfg)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start err = %v, want ErrAlreadyRunning", err)
	}
	if _, err := AcquireLock(cfg.LockPath()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("AcquireLock err = %v, want ErrAlreadyRunning", err)
	}

	first.Stop()
	lock, err := AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock after Stop: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestDaemonOrganizesExistingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOrganizeExisting(true))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.RootDir, "avengers_movie.mp4"), 4096)
	d, queue := newTestDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.WaitBatch()
	out := waitOutcome(t, queue)
	if out.State != ingest.StateDone || out.Folder != "Movies" {
		t.Fatalf("outcome = %+v", out)
	}
	status := d.Status()
	if status.LastBatch == nil || status.LastBatch.Moved != 1 {
		t.Fatalf("last batch = %+v", status.LastBatch)
	}
}

func TestDaemonOrganizesNewFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithOrganizeExisting(false),
		testsupport.WithStability(50, 3),
	)
	d, queue := newTestDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Write outside the root and rename in so the create event sees the
	// finished file.
	staged := filepath.Join(testsupport.BaseDir(cfg), "setup_game.zip")
	testsupport.WriteFile(t, staged, 8192)
	target := filepath.Join(cfg.Paths.RootDir, "setup_game.zip")
	if err := os.Rename(staged, target); err != nil {
		t.Fatalf("rename: %v", err)
	}

	out := waitOutcome(t, queue)
	if out.State != ingest.StateDone || out.Folder != "Games" {
		t.Fatalf("outcome = %+v", out)
	}
	if !testsupport.Exists(t, filepath.Join(cfg.Paths.RootDir, "Games", "setup_game.zip")) {
		t.Fatal("file not moved into Games")
	}
	if status := d.Status(); status.LastBatch != nil {
		t.Fatalf("organize_existing disabled but batch ran: %+v", status.LastBatch)
	}
}

func TestDaemonOrganizesSlowDownload(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithOrganizeExisting(false),
		testsupport.WithStability(30, 2),
	)
	d, queue := newTestDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The writes outlast the stability budget of 60ms several times over.
	target := filepath.Join(cfg.Paths.RootDir, "avengers_movie.mp4")
	f, err := os.Create(target)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	chunk := make([]byte, 512)
	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := f.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out := waitOutcome(t, queue)
	if out.State != ingest.StateDone || out.Folder != "Movies" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Size < 20*512 {
		t.Fatalf("organized a partial file of %d bytes", out.Size)
	}
	if !testsupport.Exists(t, filepath.Join(cfg.Paths.RootDir, "Movies", "avengers_movie.mp4")) {
		t.Fatal("download was not moved")
	}
}

func TestWatchMonitorNilSafe(t *testing.T) {
	var m *watchMonitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Fatal("nil monitor reports running")
	}
}

func TestWatchMonitorMissingRoot(t *testing.T) {
	m := newWatchMonitor(filepath.Join(t.TempDir(), "absent"), nil, nil)
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected error watching a missing root")
	}
	if m.Running() {
		t.Fatal("monitor running after failed start")
	}
	m.Stop()
}
