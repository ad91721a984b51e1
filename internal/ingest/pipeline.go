package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"sift/internal/classifier"
	"sift/internal/config"
	"sift/internal/features"
	"sift/internal/fileutil"
	"sift/internal/folders"
	"sift/internal/history"
	"sift/internal/logging"
	"sift/internal/policy"
	"sift/internal/services"
)

// moveAttempts bounds conflict re-resolution when a destination appears
// between UniquePath and the move.
const moveAttempts = 5

// Recorder persists successful placements.
type Recorder interface {
	Append(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Options wires a Pipeline.
type Options struct {
	Config    *config.Config
	Model     *classifier.Model
	Policy    *policy.Policy
	Resolver  *folders.Resolver
	Recorder  Recorder
	Listeners []Listener
	Logger    *slog.Logger
}

// Pipeline classifies and moves files from one organization root.
type Pipeline struct {
	root              string
	model             *classifier.Model
	extractor         *features.Extractor
	policy            *policy.Policy
	resolver          *folders.Resolver
	recorder          Recorder
	listeners         []Listener
	filter            Filter
	stabilityDelay    time.Duration
	stabilityAttempts int
	sem               *semaphore.Weighted
	inflight          *InFlightSet
	pending           *pendingSet
	runID             string
	logger            *slog.Logger

	wg sync.WaitGroup
}

// New validates options and builds a pipeline. A nil model is fatal.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "init", "config is required", nil)
	}
	if opts.Model == nil || opts.Model.Classifier == nil {
		return nil, services.Wrap(services.ErrModelNotReady, "ingest", "init", "classifier model is not loaded", nil)
	}
	if opts.Resolver == nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "init", "folder resolver is required", nil)
	}
	extractor, err := opts.Model.Extractor()
	if err != nil {
		return nil, services.Wrap(services.ErrModelNotReady, "ingest", "init", "model schema", err)
	}
	pol := opts.Policy
	if pol == nil {
		pol = policy.New(policy.FromConfig(opts.Config.Policy))
	}
	cfg := opts.Config
	p := &Pipeline{
		root:              opts.Resolver.Root(),
		model:             opts.Model,
		extractor:         extractor,
		policy:            pol,
		resolver:          opts.Resolver,
		recorder:          opts.Recorder,
		listeners:         slices.Clone(opts.Listeners),
		filter:            NewFilter(cfg.Watch.IgnorePatterns, cfg.Watch.MinFileSize),
		stabilityDelay:    cfg.StabilityDelay(),
		stabilityAttempts: max(cfg.Watch.StabilityAttempts, 1),
		inflight:          NewInFlightSet(),
		pending:           newPendingSet(),
		runID:             uuid.NewString(),
		logger:            logging.NewComponentLogger(opts.Logger, "ingest"),
	}
	if cfg.Watch.MaxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(cfg.Watch.MaxWorkers))
	}
	return p, nil
}

// RunID identifies the watch session for outcomes produced by HandleEvent
// and Submit.
func (p *Pipeline) RunID() string { return p.runID }

// InFlight exposes the in-flight set.
func (p *Pipeline) InFlight() *InFlightSet { return p.inflight }

// Submit processes path on a new goroutine. Use Wait to join.
func (p *Pipeline) Submit(ctx context.Context, path string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.HandleEvent(ctx, path)
	}()
}

// Wait blocks until every submitted file has reached a terminal state.
func (p *Pipeline) Wait() { p.wg.Wait() }

// HandleEvent runs the full watch-mode lifecycle for one filesystem event and
// blocks until it ends. The bool result is false when the file was
// discarded.
func (p *Pipeline) HandleEvent(ctx context.Context, path string) (Outcome, bool) {
	ctx = services.WithRunID(ctx, p.runID)
	out := p.newOutcome(path, p.runID)

	if reason, ok := p.precheck(path); !ok {
		return p.discard(ctx, out, reason), false
	}

	if !p.pending.enter(path) {
		return p.discard(ctx, out, ReasonCoalesced), false
	}
	out.State = StateStabilityCheck
	info, reason := p.waitStable(ctx, path)
	// A file still being written keeps producing events; keep checking while
	// they arrive.
	for reason == ReasonUnstable && p.pending.again(path) {
		info, reason = p.waitStable(ctx, path)
	}
	if reason != ReasonUnstable {
		p.pending.leave(path)
	} else {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "file still changing, skipped", "file_unstable",
			logging.String(logging.FieldPath, path),
			logging.Int("attempts", p.stabilityAttempts),
			logging.Duration("delay", p.stabilityDelay),
			logging.String(logging.FieldErrorHint, "raise watch.stability_delay_ms or watch.stability_attempts"),
			logging.String(logging.FieldImpact, "file stays in the root until the next batch pass or write"),
		)
	}
	if reason != "" {
		return p.discard(ctx, out, reason), false
	}
	if reason, ok := p.filter.Admit(path, info); !ok {
		return p.discard(ctx, out, reason), false
	}
	out.State = StateStable
	return p.process(ctx, out)
}

// Summary aggregates a batch pass.
type Summary struct {
	RunID   string
	Moved   int
	Failed  int
	Skipped int
	// Categories lists the distinct destination folders used, sorted.
	Categories []string
	Outcomes   []Outcome
}

// Organize moves every eligible file directly under the root. Files are
// processed concurrently up to the worker bound with no stability delay.
// Cancelling ctx stops scheduling new files; files already claimed finish.
func (p *Pipeline) Organize(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	entries, err := os.ReadDir(p.root)
	if err != nil {
		return Summary{RunID: runID}, services.Wrap(services.ErrIO, "organize", "scan root", p.root, err)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary = Summary{RunID: runID}
		used    = make(map[string]struct{})
	)
	collect := func(out Outcome, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		summary.Outcomes = append(summary.Outcomes, out)
		switch {
		case !ok:
			summary.Skipped++
		case out.State == StateDone:
			summary.Moved++
			if out.Folder != "" {
				used[out.Folder] = struct{}{}
			}
		default:
			summary.Failed++
		}
	}

	logger.Info("organize started", logging.Int("entries", len(entries)), logging.String("root", p.root))
	var scheduleErr error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			scheduleErr = err
			break
		}
		path := filepath.Join(p.root, entry.Name())
		if entry.IsDir() {
			continue
		}
		out := p.newOutcome(path, runID)
		if p.filter.IgnoredName(entry.Name()) {
			collect(p.discard(ctx, out, ReasonIgnored), false)
			continue
		}
		// Scheduling blocks on a free worker, so at most max_workers files
		// are in progress at once.
		if p.sem != nil {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				scheduleErr = err
				break
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.sem != nil {
				defer p.sem.Release(1)
			}
			info, err := os.Stat(path)
			if err != nil {
				collect(p.discard(ctx, out, ReasonVanished), false)
				return
			}
			if reason, ok := p.filter.Admit(path, info); !ok {
				collect(p.discard(ctx, out, reason), false)
				return
			}
			out.State = StateStable
			collect(p.run(ctx, out))
		}()
	}
	wg.Wait()

	summary.Categories = slices.Sorted(maps.Keys(used))
	slices.SortFunc(summary.Outcomes, func(a, b Outcome) int { return cmp.Compare(a.Path, b.Path) })

	logger.Info("organize finished",
		logging.Int("moved", summary.Moved),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Any("folders", summary.Categories),
	)
	return summary, scheduleErr
}

// Preview is a dry-run classification.
type Preview struct {
	Path       string
	Size       int64
	Raw        classifier.Scores
	Decision   policy.Result
	Resolution folders.Resolution
}

// Classify scores path and reports where it would go without moving it or
// creating folders.
func (p *Pipeline) Classify(path string) (Preview, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Preview{}, services.Wrap(services.ErrIO, string(StateClassifying), "stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return Preview{}, services.Wrap(services.ErrIO, string(StateClassifying), "stat", path+" is not a regular file", nil)
	}
	raw, decision, err := p.decide(path, info.Size())
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		Path:       path,
		Size:       info.Size(),
		Raw:        raw,
		Decision:   decision,
		Resolution: p.resolver.Preview(decision.Folder),
	}, nil
}

func (p *Pipeline) newOutcome(path, runID string) Outcome {
	return Outcome{
		ID:      uuid.NewString(),
		RunID:   runID,
		Path:    path,
		Name:    filepath.Base(path),
		State:   StateDetected,
		Started: time.Now(),
	}
}

func (p *Pipeline) precheck(path string) (string, bool) {
	if filepath.Dir(filepath.Clean(path)) != p.root {
		return ReasonOutside, false
	}
	if p.filter.IgnoredName(path) {
		return ReasonIgnored, false
	}
	return "", true
}

// waitStable requires the size to hold across one stability delay. A size
// change restarts the wait up to stabilityAttempts times.
func (p *Pipeline) waitStable(ctx context.Context, path string) (fs.FileInfo, string) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ReasonVanished
	}
	if !info.Mode().IsRegular() {
		return nil, ReasonNotFile
	}
	last := info.Size()
	for range p.stabilityAttempts {
		timer := time.NewTimer(p.stabilityDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ReasonCancelled
		case <-timer.C:
		}
		info, err = os.Stat(path)
		if err != nil {
			return nil, ReasonVanished
		}
		if info.Size() == last {
			return info, ""
		}
		last = info.Size()
	}
	return nil, ReasonUnstable
}

// process waits for a worker slot, then runs out to a terminal outcome.
func (p *Pipeline) process(ctx context.Context, out Outcome) (Outcome, bool) {
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return p.discard(ctx, out, ReasonCancelled), false
		}
		defer p.sem.Release(1)
	}
	return p.run(ctx, out)
}

// run claims path and takes it to a terminal outcome. The caller holds a
// worker slot.
func (p *Pipeline) run(ctx context.Context, out Outcome) (Outcome, bool) {
	if !p.inflight.Claim(out.Path) {
		return p.discard(ctx, out, ReasonInFlight), false
	}
	defer p.inflight.Release(out.Path)

	// An earlier claim may have moved the file away already.
	info, err := os.Stat(out.Path)
	if err != nil {
		return p.discard(ctx, out, ReasonVanished), false
	}
	out.Size = info.Size()

	ctx = context.WithoutCancel(services.WithPath(ctx, out.Path))
	logger := logging.WithContext(ctx, p.logger)

	out.State = StateClassifying
	_, decision, err := p.decide(out.Path, out.Size)
	if err != nil {
		return p.fail(ctx, out, err), true
	}
	out.Category = decision.Category
	out.Confidence = decision.Confidence
	if decision.Override != nil {
		out.Override = decision.Override.Rule
		attrs := logging.DecisionAttrs("category_override", decision.Category, decision.Override.Rule)
		attrs = append(attrs,
			logging.String("baseline", decision.Override.Baseline),
			logging.Int("education_hits", decision.Override.EducationHits),
			logging.Int("finance_hits", decision.Override.FinanceHits),
		)
		logger.Info("category override applied", logging.Args(attrs...)...)
	}

	out.State = StateResolving
	resolution := p.resolver.Resolve(decision.Folder)
	out.Folder = resolution.Folder
	out.Warning = resolution.Warning

	out.State = StateMoving
	if filepath.Clean(resolution.Dir) == filepath.Dir(out.Path) {
		// Fallback to the root leaves the file where it is.
		out.Destination = out.Path
	} else {
		dest, err := p.move(out.Path, filepath.Join(resolution.Dir, out.Name))
		if err != nil {
			return p.fail(ctx, out, err), true
		}
		out.Destination = dest
	}
	out.State = StateDone
	out.Duration = time.Since(out.Started)

	if p.recorder != nil {
		_, err := p.recorder.Append(ctx, history.Entry{
			OutcomeID:    out.ID,
			RecordedAt:   time.Now(),
			SourceName:   out.Name,
			SourcePath:   out.Path,
			Folder:       out.Folder,
			Destination:  out.Destination,
			Category:     out.Category,
			Confidence:   out.Confidence,
			OverrideRule: out.Override,
			RunID:        out.RunID,
		})
		if err != nil {
			logging.WarnWithContext(logger, "history append failed", "history_append_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state directory is writable"),
				logging.String(logging.FieldImpact, "file was moved but is missing from history"),
			)
		}
	}

	logger.Info("file organized",
		logging.String(logging.FieldFolder, out.Folder),
		logging.String("category", out.Category),
		logging.Float64("confidence", out.Confidence),
		logging.String("destination", out.Destination),
		logging.Duration("duration", out.Duration),
	)
	p.notify(out)
	return out, true
}

func (p *Pipeline) decide(path string, size int64) (classifier.Scores, policy.Result, error) {
	vec := p.extractor.Extract(path, size)
	raw, err := p.model.Score(vec)
	if err != nil {
		marker := services.ErrIO
		if errors.Is(err, services.ErrSchemaMismatch) {
			marker = services.ErrSchemaMismatch
		} else if errors.Is(err, services.ErrModelNotReady) {
			marker = services.ErrModelNotReady
		}
		return nil, policy.Result{}, services.Wrap(marker, string(StateClassifying), "score", filepath.Base(path), err)
	}
	decision, err := p.policy.Decide(path, size, raw)
	if err != nil {
		return raw, policy.Result{}, err
	}
	return raw, decision, nil
}

func (p *Pipeline) move(src, desired string) (string, error) {
	var lastErr error
	for range moveAttempts {
		dest, err := fileutil.UniquePath(desired)
		if err != nil {
			return "", services.Wrap(services.ErrIO, string(StateMoving), "resolve conflict", desired, err)
		}
		err = fileutil.MoveFile(src, dest)
		if err == nil {
			return dest, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", services.Wrap(services.ErrIO, string(StateMoving), "move", filepath.Base(src), err)
		}
		lastErr = err
	}
	return "", services.Wrap(services.ErrIO, string(StateMoving), "move", fmt.Sprintf("destination kept changing after %d attempts", moveAttempts), lastErr)
}

func (p *Pipeline) fail(ctx context.Context, out Outcome, err error) Outcome {
	out.Stage = out.State
	out.State = StateFailed
	out.Err = err
	out.Duration = time.Since(out.Started)
	logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "file not organized", "file_failed",
		logging.String(logging.FieldStage, string(out.Stage)),
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
	p.notify(out)
	return out
}

func (p *Pipeline) discard(ctx context.Context, out Outcome, reason string) Outcome {
	out.State = StateDiscarded
	out.Reason = reason
	out.Duration = time.Since(out.Started)
	logging.WithContext(ctx, p.logger).Debug("file discarded",
		logging.String(logging.FieldPath, out.Path),
		logging.String("reason", reason),
	)
	return out
}

func (p *Pipeline) notify(out Outcome) {
	for _, l := range p.listeners {
		l.OnOutcome(out)
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrSchemaMismatch):
		return "the model file does not match this build's feature schema; retrain or replace it"
	case errors.Is(err, services.ErrValidation):
		return "the classifier produced invalid scores; check the model file"
	case errors.Is(err, fs.ErrPermission):
		return "check permissions on the file and destination folder"
	default:
		return "check the file is readable and the destination has free space"
	}
}
