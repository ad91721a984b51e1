package folders

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"sift/internal/logging"
	"sift/internal/services"
)

// Match describes how a folder name was resolved.
type Match string

const (
	MatchExact           Match = "exact"
	MatchCaseInsensitive Match = "case_insensitive"
	MatchSubstring       Match = "substring"
	MatchCreated         Match = "created"
	MatchFallback        Match = "fallback"
	// MatchNew is reported by Preview for a folder Resolve would create.
	MatchNew             Match = "new"
)

// Resolution is the outcome of Resolve. Warning is set only for fallbacks.
type Resolution struct {
	Dir     string
	Folder  string
	Match   Match
	Warning error
}

// Resolver owns the folder index for one root. All index access goes through
// a single mutex so concurrent resolutions of the same name create at most one
// directory.
type Resolver struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	names []string
}

// NewResolver scans root for existing non-hidden subdirectories.
func NewResolver(root string, logger *slog.Logger) (*Resolver, error) {
	root = filepath.Clean(root)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, services.Wrap(services.ErrFolder, "folders", "scan root", root, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	r := &Resolver{
		root:   root,
		logger: logging.NewComponentLogger(logger, "folders"),
		names:  names,
	}
	r.logger.Debug("folder index loaded", logging.Int("folders", len(names)), logging.String("root", root))
	return r, nil
}

// Root returns the organization root.
func (r *Resolver) Root() string { return r.root }

// Names returns a snapshot of the index.
func (r *Resolver) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.names)
}

// Resolve returns the directory that should receive files for name. It never
// fails: problems fall back to the root with Warning set.
func (r *Resolver) Resolve(name string) Resolution {
	if err := validName(name); err != nil {
		return r.fallback(name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, match, ok := r.lookup(name); ok {
		dir := filepath.Join(r.root, existing)
		// Index entries can go stale if a folder is deleted externally.
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return r.fallback(name, err)
		}
		return Resolution{Dir: dir, Folder: existing, Match: match}
	}

	dir := filepath.Join(r.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return r.fallback(name, err)
	}
	r.insert(name)
	r.logger.Info("created folder", logging.String(logging.FieldFolder, name))
	return Resolution{Dir: dir, Folder: name, Match: MatchCreated}
}

// Preview reports where Resolve would place files for name without touching
// the filesystem or the index.
func (r *Resolver) Preview(name string) Resolution {
	if err := validName(name); err != nil {
		return Resolution{Dir: r.root, Match: MatchFallback, Warning: services.Wrap(services.ErrFolder, "folders", "preview", name, err)}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, match, ok := r.lookup(name); ok {
		return Resolution{Dir: filepath.Join(r.root, existing), Folder: existing, Match: match}
	}
	return Resolution{Dir: filepath.Join(r.root, name), Folder: name, Match: MatchNew}
}

// lookup must be called with mu held.
func (r *Resolver) lookup(name string) (string, Match, bool) {
	if _, found := slices.BinarySearch(r.names, name); found {
		return name, MatchExact, true
	}

	folded := fold(name)
	for _, existing := range r.names {
		if fold(existing) == folded {
			return existing, MatchCaseInsensitive, true
		}
	}

	type candidate struct {
		name    string
		folded  string
		overlap int
	}
	var best *candidate
	for _, existing := range r.names {
		ef := fold(existing)
		var overlap int
		switch {
		case strings.Contains(ef, folded):
			overlap = len(folded)
		case strings.Contains(folded, ef):
			overlap = len(ef)
		default:
			continue
		}
		c := candidate{name: existing, folded: ef, overlap: overlap}
		if best == nil || better(c.overlap, c.folded, c.name, best.overlap, best.folded, best.name) {
			best = &c
		}
	}
	if best == nil {
		return "", "", false
	}
	return best.name, MatchSubstring, true
}

// Longest overlap wins, then folded name order, then raw name order.
func better(overlap int, folded, name string, bestOverlap int, bestFolded, bestName string) bool {
	if overlap != bestOverlap {
		return overlap > bestOverlap
	}
	if c := cmp.Compare(folded, bestFolded); c != 0 {
		return c < 0
	}
	return name < bestName
}

func (r *Resolver) insert(name string) {
	i, found := slices.BinarySearch(r.names, name)
	if found {
		return
	}
	r.names = slices.Insert(r.names, i, name)
}

func (r *Resolver) fallback(name string, cause error) Resolution {
	warning := services.Wrap(services.ErrFolder, "folders", "resolve", name, cause)
	logging.WarnWithContext(r.logger, "folder unavailable; using root", "folder_fallback",
		logging.String(logging.FieldFolder, name),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check permissions and free space under the organization root"),
		logging.String(logging.FieldImpact, "file placed directly in the organization root"),
	)
	return Resolution{Dir: r.root, Folder: "", Match: MatchFallback, Warning: warning}
}

func validName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return errors.New("folder name is empty")
	case trimmed == "." || trimmed == "..":
		return fmt.Errorf("folder name %q is not allowed", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("folder name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("folder name %q contains a NUL byte", name)
	}
	return nil
}

func fold(s string) string {
	return cases.Fold().String(s)
}
