package classifier

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

// Loader opens a model file for a backend.
type Loader func(path string) (*Model, error)

// Backend describes a registry entry.
type Backend struct {
	Name        string
	Aliases     []string
	Implemented bool
}

type entry struct {
	backend Backend
	loader  Loader
}

var registry = struct {
	sync.RWMutex
	entries map[string]*entry
	names   map[string]string
}{
	entries: make(map[string]*entry),
	names:   make(map[string]string),
}

func init() {
	Register("random-forest", LoadForest, "rf")
	RegisterUnimplemented("cnn")
	RegisterUnimplemented("naive-bayes", "nb")
}

// Register adds a backend under name and its aliases. Registering a name
// twice replaces the earlier entry.
func Register(name string, loader Loader, aliases ...string) {
	register(Backend{Name: name, Aliases: aliases, Implemented: true}, loader)
}

// RegisterUnimplemented adds a selectable backend whose Open always fails
// with ErrNotImplemented.
func RegisterUnimplemented(name string, aliases ...string) {
	register(Backend{Name: name, Aliases: aliases}, func(string) (*Model, error) {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, name)
	})
}

func register(b Backend, loader Loader) {
	b.Name = normalizeName(b.Name)
	registry.Lock()
	defer registry.Unlock()
	registry.entries[b.Name] = &entry{backend: b, loader: loader}
	registry.names[b.Name] = b.Name
	for _, alias := range b.Aliases {
		registry.names[normalizeName(alias)] = b.Name
	}
}

// Lookup resolves a backend name or alias.
func Lookup(name string) (Backend, bool) {
	registry.RLock()
	defer registry.RUnlock()
	canonical, ok := registry.names[normalizeName(name)]
	if !ok {
		return Backend{}, false
	}
	e := registry.entries[canonical]
	b := e.backend
	b.Aliases = slices.Clone(b.Aliases)
	return b, true
}

// Backends lists registered backends sorted by name.
func Backends() []Backend {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]Backend, 0, len(registry.entries))
	for _, e := range registry.entries {
		b := e.backend
		b.Aliases = slices.Clone(b.Aliases)
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Backend) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Open loads the model at path with the named backend.
func Open(backend, path string) (*Model, error) {
	registry.RLock()
	canonical, ok := registry.names[normalizeName(backend)]
	var e *entry
	if ok {
		e = registry.entries[canonical]
	}
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if !e.backend.Implemented {
		return e.loader(path)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: model path is empty", ErrNotReady)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: model file not found: %s", ErrNotReady, path)
		}
		return nil, fmt.Errorf("%w: stat model: %w", ErrNotReady, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: model path is a directory: %s", ErrNotReady, path)
	}

	model, err := e.loader(path)
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if model == nil || model.Classifier == nil || model.Schema == nil {
		return nil, fmt.Errorf("%w: backend %s returned an empty model", ErrNotReady, canonical)
	}
	model.Backend = canonical
	model.Path = path
	return model, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
