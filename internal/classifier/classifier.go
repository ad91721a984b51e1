package classifier

import (
	"fmt"
	"maps"
	"slices"

	"sift/internal/features"
	"sift/internal/services"
)

var (
	// ErrNotReady reports a missing or unloadable model.
	ErrNotReady = fmt.Errorf("classifier: %w", services.ErrModelNotReady)
	// ErrNotImplemented reports a registered backend with no implementation.
	ErrNotImplemented = fmt.Errorf("classifier: backend not implemented: %w", services.ErrModelNotReady)
	// ErrUnknownBackend reports a backend name absent from the registry.
	ErrUnknownBackend = fmt.Errorf("classifier: unknown backend: %w", services.ErrModelNotReady)
	// ErrSchemaMismatch reports a vector built for a different schema.
	ErrSchemaMismatch = fmt.Errorf("classifier: %w", services.ErrSchemaMismatch)
)

// Scores maps raw category names to probabilities.
type Scores map[string]float64

// Clone returns an independent copy.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Labels returns the category names in sorted order.
func (s Scores) Labels() []string {
	return slices.Sorted(maps.Keys(s))
}

// Classifier scores a feature vector.
type Classifier interface {
	Score(features.Vector) (Scores, error)
}

// Model is a loaded classifier together with its training contract.
type Model struct {
	Classifier

	Backend string
	Path    string
	Version string
	Classes []string
	Schema  *features.Schema
}

// Extractor returns a feature extractor bound to the model schema.
func (m *Model) Extractor() (*features.Extractor, error) {
	if m == nil || m.Classifier == nil {
		return nil, ErrNotReady
	}
	return features.NewExtractor(m.Schema)
}

// CheckVector returns ErrSchemaMismatch when v was not built for schema.
func CheckVector(schema *features.Schema, v features.Vector) error {
	if !schema.Compatible(v.Schema()) {
		return fmt.Errorf("%w: vector schema %q, model schema %q", ErrSchemaMismatch, v.Schema().Version(), schema.Version())
	}
	if v.Len() != schema.Len() {
		return fmt.Errorf("%w: vector has %d fields, model expects %d", ErrSchemaMismatch, v.Len(), schema.Len())
	}
	return nil
}
