package ingest

import "sync"

// InFlightSet tracks paths between the stability gate and their terminal
// outcome.
type InFlightSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewInFlightSet returns an empty set.
func NewInFlightSet() *InFlightSet {
	return &InFlightSet{paths: make(map[string]struct{})}
}

// Claim inserts path and reports true, or reports false if it is already
// present.
func (s *InFlightSet) Claim(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// Release removes path.
func (s *InFlightSet) Release(path string) {
	s.mu.Lock()
	delete(s.paths, path)
	s.mu.Unlock()
}

// Contains reports whether path is claimed.
func (s *InFlightSet) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of claimed paths.
func (s *InFlightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// pendingSet coalesces watch events for paths whose stability check is
// running. An event for a pending path marks it dirty instead of starting a
// second check.
type pendingSet struct {
	mu    sync.Mutex
	dirty map[string]bool
}

func newPendingSet() *pendingSet {
	return &pendingSet{dirty: make(map[string]bool)}
}

// enter reports true when the caller now owns the check for path.
func (s *pendingSet) enter(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dirty[path]; ok {
		s.dirty[path] = true
		return false
	}
	s.dirty[path] = false
	return true
}

// again reports whether events arrived since the last check. When none did,
// ownership is released.
func (s *pendingSet) again(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty[path] {
		s.dirty[path] = false
		return true
	}
	delete(s.dirty, path)
	return false
}

func (s *pendingSet) leave(path string) {
	s.mu.Lock()
	delete(s.dirty, path)
	s.mu.Unlock()
}
