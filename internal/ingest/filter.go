package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Filter decides which directory entries are candidates for organizing.
type Filter struct {
	patterns map[string]struct{}
	minSize  int64
}

// NewFilter builds a filter. Patterns match a whole file name or its final
// extension, case-insensitively.
func NewFilter(patterns []string, minSize int64) Filter {
	set := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			set[p] = struct{}{}
		}
	}
	return Filter{patterns: set, minSize: minSize}
}

// IgnoredName reports whether a file name is excluded regardless of content.
func (f Filter) IgnoredName(name string) bool {
	base := filepath.Base(name)
	if base == "" || base == "." || strings.HasPrefix(base, ".") {
		return true
	}
	lower := strings.ToLower(base)
	if _, ok := f.patterns[lower]; ok {
		return true
	}
	if ext := filepath.Ext(lower); ext != "" {
		if _, ok := f.patterns[ext]; ok {
			return true
		}
	}
	return false
}

// Admit checks a stat result. It returns a discard reason when the entry is
// not eligible.
func (f Filter) Admit(name string, info fs.FileInfo) (string, bool) {
	if f.IgnoredName(name) {
		return ReasonIgnored, false
	}
	if !info.Mode().IsRegular() {
		return ReasonNotFile, false
	}
	if info.Size() < f.minSize {
		return ReasonTooSmall, false
	}
	return "", true
}
