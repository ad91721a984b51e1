package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MaxCollisionSuffix bounds the numeric suffix UniquePath will try.
const MaxCollisionSuffix = 10_000

// ErrTooManyCollisions is returned when every candidate up to
// MaxCollisionSuffix is taken.
var ErrTooManyCollisions = errors.New("too many name collisions")

// UniquePath returns desired if nothing exists there, otherwise the first free
// stem_N.ext for N = 1, 2, ... Each candidate is checked against the
// filesystem at call time, so the result can still race with other writers.
func UniquePath(desired string) (string, error) {
	free, err := available(desired)
	if err != nil {
		return "", err
	}
	if free {
		return desired, nil
	}
	dir := filepath.Dir(desired)
	base := filepath.Base(desired)
	ext := filepath.Ext(base)
	if ext == base {
		ext = ""
	}
	stem := strings.TrimSuffix(base, ext)
	for n := 1; n <= MaxCollisionSuffix; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		free, err := available(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTooManyCollisions, desired)
}

func available(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}
