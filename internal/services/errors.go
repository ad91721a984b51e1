package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIO marks unreadable files, failed moves, and other per-file I/O problems.
	ErrIO = errors.New("io error")
	// ErrModelNotReady marks an absent or unloaded classifier. Fatal at startup.
	ErrModelNotReady = errors.New("model not ready")
	// ErrSchemaMismatch marks a feature vector the classifier cannot consume.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrFolder marks a destination folder that could not be created or reused.
	ErrFolder = errors.New("folder error")
	// ErrValidation marks malformed inputs such as invalid probability scores.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err must stop the whole run rather than a single file.
func Fatal(err error) bool {
	return errors.Is(err, ErrModelNotReady)
}

// Kind returns a short label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModelNotReady):
		return "model_not_ready"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrFolder):
		return "folder"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "io"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
