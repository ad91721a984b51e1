package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"sift/internal/classifier"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckModel loads the model to prove the backend and file are usable.
func CheckModel(backend, path string) Result {
	const name = "Classifier model"
	model, err := classifier.Open(backend, path)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrUnknownBackend):
			return Result{Name: name, Detail: fmt.Sprintf("unknown backend %q", backend)}
		case errors.Is(err, classifier.ErrNotImplemented):
			return Result{Name: name, Detail: fmt.Sprintf("backend %q is not implemented", backend)}
		default:
			return Result{Name: name, Detail: err.Error()}
		}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%s, %d classes, schema %s)", path, model.Backend, len(model.Classes), model.Schema.Version()),
	}
}
