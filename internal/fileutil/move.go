package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// MoveFile moves src to dst without replacing an existing dst. It hard-links
// then unlinks so the no-clobber check is atomic. When linking is not
// possible (different filesystems, or a filesystem without hard links) it
// falls back to an exclusive verified copy followed by removal of src.
// An occupied dst yields an error matching fs.ErrExist.
func MoveFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "move", Old: src, New: dst, Err: fs.ErrExist}
	}

	err := os.Link(src, dst)
	if err == nil {
		if err := os.Remove(src); err != nil {
			_ = os.Remove(dst)
			return fmt.Errorf("remove source after link: %w", err)
		}
		return nil
	}
	if errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if !linkUnsupported(err) {
		return err
	}

	if err := CopyFileVerified(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

func linkUnsupported(err error) bool {
	return errors.Is(err, unix.EXDEV) ||
		errors.Is(err, unix.EPERM) ||
		errors.Is(err, unix.ENOTSUP) ||
		errors.Is(err, unix.EMLINK)
}
