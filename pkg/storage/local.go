package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/klimadata/euets/pkg/errors"
	"github.com/klimadata/euets/pkg/fsutil"
)

// LocalBackend writes to the local filesystem with a temp-name-then-rename
// discipline so an aborted transfer never leaves a file that looks complete.
type LocalBackend struct{}

// NewLocalBackend creates the local filesystem backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

// Write streams r into location and returns the absolute path.
func (b *LocalBackend) Write(ctx context.Context, location string, r io.Reader) (string, error) {
	absPath, err := filepath.Abs(location)
	if err != nil {
		return "", errors.Wrapf(errors.ErrDestination, "invalid path %s: %v", location, err)
	}
	if err := fsutil.EnsureDir(filepath.Dir(absPath)); err != nil {
		return "", errors.Wrap(errors.ErrDestination, err.Error())
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".euets-*.tmp")
	if err != nil {
		return "", errors.Wrap(errors.ErrDestination, err.Error())
	}
	tmpPath := tmp.Name()

	if err := copyWithContext(ctx, tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(errors.ErrDestination, err.Error())
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(errors.ErrDestination, err.Error())
	}

	if err := fsutil.Move(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(errors.ErrDestination, err.Error())
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return "", errors.Wrap(errors.ErrDestination, err.Error())
	}
	return absPath, nil
}

// Join joins path segments with the OS separator.
func (b *LocalBackend) Join(base, name string) string {
	if base == "" {
		return name
	}
	return filepath.Join(base, name)
}

// IsDir reports whether location is an existing directory or ends with a
// path separator.
func (b *LocalBackend) IsDir(location string) bool {
	if location == "" || location == "." {
		return true
	}
	if len(location) > 0 && location[len(location)-1] == '/' {
		return true
	}
	info, err := os.Stat(location)
	return err == nil && info.IsDir()
}

// copyWithContext copies r into w, checking for cancellation between
// chunks so an aborted transfer stops promptly.
func copyWithContext(ctx context.Context, w io.Writer, r io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "write cancelled")
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return errors.Wrap(errors.ErrDestination, werr.Error())
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
