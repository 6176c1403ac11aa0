// Package safefile reads and writes small state files without following
// special files and without leaving torn writes behind.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotRegularFile is returned when a path names a symlink, FIFO, device,
// socket or directory instead of a regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// ErrTooLarge is returned when a file exceeds the caller's size limit.
var ErrTooLarge = errors.New("file too large")

// ReadRegular reads a regular file of at most maxSize bytes.
//
// The path is checked with Lstat, then the opened descriptor is checked
// again, so a file swapped for a FIFO between the two cannot block the read.
func ReadRegular(path string, maxSize int64) ([]byte, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), maxSize)
	}

	// One extra byte detects growth between Stat and Read.
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}

// WriteAtomic replaces path with data by writing a temporary file in the
// same directory and renaming it over the target.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
