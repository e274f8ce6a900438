// Package filelock provides file locking and atomic write operations for safe
// concurrent access to the index documents across goroutines and processes.
package filelock

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often context-aware lock attempts poll the lock file.
const retryDelay = 10 * time.Millisecond

// FileLock wraps a flock file lock for coordinating access to files.
// A FileLock holds one descriptor; use one FileLock per goroutine.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// LockContext acquires an exclusive lock, giving up when ctx is done.
func (fl *FileLock) LockContext(ctx context.Context) error {
	locked, err := fl.flock.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", fl.path)
	}
	return nil
}

// RLockContext acquires a shared lock, giving up when ctx is done.
// Any number of shared holders may coexist; an exclusive holder excludes them all.
func (fl *FileLock) RLockContext(ctx context.Context) error {
	locked, err := fl.flock.TryRLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire shared lock on %s: %w", fl.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire shared lock on %s", fl.path)
	}
	return nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically using a temp file and rename strategy.
func AtomicWrite(path string, data []byte) error {
	return AtomicWriteFunc(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// AtomicWriteFunc streams content produced by write into path atomically.
// Readers never see partial writes, even if the write is interrupted:
//
//  1. Create a temporary file in the same directory as the target
//  2. Let write fill it, then sync and close it
//  3. Rename the temporary file over the target
//
// If any step fails, the original file (if it exists) remains unchanged.
func AtomicWriteFunc(path string, write func(w io.Writer) error) error {
	staged, err := Stage(path, write)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// StagedFile is complete content waiting beside its target for Commit.
// Staging several files before committing any keeps a failed write from
// replacing only some of them.
type StagedFile struct {
	path     string
	tempPath string
	done     bool
}

// Stage performs steps 1 and 2 of AtomicWriteFunc and leaves the rename to
// Commit. On error nothing is left on disk.
func Stage(path string, write func(w io.Writer) error) (*StagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := write(tempFile); err != nil {
		return nil, fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}

	// Closed and complete; the StagedFile owns it now
	tempFile = nil

	return &StagedFile{path: path, tempPath: tempPath}, nil
}

// Commit renames the staged content over the target. It may be called once.
func (s *StagedFile) Commit() error {
	if s.done {
		return fmt.Errorf("staged write to %s already finished", s.path)
	}
	s.done = true
	if err := os.Rename(s.tempPath, s.path); err != nil {
		os.Remove(s.tempPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", s.path, err)
	}
	return nil
}

// Abort discards the staged content. It is a no-op after Commit.
func (s *StagedFile) Abort() {
	if s.done {
		return
	}
	s.done = true
	os.Remove(s.tempPath)
}
