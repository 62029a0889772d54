// Package lock serializes scan-and-reindex runs with an advisory exclusive
// lock file. Acquisition never blocks: a second concurrent run must fail
// fast, not queue behind the first.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrHeld reports that another instance already holds the lock.
// The CLI maps it to a distinct exit status.
var ErrHeld = errors.New("another instance holds the lock")

// FileLock is a held advisory lock.
type FileLock struct {
	fl *flock.Flock
}

// Acquire takes the exclusive lock at path without blocking.
// It returns ErrHeld (wrapped) when the lock is already taken.
func Acquire(path string) (*FileLock, error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrHeld)
	}
	return &FileLock{fl: fl}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *FileLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
