package scheduler

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock guards against overlapping batch runs on the local backend. The
// staging record for an artifact has exactly one writer only as long as
// batches do not overlap, so concurrent `lathe batch` invocations must be
// refused rather than interleaved.
type RunLock struct {
	lock *flock.Flock
}

// NewRunLock creates a lock file inside the data directory.
func NewRunLock(dataDir string) *RunLock {
	return &RunLock{lock: flock.New(filepath.Join(dataDir, "batch.lock"))}
}

// TryAcquire attempts the lock without blocking. It reports false when
// another batch run holds it.
func (l *RunLock) TryAcquire() (bool, error) {
	acquired, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire batch lock: %w", err)
	}
	return acquired, nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *RunLock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.lock.Path()
}
