package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the lock taken by every mtc process that reads and writes
// the lists
const LockFile = ".lock"

const lockRetry = 50 * time.Millisecond

// ErrLocked means another process kept the data dir locked until ctx ended
var ErrLocked = errors.New("data dir is in use by another mtc process")

// Lock is an exclusive hold on a data dir
type Lock struct {
	f *flock.Flock
}

// LockDir waits for the exclusive lock of dir. Load, modify and Save under
// one Lock so concurrent commands cannot overwrite each other.
func LockDir(ctx context.Context, dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f := flock.New(filepath.Join(dir, LockFile))
	ok, err := f.TryLockContext(ctx, lockRetry)
	if ok {
		return &Lock{f: f}, nil
	}
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return nil, fmt.Errorf("lock %s: %w", dir, err)
}

// Unlock releases the lock. Calling it again is a no-op.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Unlock()
	l.f = nil
	return err
}
