package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockFile = ".joetracker.lock"

// LockDataDir takes an exclusive cross-process lock on dir, retrying until
// ctx is done. The returned func releases it.
func LockDataDir(ctx context.Context, dir string) (unlock func(), err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(dir, lockFile))

	locked, err := fl.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock data dir: %s is busy", dir)
	}
	return func() { _ = fl.Unlock() }, nil
}
