package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// LockFile takes an exclusive advisory lock on path, creating the file if
// needed. Every call opens its own descriptor, so callers in the same
// process exclude each other as well as other processes.
func LockFile(ctx context.Context, path string) (unlock func() error, err error) {
	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", path, context.Cause(ctx))
	}
	return fl.Unlock, nil
}
