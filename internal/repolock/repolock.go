// Package repolock serializes magoo invocations against one repository.
// The whole reconciliation pass runs under a single advisory file lock
// scoped to the superproject's .git directory, so two concurrent
// invocations cannot interleave writes to .gitmodules, .git/config, and
// .git/modules.
package repolock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

// LockFileName is the lock file created inside the .git directory.
const LockFileName = "magoo.lock"

// ErrHeld reports that another invocation holds the repository lock.
var ErrHeld = errors.New("repository is locked by another magoo process")

const retryInterval = 250 * time.Millisecond

// Guard holds the repository lock until released.
type Guard struct {
	fl   *flock.Flock
	path string
}

// Acquire takes the advisory lock for the repository whose .git directory is
// gitDir. With timeout zero it blocks until the lock is available (or ctx is
// done); otherwise it gives up after timeout and reports ErrHeld.
func Acquire(ctx context.Context, gitDir string, timeout time.Duration) (*Guard, error) {
	path := filepath.Join(gitDir, LockFileName)
	fl := flock.New(path)

	lockCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	locked, err := fl.TryLockContext(lockCtx, retryInterval)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrHeld, path)
	}
	log.Debug().Str("path", path).Msg("acquired repository lock")
	return &Guard{fl: fl, path: path}, nil
}

// Path returns the lock file path.
func (g *Guard) Path() string { return g.path }

// Release drops the lock. Safe to call on every exit path; releasing twice
// is a no-op.
func (g *Guard) Release() {
	if g == nil || g.fl == nil {
		return
	}
	if err := g.fl.Unlock(); err != nil {
		log.Debug().Err(err).Str("path", g.path).Msg("failed to release repository lock")
	} else {
		log.Debug().Str("path", g.path).Msg("released repository lock")
	}
	g.fl = nil
}
