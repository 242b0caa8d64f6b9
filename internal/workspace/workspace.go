package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/flowmatic/jobenv/internal/fileutil"
)

// lockRetryInterval is the interval between consecutive attempts to acquire
// the workspace file lock. 50ms balances responsiveness (low wait after the
// holder releases) against CPU overhead from busy-polling.
const lockRetryInterval = 50 * time.Millisecond

// lockFileName is the name of the lock file created inside each workspace.
const lockFileName = ".jobenv.lock"

// Workspace is a scratch directory exclusively owned by one harness.
// It is not safe for concurrent use; the owning harness serializes
// Create and Delete through its own lifecycle.
type Workspace struct {
	path string
	lock *flock.Flock
	log  *slog.Logger
}

// Create makes a fresh scratch directory under baseDir and takes an exclusive
// file lock inside it. baseDir is created first if it does not exist. The
// context bounds lock acquisition; in practice the lock is uncontended because
// the directory name is unique, so acquisition is immediate.
func Create(ctx context.Context, baseDir string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fileutil.EnsureDir(baseDir); err != nil {
		return nil, fmt.Errorf("ensure workspace base: %w", err)
	}

	path, err := os.MkdirTemp(baseDir, "jobenv-")
	if err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	fl := flock.New(filepath.Join(path, lockFileName))
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil || !locked {
		// Remove the half-created directory so a failed acquisition leaves
		// nothing behind.
		if rmErr := fileutil.RemoveDir(path); rmErr != nil {
			logger.Warn("cleanup workspace after lock failure", "path", path, "error", rmErr)
		}
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock workspace %s: %w", path, err)
	}

	return &Workspace{path: path, lock: fl, log: logger}, nil
}

// Path returns the workspace directory path.
func (w *Workspace) Path() string {
	return w.path
}

// Join returns a path inside the workspace.
func (w *Workspace) Join(elem ...string) string {
	return filepath.Join(append([]string{w.path}, elem...)...)
}

// Delete releases the file lock and removes the directory tree. It is
// idempotent: repeated calls after a successful delete return nil. The error
// return is informational; callers log it and continue teardown regardless.
func (w *Workspace) Delete() error {
	if w.lock != nil {
		// Close releases the lock and the descriptor. The lock file itself
		// is removed together with the directory below.
		if err := w.lock.Close(); err != nil {
			w.log.Debug("release workspace lock", "path", w.path, "error", err)
		}
		w.lock = nil
	}
	if w.path == "" {
		return nil
	}
	path := w.path
	w.path = ""
	if err := fileutil.RemoveDir(path); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}
