package jobenv

import (
	"fmt"
	"time"
)

// firstOrSuppressed folds a follow-up teardown error into an earlier one.
// The first error stays the primary (and keeps its unwrap chain); later
// errors are recorded in its message rather than replacing it, so the
// aggregate always points at the failure that happened first.
func firstOrSuppressed(primary, next error) error {
	if next == nil {
		return primary
	}
	if primary == nil {
		return next
	}
	return fmt.Errorf("%w (suppressed: %v)", primary, next)
}

// awaitClose waits for an asynchronous close to deliver its terminal error,
// bounded by the shutdown timeout. On expiry it returns ErrShutdownTimeout
// and stops waiting; the close keeps running in the background but release
// never blocks past the bound.
func awaitClose(done <-chan error, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
