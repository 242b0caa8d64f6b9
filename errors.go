package jobenv

import "github.com/flowmatic/jobenv/internal/sentinel"

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrInvalidConfiguration is returned by NewResourceConfig when the
	// task-manager count or slot count is not positive, or when a base
	// configuration value cannot be parsed. Construction-time contract
	// violations are never retried.
	ErrInvalidConfiguration = sentinel.Error("invalid resource configuration")

	// ErrUnsupportedVariant is returned by Acquire when the selected
	// variant is not a recognized value. The harness fails fast rather
	// than silently falling back to a default; no executor is started.
	ErrUnsupportedVariant = sentinel.Error("unsupported cluster variant")

	// ErrStartupFailed is returned by Acquire when the underlying executor
	// or client construction failed. It wraps the underlying cause; the
	// workspace created for the attempt is released before the error
	// surfaces.
	ErrStartupFailed = sentinel.Error("cluster startup failed")

	// ErrClientDisabled is returned by Client when client support was not
	// enabled at construction time. This is a usage error, checked eagerly
	// even while the harness is active.
	ErrClientDisabled = sentinel.Error("cluster client not enabled; pass WithClient to New")

	// ErrClientUnavailable is returned by Client after Release: the client
	// handle is cleared during teardown and never becomes valid again on
	// the same acquisition.
	ErrClientUnavailable = sentinel.Error("cluster client no longer available")

	// ErrAlreadyAcquired is returned by Acquire on a harness that is
	// already active. One harness serves one sequential test scope.
	ErrAlreadyAcquired = sentinel.Error("harness already acquired")

	// ErrNotAcquired is returned by accessors that are only valid while
	// the harness is active.
	ErrNotAcquired = sentinel.Error("harness not acquired")

	// ErrShutdownTimeout is produced when the executor's asynchronous close
	// does not complete within the configured shutdown timeout. Release
	// never propagates it; the error is logged and teardown continues. The
	// close operation may still complete in the background.
	ErrShutdownTimeout = sentinel.Error("cluster shutdown timed out")
)
