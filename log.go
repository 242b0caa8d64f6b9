package jobenv

import (
	"log/slog"
	"sync/atomic"
)

// customLogger is the package-level logger, stored as an atomic pointer to
// allow safe concurrent reads and writes. A nil value means no custom logger
// has been set; logger() falls back to a cached default derived from
// slog.Default().
var customLogger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// jobenv component attribute) so it is not re-created on every logger() call.
// If slog.SetDefault() is called after the first logger() call, the cached
// value will not reflect the change; calling SetLogger(nil) clears the cache
// so the next logger() call re-derives it.
var defaultLogger atomic.Pointer[slog.Logger]

// logger returns the current package-level logger. Safe for concurrent use.
func logger() *slog.Logger {
	if l := customLogger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "jobenv")
	// CompareAndSwap avoids overwriting a concurrently cached value; if
	// another goroutine already stored a logger, use theirs.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// SetLogger replaces the package-level logger used by jobenv, allowing
// applications to integrate jobenv logging with their own infrastructure.
// The provided logger should already carry any desired attributes; jobenv
// adds none.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other jobenv operations. For a
// strict happens-before guarantee, call it before starting goroutines that
// use the library (e.g., in TestMain before m.Run).
func SetLogger(l *slog.Logger) {
	customLogger.Store(l)
	defaultLogger.Store(nil)
}
