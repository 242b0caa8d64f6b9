// Package waitutil provides readiness polling for cluster components.
//
// WaitReady repeatedly invokes a caller-supplied check until it reports ready,
// a fatal error occurs, the component shuts down, or the timeout elapses.
package waitutil
