package jobenv

import (
	"fmt"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("jobenv: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("jobenv: %s must not be empty", name))
	}
}

// HarnessOption configures a Harness during construction via New.
//
// Several With* functions panic on invalid input (invalid variants, empty
// paths, non-positive durations). These panics are intentional: option values
// are typically compile-time constants, so an invalid value indicates a
// programmer error rather than a runtime condition. The pattern mirrors
// [regexp.MustCompile] — fail fast during initialization instead of returning
// errors that would be universally fatal anyway.
type HarnessOption func(*harnessOptions)

// harnessOptions collects construction-time settings for a Harness.
type harnessOptions struct {
	variant        Variant
	enableClient   bool
	baseDir        string
	startupTimeout time.Duration
	batch          *ContextRegistry
	stream         *ContextRegistry
}

// WithVariant selects the construction strategy explicitly. Without this
// option the variant resolves from the environment via VariantFromEnv.
//
// Panics if v is not a recognized Variant; an unrecognized variant reaching
// Acquire through other means fails there with ErrUnsupportedVariant.
func WithVariant(v Variant) HarnessOption {
	if !v.IsValid() {
		panic(fmt.Sprintf("jobenv: unknown variant %v", v))
	}
	return func(o *harnessOptions) {
		o.variant = v
	}
}

// WithClient enables the administrative cluster client. Without it, Client
// fails with ErrClientDisabled for the harness's entire lifetime.
//
// Enabling the client changes the legacy construction's internal wiring:
// task managers get separate dispatch loops instead of sharing the
// coordinator's. See VariantLegacy.
func WithClient() HarnessOption {
	return func(o *harnessOptions) {
		o.enableClient = true
	}
}

// WithBaseDir sets the base directory under which workspaces are created.
// Useful in CI environments where multiple projects need isolated scratch
// space. Defaults to a jobenv directory under the system temp directory.
//
// Panics if dir is empty.
func WithBaseDir(dir string) HarnessOption {
	requireNonEmpty("base directory", dir)
	return func(o *harnessOptions) {
		o.baseDir = dir
	}
}

// WithStartupTimeout bounds cluster startup during Acquire, covering
// listener binding and readiness probing. Default: DefaultStartupTimeout.
//
// Panics if d <= 0.
func WithStartupTimeout(d time.Duration) HarnessOption {
	requirePositive("startup timeout", d)
	return func(o *harnessOptions) {
		o.startupTimeout = d
	}
}

// WithBatchContext injects the registry that receives the batch-style
// ambient context registration. Defaults to the process-wide BatchContext.
//
// Panics if r is nil.
func WithBatchContext(r *ContextRegistry) HarnessOption {
	if r == nil {
		panic("jobenv: batch context registry must not be nil")
	}
	return func(o *harnessOptions) {
		o.batch = r
	}
}

// WithStreamContext injects the registry that receives the streaming-style
// ambient context registration. Defaults to the process-wide StreamContext.
//
// Panics if r is nil.
func WithStreamContext(r *ContextRegistry) HarnessOption {
	if r == nil {
		panic("jobenv: stream context registry must not be nil")
	}
	return func(o *harnessOptions) {
		o.stream = r
	}
}
