package jobenv

import (
	"errors"
	"fmt"
	"time"
)

// ResourceConfig is the immutable description of the desired cluster shape.
// Construct it with NewResourceConfig; the zero value is not usable.
type ResourceConfig struct {
	base            Config
	taskManagers    int
	slotsPerTM      int
	shutdownTimeout time.Duration
}

// ResourceOption adjusts optional ResourceConfig fields during construction.
type ResourceOption func(*ResourceConfig)

// WithShutdownTimeout overrides the shutdown timeout derived from the base
// configuration's KeyRPCTimeout. A zero timeout is allowed and makes Release
// give up on the executor close immediately.
//
// Panics if d is negative.
func WithShutdownTimeout(d time.Duration) ResourceOption {
	if d < 0 {
		panic(fmt.Sprintf("jobenv: shutdown timeout must not be negative, got %v", d))
	}
	return func(rc *ResourceConfig) {
		rc.shutdownTimeout = d
	}
}

// NewResourceConfig builds a validated ResourceConfig.
//
// base may be nil, which is equivalent to an empty Config. taskManagers and
// slotsPerTaskManager must both be >= 1; violations are reported together,
// wrapped in ErrInvalidConfiguration. When no WithShutdownTimeout option is
// given, the shutdown timeout derives from base's KeyRPCTimeout (default
// DefaultRPCTimeout); a malformed value there is also an
// ErrInvalidConfiguration.
//
// The base Config is cloned; later mutation of the caller's map does not
// affect the ResourceConfig.
func NewResourceConfig(base Config, taskManagers, slotsPerTaskManager int, opts ...ResourceOption) (ResourceConfig, error) {
	var errs []error
	if taskManagers < 1 {
		errs = append(errs, fmt.Errorf("task manager count must be >= 1, got %d", taskManagers))
	}
	if slotsPerTaskManager < 1 {
		errs = append(errs, fmt.Errorf("slots per task manager must be >= 1, got %d", slotsPerTaskManager))
	}

	rc := ResourceConfig{
		base:            base.Clone(),
		taskManagers:    taskManagers,
		slotsPerTM:      slotsPerTaskManager,
		shutdownTimeout: -1,
	}
	for _, opt := range opts {
		opt(&rc)
	}

	if rc.shutdownTimeout < 0 {
		d, err := rc.base.GetDuration(KeyRPCTimeout, DefaultRPCTimeout)
		if err != nil {
			errs = append(errs, err)
		}
		rc.shutdownTimeout = d
	}

	if len(errs) > 0 {
		return ResourceConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
	}
	return rc, nil
}

// BaseConfig returns a copy of the base configuration.
func (rc ResourceConfig) BaseConfig() Config {
	return rc.base.Clone()
}

// TaskManagers returns the configured task-manager count.
func (rc ResourceConfig) TaskManagers() int {
	return rc.taskManagers
}

// SlotsPerTaskManager returns the configured slot count per task manager.
func (rc ResourceConfig) SlotsPerTaskManager() int {
	return rc.slotsPerTM
}

// ShutdownTimeout returns the bound on waiting for the executor's
// asynchronous close during Release.
func (rc ResourceConfig) ShutdownTimeout() time.Duration {
	return rc.shutdownTimeout
}

// validate reports whether rc was built through NewResourceConfig.
// The harness constructor uses it to reject zero-value configs.
func (rc ResourceConfig) validate() error {
	if rc.taskManagers < 1 || rc.slotsPerTM < 1 {
		return fmt.Errorf("%w: resource config must be built with NewResourceConfig", ErrInvalidConfiguration)
	}
	if rc.shutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must not be negative", ErrInvalidConfiguration)
	}
	return nil
}
