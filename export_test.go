package jobenv

import (
	"context"
	"time"

	"github.com/flowmatic/jobenv/internal/workspace"
)

// OptionsSnapshot holds a copy of harnessOptions fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the options without accessing internals.
type OptionsSnapshot struct {
	Variant        Variant
	EnableClient   bool
	BaseDir        string
	StartupTimeout time.Duration
	Batch          *ContextRegistry
	Stream         *ContextRegistry
}

// ApplyOptionsForTesting applies the given options to a zero options struct
// and returns a snapshot of the result. This tests the option closures
// directly without constructing a harness.
func ApplyOptionsForTesting(opts ...HarnessOption) OptionsSnapshot {
	var o harnessOptions
	for _, opt := range opts {
		opt(&o)
	}

	return OptionsSnapshot{
		Variant:        o.variant,
		EnableClient:   o.enableClient,
		BaseDir:        o.baseDir,
		StartupTimeout: o.startupTimeout,
		Batch:          o.batch,
		Stream:         o.stream,
	}
}

// SetVariantForTesting overrides the harness variant after construction,
// bypassing the WithVariant validity check. Used to drive Acquire into the
// unsupported-variant path, which is unreachable through the public API.
func (h *Harness) SetVariantForTesting(v Variant) {
	h.variant = v
}

// ActivateForTesting marks h active with the given executor and a real
// workspace, bypassing cluster startup. It lets tests exercise Release
// against executor fakes, such as one whose close never completes.
func (h *Harness) ActivateForTesting(exec Executor) error {
	ws, err := workspace.Create(context.Background(), h.baseDir, h.log)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.ws = ws
	h.executor = exec
	h.connConfig = NewConfig()
	h.slotCount = h.cfg.TaskManagers() * h.cfg.SlotsPerTaskManager()
	h.webUIPort = -1
	h.acquired = true
	h.batch.Register(exec, h.slotCount)
	h.stream.Register(exec, h.slotCount)
	return nil
}

// FirstOrSuppressedForTesting exposes the teardown error aggregation.
func FirstOrSuppressedForTesting(primary, next error) error {
	return firstOrSuppressed(primary, next)
}

// AwaitCloseForTesting exposes the bounded close wait.
func AwaitCloseForTesting(done <-chan error, timeout time.Duration) error {
	return awaitClose(done, timeout)
}
