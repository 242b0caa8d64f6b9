package jobenv_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/flowmatic/jobenv"
)

// panicTestCase defines a test case for option validation panic tests.
type panicTestCase struct {
	name     string
	panics   bool
	panicMsg string
	fn       func()
}

// requirePanics calls fn and verifies it panics (or not) with the expected message.
func requirePanics(t *testing.T, shouldPanic bool, wantMsg string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if shouldPanic && r == nil {
			t.Fatal("expected panic but didn't get one")
		}
		if !shouldPanic && r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
		if shouldPanic && r != nil {
			msg := fmt.Sprint(r)
			if msg != wantMsg {
				t.Fatalf("expected panic message %q, got %q", wantMsg, msg)
			}
		}
	}()
	fn()
}

// runPanicTests runs a slice of panic test cases using requirePanics.
func runPanicTests(t *testing.T, tests []panicTestCase) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			requirePanics(t, tt.panics, tt.panicMsg, tt.fn)
		})
	}
}

func TestWithVariantPanicsOnInvalid(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "unknown",
			panics:   true,
			panicMsg: "jobenv: unknown variant Variant(99)",
			fn:       func() { jobenv.WithVariant(jobenv.Variant(99)) },
		},
		{name: "legacy", fn: func() { jobenv.WithVariant(jobenv.VariantLegacy) }},
		{name: "new", fn: func() { jobenv.WithVariant(jobenv.VariantNew) }},
	})
}

func TestWithBaseDirPanicsOnEmpty(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "empty",
			panics:   true,
			panicMsg: "jobenv: base directory must not be empty",
			fn:       func() { jobenv.WithBaseDir("") },
		},
		{name: "valid", fn: func() { jobenv.WithBaseDir("/tmp/somewhere") }},
	})
}

func TestWithStartupTimeoutPanicsOnInvalid(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "zero",
			panics:   true,
			panicMsg: "jobenv: startup timeout must be greater than 0, got 0s",
			fn:       func() { jobenv.WithStartupTimeout(0) },
		},
		{
			name:     "negative",
			panics:   true,
			panicMsg: "jobenv: startup timeout must be greater than 0, got -1s",
			fn:       func() { jobenv.WithStartupTimeout(-1 * time.Second) },
		},
		{name: "valid", fn: func() { jobenv.WithStartupTimeout(1 * time.Second) }},
	})
}

func TestWithContextRegistriesPanicOnNil(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "nil batch",
			panics:   true,
			panicMsg: "jobenv: batch context registry must not be nil",
			fn:       func() { jobenv.WithBatchContext(nil) },
		},
		{
			name:     "nil stream",
			panics:   true,
			panicMsg: "jobenv: stream context registry must not be nil",
			fn:       func() { jobenv.WithStreamContext(nil) },
		},
		{name: "valid batch", fn: func() { jobenv.WithBatchContext(jobenv.NewContextRegistry()) }},
		{name: "valid stream", fn: func() { jobenv.WithStreamContext(jobenv.NewContextRegistry()) }},
	})
}

// TestOptionsApply verifies the option closures mutate the harness options.
func TestOptionsApply(t *testing.T) {
	t.Parallel()

	batch := jobenv.NewContextRegistry()
	stream := jobenv.NewContextRegistry()

	snap := jobenv.ApplyOptionsForTesting(
		jobenv.WithVariant(jobenv.VariantNew),
		jobenv.WithClient(),
		jobenv.WithBaseDir("/tmp/jobenv-test"),
		jobenv.WithStartupTimeout(42*time.Second),
		jobenv.WithBatchContext(batch),
		jobenv.WithStreamContext(stream),
	)

	if snap.Variant != jobenv.VariantNew {
		t.Errorf("Variant = %v, want VariantNew", snap.Variant)
	}
	if !snap.EnableClient {
		t.Error("EnableClient = false, want true")
	}
	if snap.BaseDir != "/tmp/jobenv-test" {
		t.Errorf("BaseDir = %q, want /tmp/jobenv-test", snap.BaseDir)
	}
	if snap.StartupTimeout != 42*time.Second {
		t.Errorf("StartupTimeout = %v, want 42s", snap.StartupTimeout)
	}
	if snap.Batch != batch {
		t.Error("Batch registry not installed")
	}
	if snap.Stream != stream {
		t.Error("Stream registry not installed")
	}
}
