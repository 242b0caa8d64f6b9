package jobenv_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flowmatic/jobenv"
)

func TestNewResourceConfig(t *testing.T) {
	t.Parallel()

	rc, err := jobenv.NewResourceConfig(nil, 2, 4)
	if err != nil {
		t.Fatalf("NewResourceConfig() error = %v", err)
	}
	if got := rc.TaskManagers(); got != 2 {
		t.Errorf("TaskManagers() = %d, want 2", got)
	}
	if got := rc.SlotsPerTaskManager(); got != 4 {
		t.Errorf("SlotsPerTaskManager() = %d, want 4", got)
	}
	// With an empty base config the shutdown timeout falls back to the
	// default RPC timeout.
	if got := rc.ShutdownTimeout(); got != jobenv.DefaultRPCTimeout {
		t.Errorf("ShutdownTimeout() = %v, want %v", got, jobenv.DefaultRPCTimeout)
	}
}

func TestNewResourceConfigDerivesShutdownTimeout(t *testing.T) {
	t.Parallel()

	base := jobenv.NewConfig().SetDuration(jobenv.KeyRPCTimeout, 3*time.Second)
	rc, err := jobenv.NewResourceConfig(base, 1, 1)
	if err != nil {
		t.Fatalf("NewResourceConfig() error = %v", err)
	}
	if got := rc.ShutdownTimeout(); got != 3*time.Second {
		t.Errorf("ShutdownTimeout() = %v, want 3s (derived from %s)", got, jobenv.KeyRPCTimeout)
	}
}

func TestNewResourceConfigExplicitTimeoutWins(t *testing.T) {
	t.Parallel()

	base := jobenv.NewConfig().SetDuration(jobenv.KeyRPCTimeout, 3*time.Second)
	rc, err := jobenv.NewResourceConfig(base, 1, 1, jobenv.WithShutdownTimeout(500*time.Millisecond))
	if err != nil {
		t.Fatalf("NewResourceConfig() error = %v", err)
	}
	if got := rc.ShutdownTimeout(); got != 500*time.Millisecond {
		t.Errorf("ShutdownTimeout() = %v, want explicit 500ms", got)
	}
}

func TestNewResourceConfigReportsAllViolations(t *testing.T) {
	t.Parallel()

	_, err := jobenv.NewResourceConfig(nil, 0, -1)
	if !errors.Is(err, jobenv.ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}
	// Both violations must be present in a single error, not just the
	// first one encountered.
	msg := err.Error()
	if !strings.Contains(msg, "task manager count") {
		t.Errorf("error %q missing task-manager violation", msg)
	}
	if !strings.Contains(msg, "slots per task manager") {
		t.Errorf("error %q missing slot-count violation", msg)
	}
}

func TestNewResourceConfigMalformedRPCTimeout(t *testing.T) {
	t.Parallel()

	base := jobenv.NewConfig().Set(jobenv.KeyRPCTimeout, "eventually")
	_, err := jobenv.NewResourceConfig(base, 1, 1)
	if !errors.Is(err, jobenv.ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestWithShutdownTimeoutPanicsOnNegative(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for negative shutdown timeout")
		}
	}()
	jobenv.WithShutdownTimeout(-1 * time.Second)
}

func TestWithShutdownTimeoutZeroAllowed(t *testing.T) {
	t.Parallel()

	rc, err := jobenv.NewResourceConfig(nil, 1, 1, jobenv.WithShutdownTimeout(0))
	if err != nil {
		t.Fatalf("NewResourceConfig() error = %v", err)
	}
	if got := rc.ShutdownTimeout(); got != 0 {
		t.Errorf("ShutdownTimeout() = %v, want 0", got)
	}
}

func TestResourceConfigBaseIsCloned(t *testing.T) {
	t.Parallel()

	base := jobenv.NewConfig().Set("k", "v1")
	rc, err := jobenv.NewResourceConfig(base, 1, 1)
	if err != nil {
		t.Fatalf("NewResourceConfig() error = %v", err)
	}

	// Mutating the caller's map after construction must not leak in.
	base.Set("k", "v2")
	if got := rc.BaseConfig().GetString("k", ""); got != "v1" {
		t.Errorf("base config leaked caller mutation: k = %q, want v1", got)
	}

	// BaseConfig returns a copy; mutating it must not affect the next read.
	rc.BaseConfig().Set("k", "v3")
	if got := rc.BaseConfig().GetString("k", ""); got != "v1" {
		t.Errorf("BaseConfig() returned a shared map: k = %q, want v1", got)
	}
}
