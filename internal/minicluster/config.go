package minicluster

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowmatic/jobenv/internal/netutil"
)

// DefaultHost is the interface the coordinator binds to. Clusters are test
// resources and never listen on external interfaces.
const DefaultHost = "127.0.0.1"

// DefaultStartTimeout bounds coordinator readiness polling when the caller
// does not configure one.
const DefaultStartTimeout = 30 * time.Second

// Config describes the cluster to construct. The zero value is not usable;
// callers populate it (directly or through the harness variant strategies)
// and New validates it.
type Config struct {
	// TaskManagers is the number of task-manager workers. Must be >= 1.
	TaskManagers int
	// SlotsPerTaskManager is the slot count per task manager. Must be >= 1.
	SlotsPerTaskManager int
	// ScratchDir is the workspace directory for the job store and any
	// executor scratch files. Must not be empty.
	ScratchDir string

	// Host to bind the coordinator to. Defaults to DefaultHost.
	Host string
	// RPCPort is the coordinator port. 0 means ephemeral: the kernel picks
	// a free port which is read back after binding. A fixed port (legacy
	// construction) must come from a PortRegistry allocation.
	RPCPort int
	// WebEnabled turns on the web endpoint, a second listener serving the
	// same administrative surface.
	WebEnabled bool
	// WebPort is the web endpoint port; 0 means ephemeral. Only read when
	// WebEnabled is set.
	WebPort int

	// SharedDispatch collapses job dispatch onto a single coordinator-owned
	// loop instead of per-task-manager workers. This is the legacy wiring;
	// it cannot serve an administrative client because submission and
	// execution share one loop (a client blocked on status polling would
	// contend with the job it is waiting for).
	SharedDispatch bool

	// StartTimeout bounds readiness polling during Start.
	// Defaults to DefaultStartTimeout.
	StartTimeout time.Duration

	// Ports, when non-nil, is the registry that RPCPort (and WebPort) were
	// allocated from; the cluster releases them on close.
	Ports *netutil.PortRegistry

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// validate checks all Config invariants and returns an error describing every
// violation found, using errors.Join so callers can fix all problems in one
// pass.
func (c Config) validate() error {
	var errs []error

	if c.TaskManagers < 1 {
		errs = append(errs, fmt.Errorf("task manager count must be >= 1, got %d", c.TaskManagers))
	}
	if c.SlotsPerTaskManager < 1 {
		errs = append(errs, fmt.Errorf("slots per task manager must be >= 1, got %d", c.SlotsPerTaskManager))
	}
	if c.ScratchDir == "" {
		errs = append(errs, errors.New("scratch dir must not be empty"))
	}
	if c.RPCPort < 0 {
		errs = append(errs, fmt.Errorf("rpc port must not be negative, got %d", c.RPCPort))
	}
	if c.WebEnabled && c.WebPort < 0 {
		errs = append(errs, fmt.Errorf("web port must not be negative, got %d", c.WebPort))
	}
	if c.StartTimeout < 0 {
		errs = append(errs, fmt.Errorf("start timeout must not be negative, got %s", c.StartTimeout))
	}

	return errors.Join(errs...)
}

// withDefaults returns a copy of c with optional fields populated.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.StartTimeout == 0 {
		c.StartTimeout = DefaultStartTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// TotalSlots is the cluster-wide slot count.
func (c Config) TotalSlots() int {
	return c.TaskManagers * c.SlotsPerTaskManager
}
