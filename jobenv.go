package jobenv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flowmatic/jobenv/internal/netutil"
	"github.com/flowmatic/jobenv/internal/workspace"
)

// Harness owns the full lifecycle of one embedded compute cluster scoped to
// a test: Acquire brings the cluster up and publishes it as the ambient
// execution context, Release tears everything down again. A single harness
// serves one acquisition at a time; create separate harnesses for parallel
// tests.
type Harness struct {
	mu sync.Mutex

	cfg            ResourceConfig
	variant        Variant
	enableClient   bool
	baseDir        string
	startupTimeout time.Duration
	batch          *ContextRegistry
	stream         *ContextRegistry

	ports *netutil.PortRegistry
	log   *slog.Logger

	// Active-state fields, populated by Acquire and cleared by Release.
	acquired   bool
	ws         *workspace.Workspace
	executor   Executor
	client     *ClusterClient
	connConfig Config
	slotCount  int
	webUIPort  int
}

// New builds a Harness for the given resource configuration. The harness is
// idle until Acquire is called.
//
// Panics if cfg was not built with NewResourceConfig; options panic on
// invalid values as documented on each.
func New(cfg ResourceConfig, opts ...HarnessOption) *Harness {
	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("jobenv: %v", err))
	}

	o := harnessOptions{
		variant:        VariantFromEnv(),
		baseDir:        filepath.Join(os.TempDir(), DefaultBaseDirName),
		startupTimeout: DefaultStartupTimeout,
		batch:          BatchContext(),
		stream:         StreamContext(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger().With("component", "harness", "variant", o.variant.String())

	return &Harness{
		cfg:            cfg,
		variant:        o.variant,
		enableClient:   o.enableClient,
		baseDir:        o.baseDir,
		startupTimeout: o.startupTimeout,
		batch:          o.batch,
		stream:         o.stream,
		ports:          netutil.NewPortRegistry(log),
		log:            log,
		slotCount:      -1,
		webUIPort:      -1,
	}
}

// Acquire starts the cluster and publishes it as the ambient execution
// context. On success the harness is active: SlotCount, Client,
// ClientConfig, WebUIPort and WorkspacePath become usable, and the batch and
// stream context registries point at the new executor.
//
// Acquire on an already-active harness fails with ErrAlreadyAcquired without
// touching the running cluster. Any startup failure cleans up everything
// created so far (including the workspace) and leaves the harness idle;
// unless the cause is ErrUnsupportedVariant, it is wrapped in
// ErrStartupFailed.
func (h *Harness) Acquire(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.acquired {
		return ErrAlreadyAcquired
	}

	ws, err := workspace.Create(ctx, h.baseDir, h.log)
	if err != nil {
		return fmt.Errorf("%w: create workspace: %w", ErrStartupFailed, err)
	}

	res, err := h.startExecutor(ctx, ws)
	if err != nil {
		if derr := ws.Delete(); derr != nil {
			h.log.Warn("delete workspace after startup failure", "error", derr)
		}
		if errors.Is(err, ErrUnsupportedVariant) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrStartupFailed, err)
	}

	h.ws = ws
	h.executor = res.executor
	h.client = res.client
	h.connConfig = res.connConfig
	h.webUIPort = res.webUIPort
	h.slotCount = h.cfg.TaskManagers() * h.cfg.SlotsPerTaskManager()
	h.acquired = true

	h.batch.Register(h.executor, h.slotCount)
	h.stream.Register(h.executor, h.slotCount)

	h.log.Info("cluster acquired",
		"task_managers", h.cfg.TaskManagers(),
		"slots", h.slotCount,
		"workspace", ws.Path())
	return nil
}

// Release tears the cluster down and returns the harness to idle. It is
// meant for deferred teardown paths, so it never returns an error and never
// panics: every failure along the way is aggregated and logged as a single
// warning instead. Calling Release on an idle harness is a no-op.
//
// Teardown order: the workspace is deleted first (unconditionally, even if
// later steps fail), the ambient context registrations are cleared, the
// client is closed, and finally the executor's asynchronous close is awaited
// bounded by the configured shutdown timeout. The first failure becomes the
// primary logged error; later ones are folded in as suppressed.
func (h *Harness) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.acquired {
		return
	}

	var err error

	if derr := h.ws.Delete(); derr != nil {
		err = firstOrSuppressed(err, fmt.Errorf("delete workspace: %w", derr))
	}
	h.ws = nil

	h.batch.Unregister()
	h.stream.Unregister()

	if h.client != nil {
		if cerr := h.client.Close(); cerr != nil {
			err = firstOrSuppressed(err, fmt.Errorf("close cluster client: %w", cerr))
		}
		h.client = nil
	}

	if werr := awaitClose(h.executor.CloseAsync(), h.cfg.ShutdownTimeout()); werr != nil {
		err = firstOrSuppressed(err, fmt.Errorf("close executor: %w", werr))
	}
	h.executor = nil

	h.connConfig = nil
	h.slotCount = -1
	h.webUIPort = -1
	h.acquired = false

	if err != nil {
		h.log.Warn("cluster release completed with errors", "error", err)
	} else {
		h.log.Info("cluster released")
	}
}

// Variant returns the construction strategy this harness uses.
func (h *Harness) Variant() Variant {
	return h.variant
}

// SlotCount returns the cluster's total execution slot count (task managers
// times slots per task manager), or -1 while the harness is idle.
func (h *Harness) SlotCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slotCount
}

// Client returns the administrative cluster client.
//
// Fails with ErrClientDisabled when the harness was built without
// WithClient, and with ErrClientUnavailable when the harness is idle.
func (h *Harness) Client() (*ClusterClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.enableClient {
		return nil, ErrClientDisabled
	}
	if !h.acquired || h.client == nil {
		return nil, ErrClientUnavailable
	}
	return h.client, nil
}

// ClientConfig returns a copy of the connection descriptor for the running
// cluster (coordinator host and port). Fails with ErrNotAcquired while the
// harness is idle. Available regardless of WithClient; callers can build
// their own connections from it.
func (h *Harness) ClientConfig() (Config, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.acquired {
		return nil, ErrNotAcquired
	}
	return h.connConfig.Clone(), nil
}

// WebUIPort returns the port serving the cluster's web endpoint, or -1 when
// the harness is idle or no web endpoint is enabled.
func (h *Harness) WebUIPort() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.webUIPort
}

// WorkspacePath returns the scratch directory backing the running cluster.
// Fails with ErrNotAcquired while the harness is idle.
func (h *Harness) WorkspacePath() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.acquired {
		return "", ErrNotAcquired
	}
	return h.ws.Path(), nil
}
