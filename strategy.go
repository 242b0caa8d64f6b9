package jobenv

import (
	"context"
	"fmt"

	"github.com/flowmatic/jobenv/internal/minicluster"
	"github.com/flowmatic/jobenv/internal/workspace"
)

// Executor is the running cluster as the harness sees it: an opaque service
// that can report a reachable address and be closed asynchronously. The
// harness owns the handle exclusively while active.
type Executor interface {
	// Address returns the host and port at which the coordinator is
	// reachable, valid once the executor has started.
	Address() (host string, port int)

	// CloseAsync begins shutdown and returns a channel that receives the
	// terminal close error (nil on clean shutdown).
	CloseAsync() <-chan error
}

// Compile-time check that the mini cluster satisfies the executor contract.
var _ Executor = (*minicluster.Cluster)(nil)

// startResult is what a variant strategy hands back to the harness: the
// executor, the derived connection descriptor, the optional client, and the
// web endpoint port (-1 when unassigned).
type startResult struct {
	executor   Executor
	client     *ClusterClient
	connConfig Config
	webUIPort  int
}

// startExecutor dispatches to the construction strategy selected by the
// harness's variant. An unrecognized variant fails fast with
// ErrUnsupportedVariant; nothing is started and there is no fallback.
func (h *Harness) startExecutor(ctx context.Context, ws *workspace.Workspace) (startResult, error) {
	switch {
	case h.variant == VariantNew:
		return h.startNew(ctx, ws)
	case h.variant.startsLegacy():
		return h.startLegacy(ctx, ws)
	default:
		return startResult{}, fmt.Errorf("%w: %v", ErrUnsupportedVariant, h.variant)
	}
}

// startLegacy builds the shared-process cluster.
//
// The coordinator RPC port (and, if the base configuration enables the web
// endpoint, a web port) is pre-allocated from the harness port registry,
// matching how the legacy construction always published a concrete port
// before startup. Task managers share the coordinator's dispatch loop unless
// the client is enabled: the client only works against separate dispatch, so
// enabling it rewires the cluster internally.
//
// The connection descriptor derives from the coordinator RPC port. When the
// client is enabled it is constructed against that descriptor — the
// coordinator's discovery information — rather than against the executor
// handle.
func (h *Harness) startLegacy(ctx context.Context, ws *workspace.Workspace) (startResult, error) {
	base := h.cfg.BaseConfig()

	webEnabled, err := base.GetBool(KeyWebEnabled, false)
	if err != nil {
		return startResult{}, err
	}

	var rpcPort, webPort int
	if webEnabled {
		rpcPort, webPort, err = h.ports.AllocatePortPair()
	} else {
		rpcPort, err = h.ports.AllocatePort()
	}
	if err != nil {
		return startResult{}, fmt.Errorf("allocate coordinator port: %w", err)
	}

	clusterCfg := minicluster.Config{
		TaskManagers:        h.cfg.TaskManagers(),
		SlotsPerTaskManager: h.cfg.SlotsPerTaskManager(),
		ScratchDir:          ws.Path(),
		RPCPort:             rpcPort,
		WebEnabled:          webEnabled,
		WebPort:             webPort,
		SharedDispatch:      !h.enableClient,
		StartTimeout:        h.startupTimeout,
		Ports:               h.ports,
		Logger:              h.log,
	}

	cluster, err := minicluster.New(clusterCfg)
	if err != nil {
		h.releaseLegacyPorts(rpcPort, webPort)
		return startResult{}, err
	}
	if err := cluster.Start(ctx); err != nil {
		// Cluster.Start tears down and releases its registry ports on
		// failure; nothing to release here.
		return startResult{}, err
	}

	host, port := cluster.Address()
	connConfig := NewConfig().
		Set(KeyCoordinatorHost, host).
		SetInt(KeyCoordinatorPort, port)

	res := startResult{
		executor:   cluster,
		connConfig: connConfig,
		webUIPort:  cluster.WebPort(),
	}

	if h.enableClient {
		client, err := newClusterClient(connConfig)
		if err != nil {
			h.abortStartedExecutor(cluster)
			return startResult{}, fmt.Errorf("construct cluster client: %w", err)
		}
		res.client = client
	}
	return res, nil
}

// startNew builds the cluster through the explicit configuration path.
//
// The coordinator port is left ephemeral (0) so concurrently running harness
// instances never collide; the real bound port is read back from the running
// cluster and written into the published connection descriptor. The
// filesystem-override and
// managed-memory defaults are applied when the base configuration does not
// set them, because the legacy construction always enabled them and test
// code expects the behavior.
func (h *Harness) startNew(ctx context.Context, ws *workspace.Workspace) (startResult, error) {
	base := h.cfg.BaseConfig().
		Set(KeyTmpDirs, ws.Path()).
		SetInt(KeyTaskManagerCount, h.cfg.TaskManagers()).
		SetInt(KeyTaskManagerSlots, h.cfg.SlotsPerTaskManager())
	if !base.Contains(KeyFSOverride) {
		base.SetBool(KeyFSOverride, true)
	}
	if !base.Contains(KeyManagedMemoryMB) {
		base.SetInt(KeyManagedMemoryMB, DefaultManagedMemoryMB)
	}

	clusterCfg := minicluster.Config{
		TaskManagers:        h.cfg.TaskManagers(),
		SlotsPerTaskManager: h.cfg.SlotsPerTaskManager(),
		ScratchDir:          ws.Path(),
		RPCPort:             0, // ephemeral: avoid clashes with concurrent clusters
		StartTimeout:        h.startupTimeout,
		Logger:              h.log,
	}

	cluster, err := minicluster.New(clusterCfg)
	if err != nil {
		return startResult{}, err
	}
	if err := cluster.Start(ctx); err != nil {
		return startResult{}, err
	}

	// Read the bound port back from the running cluster and publish the
	// full derived configuration, not just the endpoint keys.
	host, port := cluster.Address()
	connConfig := base.
		Set(KeyCoordinatorHost, host).
		SetInt(KeyCoordinatorPort, port)

	res := startResult{
		executor:   cluster,
		connConfig: connConfig,
		// The new construction serves the web surface on the coordinator
		// endpoint itself.
		webUIPort: port,
	}

	if h.enableClient {
		// Built directly against the executor handle plus the derived
		// configuration; the descriptor carries everything needed.
		client, err := newClusterClient(connConfig)
		if err != nil {
			h.abortStartedExecutor(cluster)
			return startResult{}, fmt.Errorf("construct cluster client: %w", err)
		}
		res.client = client
	}
	return res, nil
}

// releaseLegacyPorts returns pre-allocated legacy ports to the registry when
// construction failed before the cluster took ownership of them.
func (h *Harness) releaseLegacyPorts(rpcPort, webPort int) {
	if rpcPort != 0 {
		h.ports.Release(rpcPort)
	}
	if webPort != 0 {
		h.ports.Release(webPort)
	}
}

// abortStartedExecutor closes an executor whose dependent construction step
// failed, waiting for the close bound by the shutdown timeout so the
// acquisition error does not leak a running cluster.
func (h *Harness) abortStartedExecutor(exec Executor) {
	if err := awaitClose(exec.CloseAsync(), h.cfg.ShutdownTimeout()); err != nil {
		h.log.Warn("cleanup executor after startup failure", "error", err)
	}
}
