package jobenv

import "time"

// Well-known configuration keys. The base Config handed to NewResourceConfig
// may carry any of these; the variant strategies read and write them when
// deriving cluster and client configurations.
const (
	// KeyRPCTimeout is the cluster-wide RPC timeout. The default shutdown
	// timeout of a ResourceConfig derives from this key when no explicit
	// timeout is supplied.
	KeyRPCTimeout = "cluster.rpc.timeout"

	// KeyCoordinatorHost is the coordinator address published in client
	// configurations.
	KeyCoordinatorHost = "coordinator.rpc.address"

	// KeyCoordinatorPort is the coordinator port published in client
	// configurations. The new construction writes the bound ephemeral port
	// back into this key after startup.
	KeyCoordinatorPort = "coordinator.rpc.port"

	// KeyWebEnabled turns on the web endpoint for legacy construction.
	KeyWebEnabled = "web.enabled"

	// KeyTaskManagerCount mirrors the ResourceConfig task-manager count
	// into the cluster configuration, for consumers that read topology
	// from configuration alone.
	KeyTaskManagerCount = "taskmanager.count"

	// KeyTaskManagerSlots mirrors the ResourceConfig slots-per-task-manager
	// into the cluster configuration.
	KeyTaskManagerSlots = "taskmanager.slots"

	// KeyTmpDirs is the executor scratch directory, always pointed at the
	// harness workspace.
	KeyTmpDirs = "io.tmp.dirs"

	// KeyFSOverride forces the default filesystem scheme override. The new
	// construction enables it when unset because legacy construction always
	// did, and test code expects the behavior.
	KeyFSOverride = "fs.default-scheme-override"

	// KeyManagedMemoryMB is the managed memory per task manager in MiB.
	// The new construction applies DefaultManagedMemoryMB when unset.
	KeyManagedMemoryMB = "taskmanager.managed-memory.mb"
)

// Default values for harness construction.
const (
	// DefaultRPCTimeout is the fallback for KeyRPCTimeout, and therefore
	// the default shutdown timeout of a ResourceConfig built from an empty
	// base configuration.
	DefaultRPCTimeout = 10 * time.Second

	// DefaultStartupTimeout bounds cluster startup (listener binding plus
	// readiness probing) during Acquire.
	DefaultStartupTimeout = 2 * time.Minute

	// DefaultBaseDirName is the directory name under the system temp
	// directory where workspaces are created. The full path is computed as
	// filepath.Join(os.TempDir(), DefaultBaseDirName).
	DefaultBaseDirName = "jobenv"

	// DefaultManagedMemoryMB is the managed memory applied by the new
	// construction when the base configuration does not set
	// KeyManagedMemoryMB. Deliberately small: harness clusters exist to
	// exercise lifecycle and wiring, not throughput.
	DefaultManagedMemoryMB = 80
)
