// Package jobenv provides a scoped lifecycle harness for an in-process
// job-execution cluster.
//
// A Harness starts a miniature cluster (a coordinator endpoint plus
// task-manager slot workers) for the duration of a test scope, publishes it
// as the ambient execution context for batch and streaming test code, and
// guarantees deterministic teardown even when startup was partial or
// shutdown fails.
//
// # Basic Usage
//
//	import "github.com/flowmatic/jobenv"
//
//	cfg, err := jobenv.NewResourceConfig(jobenv.NewConfig(), 2, 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h := jobenv.New(cfg, jobenv.WithVariant(jobenv.VariantNew), jobenv.WithClient())
//	if err := h.Acquire(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Release() // Never fails; teardown errors are logged, not returned.
//
//	client, err := h.Client()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	status, err := client.SubmitJob(ctx, "wordcount", 4)
//	// ...
//
// # Variants
//
// Two mutually incompatible construction strategies exist for the same
// logical resource. VariantLegacy builds a shared-process cluster whose
// internal wiring depends on whether the administrative client is enabled;
// VariantNew builds through an explicit configuration with an ephemeral
// coordinator port that is read back after startup. When no variant is
// selected explicitly, VariantFromEnv resolves one from the JOBENV_CODEBASE
// environment variable.
//
// # Parallel Testing
//
// One Harness serves one sequential test scope. Concurrent scopes use
// independent Harness instances; ephemeral port assignment in VariantNew
// keeps concurrently running clusters from colliding.
package jobenv
