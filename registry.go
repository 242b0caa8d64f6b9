package jobenv

import "sync"

// ContextRegistry publishes a running executor as the ambient execution
// context for a family of test code. Register and Unregister are its only
// mutators, called exactly once each per harness acquisition; test-authoring
// code reads the current context with Current.
//
// Two process-wide registries exist by default, one for batch-style and one
// for streaming-style test code (BatchContext and StreamContext). Harnesses
// use those unless independent registries are injected with
// WithBatchContext / WithStreamContext.
type ContextRegistry struct {
	mu       sync.Mutex
	executor Executor
	slots    int
	active   bool
}

// NewContextRegistry returns an empty registry.
func NewContextRegistry() *ContextRegistry {
	return &ContextRegistry{}
}

// Register installs exec with the given total slot count as the current
// ambient context, replacing any previous registration.
func (r *ContextRegistry) Register(exec Executor, slots int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executor = exec
	r.slots = slots
	r.active = true
}

// Unregister clears the current ambient context. Safe to call when nothing
// is registered.
func (r *ContextRegistry) Unregister() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executor = nil
	r.slots = 0
	r.active = false
}

// Current returns the registered executor and slot count. ok is false when
// no context is registered.
func (r *ContextRegistry) Current() (exec Executor, slots int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executor, r.slots, r.active
}

// Process-wide default registries.
var (
	batchContext  = NewContextRegistry()
	streamContext = NewContextRegistry()
)

// BatchContext returns the process-wide ambient context registry for
// batch-style test code.
func BatchContext() *ContextRegistry {
	return batchContext
}

// StreamContext returns the process-wide ambient context registry for
// streaming-style test code.
func StreamContext() *ContextRegistry {
	return streamContext
}
