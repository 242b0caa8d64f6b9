package minicluster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowmatic/jobenv/internal/jobstore"
)

// startDispatch launches the job execution workers.
//
// In the default wiring every task manager contributes one worker goroutine
// per slot, all consuming the shared dispatch queue; total concurrency equals
// the cluster's slot count. In shared-dispatch mode (legacy construction
// without a client) a single coordinator-owned loop executes jobs serially
// regardless of slot count; the slot count still bounds admission via the
// parallelism check at submit time.
func (c *Cluster) startDispatch(ctx context.Context) {
	if c.cfg.SharedDispatch {
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			c.runWorker(ctx, c.log.With("dispatch", "shared"))
		}()
		return
	}

	for tm := 0; tm < c.cfg.TaskManagers; tm++ {
		for slot := 0; slot < c.cfg.SlotsPerTaskManager; slot++ {
			log := c.log.With("task_manager", tm, "slot", slot)
			c.workers.Add(1)
			go func() {
				defer c.workers.Done()
				c.runWorker(ctx, log)
			}()
		}
	}
}

// runWorker consumes job ids from the dispatch queue until the context is
// canceled. Jobs are executed to completion; cancellation is only observed
// between jobs, mirroring a slot that finishes its current task before the
// task manager shuts down.
func (c *Cluster) runWorker(ctx context.Context, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-c.queue:
			if err := c.executeJob(id); err != nil {
				log.Warn("job execution", "job", id, "error", err)
			}
		}
	}
}

// executeJob runs one job: RUNNING, then FINISHED. The mini engine performs
// no real computation; the state transitions and their persistence are the
// observable behavior tests rely on.
func (c *Cluster) executeJob(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()

	if err := c.store.UpdateState(ctx, id, jobstore.StateRunning); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	if err := c.store.UpdateState(ctx, id, jobstore.StateFinished); err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	return nil
}
