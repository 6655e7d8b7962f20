package orchestrator

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// activeRun is the in-process registry entry for one live workflow. The
// abort flag is written by CancelWorkflow and read by the driver loop at its
// cooperative check points.
type activeRun struct {
	cancelled atomic.Bool
}

func (r *activeRun) cancel() { r.cancelled.Store(true) }

func (r *activeRun) isCancelled() bool { return r.cancelled.Load() }

// runRegistry tracks active workflow runs by id
type runRegistry struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*activeRun
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[uuid.UUID]*activeRun)}
}

func (r *runRegistry) add(id uuid.UUID) *activeRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := &activeRun{}
	r.runs[id] = run
	return run
}

func (r *runRegistry) get(id uuid.UUID) *activeRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

func (r *runRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
}

func (r *runRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
