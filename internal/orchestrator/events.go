package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/types"
)

// eventBuffer is the per-subscriber channel depth. A slow consumer drops
// events rather than stalling the pipeline.
const eventBuffer = 64

// Hub fans typed progress events out to per-workflow subscribers. Consumers
// either subscribe for pushes or poll the materialized status view; the hub
// never blocks the publishing pipeline.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID][]chan types.Event
}

// NewHub creates an empty event hub
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID][]chan types.Event)}
}

// Subscribe registers a listener for one workflow's events. The returned
// channel is closed when the workflow reaches a terminal state.
func (h *Hub) Subscribe(workflowID uuid.UUID) <-chan types.Event {
	ch := make(chan types.Event, eventBuffer)
	h.mu.Lock()
	h.subs[workflowID] = append(h.subs[workflowID], ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel
func (h *Hub) Unsubscribe(workflowID uuid.UUID, ch <-chan types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	channels := h.subs[workflowID]
	for i, c := range channels {
		if c == ch {
			h.subs[workflowID] = append(channels[:i], channels[i+1:]...)
			close(c)
			return
		}
	}
}

// Publish delivers an event to every subscriber of its workflow. Full
// buffers drop the event for that subscriber.
func (h *Hub) Publish(event types.Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	h.mu.Lock()
	channels := h.subs[event.WorkflowID]
	h.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close shuts down all subscriptions for a workflow
func (h *Hub) Close(workflowID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[workflowID] {
		close(ch)
	}
	delete(h.subs, workflowID)
}
