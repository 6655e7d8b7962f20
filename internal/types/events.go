package types

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a progress notification emitted during a run
type EventType string

// Event types emitted by the orchestrator
const (
	EventProgress        EventType = "progress"
	EventJobFound        EventType = "job_found"
	EventContactFound    EventType = "contact_found"
	EventContactEnriched EventType = "contact_enriched"
	EventEmailDrafted    EventType = "email_drafted"
	EventError           EventType = "error"
	EventComplete        EventType = "complete"
)

// Event is one typed progress notification carrying a small payload
type Event struct {
	Type       EventType `json:"type"`
	WorkflowID uuid.UUID `json:"workflow_id"`
	Message    string    `json:"message,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	At         time.Time `json:"at"`
}
