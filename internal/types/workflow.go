package types

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Workflow status constants. The named step states are surfaced while the
// driver loop is inside the corresponding stage; completed/failed/cancelled
// are terminal.
const (
	WorkflowStatusPending          = "pending"
	WorkflowStatusParsingResume    = "parsing_resume"
	WorkflowStatusSearchingJobs    = "searching_jobs"
	WorkflowStatusFindingContacts  = "finding_contacts"
	WorkflowStatusEnrichingContact = "enriching_contact"
	WorkflowStatusDraftingEmails   = "drafting_emails"
	WorkflowStatusCompleted        = "completed"
	WorkflowStatusFailed           = "failed"
	WorkflowStatusCancelled        = "cancelled"
)

// Preferences holds per-run tuning supplied by the caller
type Preferences struct {
	Strategy       Strategy `json:"strategy,omitempty"`
	MaxJobsPerRole int      `json:"max_jobs_per_role,omitempty"`
	Tone           string   `json:"tone,omitempty"`
}

// Progress holds the counters surfaced to status pollers. Counters only ever
// increase while a run is live; cancellation freezes them mid-sequence.
type Progress struct {
	TotalRoles     int    `json:"total_roles"`
	RolesCompleted int    `json:"roles_completed"`
	JobsFound      int    `json:"jobs_found"`
	ContactsFound  int    `json:"contacts_found"`
	EmailsDrafted  int    `json:"emails_drafted"`
	CurrentStep    string `json:"current_step,omitempty"`
	CurrentRole    string `json:"current_role,omitempty"`
}

// WorkflowError is one entry in a workflow's append-only error log
type WorkflowError struct {
	Step       string    `json:"step"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Workflow is one end-to-end orchestrated campaign run
type Workflow struct {
	ID              uuid.UUID          `json:"id"`
	ResumeID        uuid.UUID          `json:"resume_id"`
	TargetRoles     []string           `json:"target_roles"`
	TargetCompanies []string           `json:"target_companies,omitempty"`
	Locations       []string           `json:"locations,omitempty"`
	Preferences     Preferences        `json:"preferences"`
	Status          string             `json:"status"`
	Progress        Progress           `json:"progress"`
	TotalCostUSD    float64            `json:"total_cost_usd"`
	CostBreakdown   map[string]float64 `json:"cost_breakdown,omitempty"`
	Errors          []WorkflowError    `json:"errors,omitempty"`
	JobIDs          []uuid.UUID        `json:"job_ids,omitempty"`
	ContactIDs      []uuid.UUID        `json:"contact_ids,omitempty"`
	EmailIDs        []uuid.UUID        `json:"email_ids,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the workflow has reached a final status
func (w *Workflow) IsTerminal() bool {
	switch w.Status {
	case WorkflowStatusCompleted, WorkflowStatusFailed, WorkflowStatusCancelled:
		return true
	}
	return false
}

// AddCost attributes spend to a capability category and keeps the running
// total equal to the sum of the breakdown.
func (w *Workflow) AddCost(capability string, amountUSD float64) {
	if w.CostBreakdown == nil {
		w.CostBreakdown = make(map[string]float64)
	}
	w.CostBreakdown[capability] += amountUSD
	w.TotalCostUSD += amountUSD
}

// CostConsistent verifies the total equals the sum of the breakdown entries
func (w *Workflow) CostConsistent() bool {
	sum := 0.0
	for _, v := range w.CostBreakdown {
		sum += v
	}
	return math.Abs(sum-w.TotalCostUSD) < 1e-9
}

// RecordError appends to the workflow's error log
func (w *Workflow) RecordError(step, message string) {
	w.Errors = append(w.Errors, WorkflowError{
		Step:       step,
		Message:    message,
		OccurredAt: time.Now(),
	})
}
