// Package orchestrator drives one end-to-end outreach campaign run: job
// search, contact discovery, email enrichment, and message drafting, all
// acquired through the quote marketplace with progress and spend tracked on
// the persisted workflow record.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/marketplace"
	"github.com/jonathan/outreach-agent/internal/types"
)

// Sentinel errors surfaced by lifecycle operations
var (
	// ErrValidation means the start parameters were rejected; no workflow
	// record is created
	ErrValidation = errors.New("invalid workflow parameters")
	// ErrWorkflowNotFound means no workflow exists under the given id
	ErrWorkflowNotFound = errors.New("workflow not found")
	// ErrWorkflowTerminal means the workflow already reached a final status
	ErrWorkflowTerminal = errors.New("workflow already finished")
)

// statusChildLimit caps the child collections embedded in a status view
const statusChildLimit = 5

// ListFilter narrows and pages a workflow listing
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Store is the persistence surface the orchestrator needs. Every write
// targets a single record by id.
type Store interface {
	CreateResume(ctx context.Context, resume *types.Resume) error
	GetResume(ctx context.Context, id uuid.UUID) (*types.Resume, error)

	CreateWorkflow(ctx context.Context, wf *types.Workflow) error
	GetWorkflow(ctx context.Context, id uuid.UUID) (*types.Workflow, error)
	UpdateWorkflow(ctx context.Context, wf *types.Workflow) error
	ListWorkflows(ctx context.Context, status string, limit, offset int) ([]types.Workflow, error)

	CreateJob(ctx context.Context, job *types.Job) error
	CreateContact(ctx context.Context, contact *types.Contact) error
	UpdateContactEnrichment(ctx context.Context, id uuid.UUID, email string, confidence float64, source string) error
	CreateEmail(ctx context.Context, email *types.Email) error

	ListJobsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]types.Job, error)
	ListContactsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]types.Contact, error)
	ListEmailsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]types.Email, error)
}

// Config tunes the orchestrator's pacing and defaults
type Config struct {
	// DefaultStrategy is used when the caller does not pick one
	DefaultStrategy types.Strategy
	// MaxJobsPerRole caps the deduplicated job list per target role
	MaxJobsPerRole int
	// PacingInterval spaces consecutive provider calls within a run so
	// providers are not overwhelmed
	PacingInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultStrategy == "" {
		c.DefaultStrategy = types.StrategyCheapest
	}
	if c.MaxJobsPerRole <= 0 {
		c.MaxJobsPerRole = 10
	}
	if c.PacingInterval <= 0 {
		c.PacingInterval = 500 * time.Millisecond
	}
	return c
}

// Orchestrator owns the active-run registry and the pipeline driver. It is
// explicitly constructed and injected into callers; there is no package
// singleton.
type Orchestrator struct {
	store    Store
	market   *marketplace.Marketplace
	hub      *Hub
	runs     *runRegistry
	cfg      Config
	validate *validator.Validate
}

// New creates an orchestrator on top of a store and a quote marketplace
func New(store Store, market *marketplace.Marketplace, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:    store,
		market:   market,
		hub:      NewHub(),
		runs:     newRunRegistry(),
		cfg:      cfg.withDefaults(),
		validate: validator.New(),
	}
}

// Events returns the hub consumers subscribe to
func (o *Orchestrator) Events() *Hub {
	return o.hub
}

// SubscribeEvents registers a listener for one workflow's progress events.
// Subscription happens before the terminal check, so a run finishing in
// between still closes the returned channel; a workflow that is already
// terminal yields a closed channel immediately instead of one that never
// receives anything.
func (o *Orchestrator) SubscribeEvents(ctx context.Context, id uuid.UUID) (<-chan types.Event, error) {
	ch := o.hub.Subscribe(id)

	wf, err := o.store.GetWorkflow(ctx, id)
	if err != nil {
		o.hub.Unsubscribe(id, ch)
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	if wf == nil {
		o.hub.Unsubscribe(id, ch)
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	if wf.IsTerminal() {
		o.hub.Unsubscribe(id, ch)
	}
	return ch, nil
}

// ActiveRuns returns how many workflows are currently executing
func (o *Orchestrator) ActiveRuns() int {
	return o.runs.count()
}

// StartParams are the caller-supplied inputs for one campaign run
type StartParams struct {
	ResumeText      string   `json:"resume_text" validate:"required"`
	CandidateName   string   `json:"candidate_name,omitempty"`
	CandidateEmail  string   `json:"candidate_email,omitempty" validate:"omitempty,email"`
	TargetRoles     []string `json:"target_roles" validate:"required,min=1,dive,required"`
	TargetCompanies []string `json:"target_companies,omitempty"`
	Locations       []string `json:"locations,omitempty"`
	Strategy        string   `json:"strategy,omitempty"`
	MaxJobsPerRole  int      `json:"max_jobs_per_role,omitempty" validate:"omitempty,min=1"`
	Tone            string   `json:"tone,omitempty"`
}

// StartWorkflow validates the parameters, persists a pending workflow, and
// launches the pipeline without blocking. The pipeline's eventual failure is
// recorded on the workflow, never returned here.
func (o *Orchestrator) StartWorkflow(ctx context.Context, params StartParams) (uuid.UUID, error) {
	if err := o.validate.Struct(params); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	strategy, err := types.ParseStrategy(params.Strategy)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	maxJobs := params.MaxJobsPerRole
	if maxJobs <= 0 {
		maxJobs = o.cfg.MaxJobsPerRole
	}

	now := time.Now()
	wf := &types.Workflow{
		ID:              uuid.New(),
		TargetRoles:     params.TargetRoles,
		TargetCompanies: params.TargetCompanies,
		Locations:       params.Locations,
		Preferences: types.Preferences{
			Strategy:       strategy,
			MaxJobsPerRole: maxJobs,
			Tone:           params.Tone,
		},
		Status: types.WorkflowStatusPending,
		Progress: types.Progress{
			TotalRoles: len(params.TargetRoles),
		},
		CostBreakdown: make(map[string]float64),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := o.store.CreateWorkflow(ctx, wf); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	run := o.runs.add(wf.ID)

	go func() {
		// Detached from the caller's context: the run outlives the
		// start request
		defer func() {
			if r := recover(); r != nil {
				o.failWorkflow(context.Background(), wf, fmt.Sprintf("panic: %v", r))
			}
		}()
		o.executeWorkflow(context.Background(), wf, params, run)
	}()

	return wf.ID, nil
}

// CancelWorkflow flips the active run's abort flag and marks the workflow
// cancelled. The running pipeline observes the flag at its loop-boundary
// check points; an in-flight provider call is not interrupted.
func (o *Orchestrator) CancelWorkflow(ctx context.Context, id uuid.UUID) error {
	wf, err := o.store.GetWorkflow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}
	if wf == nil {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	if wf.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrWorkflowTerminal, id, wf.Status)
	}

	if run := o.runs.get(id); run != nil {
		run.cancel()
	}

	wf.Status = types.WorkflowStatusCancelled
	wf.UpdatedAt = time.Now()
	if err := o.store.UpdateWorkflow(ctx, wf); err != nil {
		return fmt.Errorf("failed to mark workflow cancelled: %w", err)
	}

	log.Printf("workflow %s cancellation requested", id)
	return nil
}

// StatusView is the read-only projection returned to status pollers: the
// workflow joined with its resume and truncated child collections.
type StatusView struct {
	Workflow types.Workflow  `json:"workflow"`
	Resume   *types.Resume   `json:"resume,omitempty"`
	Jobs     []types.Job     `json:"jobs,omitempty"`
	Contacts []types.Contact `json:"contacts,omitempty"`
	Emails   []types.Email   `json:"emails,omitempty"`
}

// GetWorkflowStatus returns the current status projection for a workflow
func (o *Orchestrator) GetWorkflowStatus(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	view, err := o.buildView(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(view.Jobs) > statusChildLimit {
		view.Jobs = view.Jobs[:statusChildLimit]
	}
	if len(view.Contacts) > statusChildLimit {
		view.Contacts = view.Contacts[:statusChildLimit]
	}
	if len(view.Emails) > statusChildLimit {
		view.Emails = view.Emails[:statusChildLimit]
	}
	return view, nil
}

// GetWorkflowResults returns the full artifact collections for a workflow
func (o *Orchestrator) GetWorkflowResults(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	return o.buildView(ctx, id)
}

func (o *Orchestrator) buildView(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	wf, err := o.store.GetWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}

	view := &StatusView{Workflow: *wf}

	if wf.ResumeID != uuid.Nil {
		resume, err := o.store.GetResume(ctx, wf.ResumeID)
		if err != nil {
			log.Printf("failed to load resume %s: %v", wf.ResumeID, err)
		} else {
			view.Resume = resume
		}
	}

	if view.Jobs, err = o.store.ListJobsByWorkflow(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	if view.Contacts, err = o.store.ListContactsByWorkflow(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	if view.Emails, err = o.store.ListEmailsByWorkflow(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return view, nil
}

// ListWorkflows returns workflows matching the filter, newest first
func (o *Orchestrator) ListWorkflows(ctx context.Context, filter ListFilter) ([]types.Workflow, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return o.store.ListWorkflows(ctx, filter.Status, filter.Limit, filter.Offset)
}

// emit publishes an event to the hub
func (o *Orchestrator) emit(eventType types.EventType, workflowID uuid.UUID, message string, payload any) {
	o.hub.Publish(types.Event{
		Type:       eventType,
		WorkflowID: workflowID,
		Message:    message,
		Payload:    payload,
		At:         time.Now(),
	})
}
