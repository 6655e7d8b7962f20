package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/outreach-agent/internal/marketplace"
	"github.com/jonathan/outreach-agent/internal/types"
)

// draft variant identifiers passed to message-drafting providers
const (
	variantEmail          = "email"
	variantConnectionNote = "connection_note"
	variantFollowUp       = "follow_up"
)

// executeWorkflow is the top-level pipeline driver for one run. Per-item
// failures are recorded on the workflow's error log and processing moves on;
// only an error escaping this function marks the whole workflow failed.
func (o *Orchestrator) executeWorkflow(ctx context.Context, wf *types.Workflow, params StartParams, run *activeRun) {
	// Pace provider calls within this run
	limiter := rate.NewLimiter(rate.Every(o.cfg.PacingInterval), 1)

	if err := o.persistResume(ctx, wf, params); err != nil {
		o.failWorkflow(ctx, wf, err.Error())
		return
	}

	for _, role := range wf.TargetRoles {
		// Cancellation check point: before each role
		if run.isCancelled() {
			o.finishCancelled(ctx, wf)
			return
		}

		wf.Status = types.WorkflowStatusSearchingJobs
		wf.Progress.CurrentStep = types.WorkflowStatusSearchingJobs
		wf.Progress.CurrentRole = role
		o.saveProgress(ctx, wf, fmt.Sprintf("Searching jobs for %q", role))

		jobs := o.searchJobs(ctx, wf, role, limiter)

		var persisted []types.Job
		for i := range jobs {
			job := &jobs[i]
			if err := o.store.CreateJob(ctx, job); err != nil {
				wf.RecordError("persist_job", err.Error())
				o.emit(types.EventError, wf.ID, "failed to persist job", err.Error())
				continue
			}
			wf.JobIDs = append(wf.JobIDs, job.ID)
			wf.Progress.JobsFound++
			// Counters move immediately after each persist, not in batches
			o.saveProgress(ctx, wf, "")
			o.emit(types.EventJobFound, wf.ID, fmt.Sprintf("%s at %s", job.Title, job.Company), job)
			persisted = append(persisted, *job)
		}

		for i := range persisted {
			// Cancellation check point: before each job
			if run.isCancelled() {
				o.finishCancelled(ctx, wf)
				return
			}
			o.processJob(ctx, wf, &persisted[i], run, limiter)
			if run.isCancelled() {
				o.finishCancelled(ctx, wf)
				return
			}
		}

		wf.Progress.RolesCompleted++
		o.saveProgress(ctx, wf, fmt.Sprintf("Finished role %q", role))
	}

	o.finishCompleted(ctx, wf)
}

// persistResume stores the candidate profile and ties it to the workflow.
// A failure here is fatal to the run.
func (o *Orchestrator) persistResume(ctx context.Context, wf *types.Workflow, params StartParams) error {
	wf.Status = types.WorkflowStatusParsingResume
	wf.Progress.CurrentStep = types.WorkflowStatusParsingResume
	o.saveProgress(ctx, wf, "Parsing resume")

	resume := &types.Resume{
		ID:             uuid.New(),
		CandidateName:  params.CandidateName,
		CandidateEmail: params.CandidateEmail,
		Text:           params.ResumeText,
		CreatedAt:      time.Now(),
	}
	if err := o.store.CreateResume(ctx, resume); err != nil {
		return fmt.Errorf("failed to persist resume: %w", err)
	}
	wf.ResumeID = resume.ID
	o.saveProgress(ctx, wf, "")
	return nil
}

// searchJobs sweeps job-search quotes for every company×location combination
// of one role, executes the chosen offers sequentially, and returns the
// deduplicated, capped job list. Combination failures are logged per item.
func (o *Orchestrator) searchJobs(ctx context.Context, wf *types.Workflow, role string, limiter *rate.Limiter) []types.Job {
	companies := wf.TargetCompanies
	if len(companies) == 0 {
		companies = []string{""}
	}
	locations := wf.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	var collected []types.Job
	for _, company := range companies {
		for _, location := range locations {
			if err := limiter.Wait(ctx); err != nil {
				return collected
			}

			params := map[string]any{"role": role}
			// Unset dimensions are passed as explicit nulls
			params["company"] = nil
			if company != "" {
				params["company"] = company
			}
			params["location"] = nil
			if location != "" {
				params["location"] = location
			}

			outcome, err := o.market.ExecuteWithQuoteSweep(ctx, types.CapabilityJobSearch, params, wf.Preferences.Strategy)
			if err != nil {
				wf.RecordError(types.CapabilityJobSearch, err.Error())
				o.emit(types.EventError, wf.ID, "job search failed", err.Error())
				o.saveProgress(ctx, wf, "")
				continue
			}

			wf.AddCost(types.CapabilityJobSearch, outcome.Receipt.AmountPaidUSD)
			perJobCost := 0.0
			if n := len(outcome.Result.Jobs); n > 0 {
				perJobCost = outcome.Receipt.AmountPaidUSD / float64(n)
			}
			for _, lead := range outcome.Result.Jobs {
				collected = append(collected, types.Job{
					ID:             uuid.New(),
					WorkflowID:     wf.ID,
					ExternalID:     lead.ExternalID,
					Title:          lead.Title,
					Company:        lead.Company,
					Location:       lead.Location,
					URL:            lead.URL,
					Description:    lead.Description,
					SourceProvider: outcome.Receipt.ProviderID,
					CostUSD:        perJobCost,
					CreatedAt:      time.Now(),
				})
			}
		}
	}

	return types.DedupJobs(collected, wf.Preferences.MaxJobsPerRole)
}

// processJob finds contacts for one job, then enriches and drafts messages
// for each of them
func (o *Orchestrator) processJob(ctx context.Context, wf *types.Workflow, job *types.Job, run *activeRun, limiter *rate.Limiter) {
	wf.Status = types.WorkflowStatusFindingContacts
	wf.Progress.CurrentStep = types.WorkflowStatusFindingContacts
	o.saveProgress(ctx, wf, fmt.Sprintf("Finding contacts at %s", job.Company))

	if err := limiter.Wait(ctx); err != nil {
		return
	}

	params := map[string]any{
		"company": job.Company,
		"role":    job.Title,
		"job_url": job.URL,
	}
	outcome, err := o.market.ExecuteWithQuoteSweep(ctx, types.CapabilityPeopleSearch, params, wf.Preferences.Strategy)
	if err != nil {
		wf.RecordError(types.CapabilityPeopleSearch, err.Error())
		o.emit(types.EventError, wf.ID, "people search failed", err.Error())
		o.saveProgress(ctx, wf, "")
		return
	}
	wf.AddCost(types.CapabilityPeopleSearch, outcome.Receipt.AmountPaidUSD)

	perContactCost := 0.0
	if n := len(outcome.Result.Contacts); n > 0 {
		perContactCost = outcome.Receipt.AmountPaidUSD / float64(n)
	}

	var contacts []types.Contact
	for _, lead := range outcome.Result.Contacts {
		contact := types.Contact{
			ID:             uuid.New(),
			WorkflowID:     wf.ID,
			JobID:          job.ID,
			Name:           lead.Name,
			Title:          lead.Title,
			Company:        lead.Company,
			ProfileURL:     lead.ProfileURL,
			SourceProvider: outcome.Receipt.ProviderID,
			CostUSD:        perContactCost,
			CreatedAt:      time.Now(),
		}
		if lead.Email != "" {
			email := lead.Email
			contact.Email = &email
		}
		if err := o.store.CreateContact(ctx, &contact); err != nil {
			wf.RecordError("persist_contact", err.Error())
			o.emit(types.EventError, wf.ID, "failed to persist contact", err.Error())
			continue
		}
		wf.ContactIDs = append(wf.ContactIDs, contact.ID)
		wf.Progress.ContactsFound++
		o.saveProgress(ctx, wf, "")
		o.emit(types.EventContactFound, wf.ID, contact.Name, &contact)
		contacts = append(contacts, contact)
	}

	for i := range contacts {
		// Cancellation check point: before each contact
		if run.isCancelled() {
			return
		}
		o.enrichContact(ctx, wf, &contacts[i])
		o.draftMessages(ctx, wf, &contacts[i])
	}
}

// enrichContact resolves a reachable email for a contact that has a profile
// URL but no address. A contact with neither is skipped untouched, and
// enrichment failures are logged, never fatal.
func (o *Orchestrator) enrichContact(ctx context.Context, wf *types.Workflow, contact *types.Contact) {
	if !contact.NeedsEnrichment() {
		return
	}

	wf.Status = types.WorkflowStatusEnrichingContact
	wf.Progress.CurrentStep = types.WorkflowStatusEnrichingContact
	o.saveProgress(ctx, wf, fmt.Sprintf("Enriching %s", contact.Name))

	params := map[string]any{
		"name":        contact.Name,
		"company":     contact.Company,
		"profile_url": contact.ProfileURL,
	}
	outcome, err := o.market.ExecuteWithQuoteSweep(ctx, types.CapabilityEnrichment, params, wf.Preferences.Strategy)
	if err != nil {
		wf.RecordError(types.CapabilityEnrichment, err.Error())
		o.emit(types.EventError, wf.ID, "enrichment failed", err.Error())
		o.saveProgress(ctx, wf, "")
		return
	}
	wf.AddCost(types.CapabilityEnrichment, outcome.Receipt.AmountPaidUSD)

	enrichment := outcome.Result.Enrichment
	if enrichment == nil || enrichment.Email == "" {
		wf.RecordError(types.CapabilityEnrichment, fmt.Sprintf("no email found for %s", contact.Name))
		o.saveProgress(ctx, wf, "")
		return
	}

	if err := o.store.UpdateContactEnrichment(ctx, contact.ID, enrichment.Email, enrichment.Confidence, enrichment.Source); err != nil {
		wf.RecordError("persist_enrichment", err.Error())
		o.saveProgress(ctx, wf, "")
		return
	}
	contact.Email = &enrichment.Email
	contact.EmailConfidence = &enrichment.Confidence
	contact.EmailSource = &enrichment.Source

	o.saveProgress(ctx, wf, "")
	o.emit(types.EventContactEnriched, wf.ID, contact.Name, contact)
}

// draftMessages fans out three concurrent generation calls for one contact
// (the primary email plus two short-form variants), joins on all of them,
// and persists a single Email merging whichever succeeded.
func (o *Orchestrator) draftMessages(ctx context.Context, wf *types.Workflow, contact *types.Contact) {
	wf.Status = types.WorkflowStatusDraftingEmails
	wf.Progress.CurrentStep = types.WorkflowStatusDraftingEmails
	o.saveProgress(ctx, wf, fmt.Sprintf("Drafting messages for %s", contact.Name))

	variants := []string{variantEmail, variantConnectionNote, variantFollowUp}
	outcomes := make([]*marketplace.Outcome, len(variants))
	failures := make([]error, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			params := map[string]any{
				"variant":      variant,
				"contact_name": contact.Name,
				"contact_role": contact.Title,
				"company":      contact.Company,
				"tone":         wf.Preferences.Tone,
			}
			outcome, err := o.market.ExecuteWithQuoteSweep(gctx, types.CapabilityDrafting, params, wf.Preferences.Strategy)
			if err != nil {
				failures[i] = err
				return nil // partial success is fine; never cancel siblings
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	email := &types.Email{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		ContactID:  contact.ID,
		Status:     types.EmailStatusDraft,
		CreatedAt:  time.Now(),
	}

	succeeded := 0
	for i, outcome := range outcomes {
		if outcome == nil {
			wf.RecordError(types.CapabilityDrafting, fmt.Sprintf("%s: %v", variants[i], failures[i]))
			continue
		}
		succeeded++
		wf.AddCost(types.CapabilityDrafting, outcome.Receipt.AmountPaidUSD)
		email.CostUSD += outcome.Receipt.AmountPaidUSD
		email.SourceProvider = outcome.Receipt.ProviderID

		draft := outcome.Result.Draft
		if draft == nil {
			continue
		}
		switch variants[i] {
		case variantEmail:
			email.Subject = draft.Subject
			email.Body = draft.Body
		case variantConnectionNote:
			email.ConnectionNote = draft.Body
		case variantFollowUp:
			email.FollowUpMessage = draft.Body
		}
	}

	if succeeded == 0 {
		o.emit(types.EventError, wf.ID, "all message drafts failed", contact.Name)
		o.saveProgress(ctx, wf, "")
		return
	}

	if err := o.store.CreateEmail(ctx, email); err != nil {
		wf.RecordError("persist_email", err.Error())
		o.emit(types.EventError, wf.ID, "failed to persist email", err.Error())
		o.saveProgress(ctx, wf, "")
		return
	}
	wf.EmailIDs = append(wf.EmailIDs, email.ID)
	wf.Progress.EmailsDrafted++
	o.saveProgress(ctx, wf, "")
	o.emit(types.EventEmailDrafted, wf.ID, contact.Name, email)
}

// saveProgress persists the workflow and, when a message is given, emits a
// progress event
func (o *Orchestrator) saveProgress(ctx context.Context, wf *types.Workflow, message string) {
	wf.UpdatedAt = time.Now()
	if err := o.store.UpdateWorkflow(ctx, wf); err != nil {
		log.Printf("workflow %s: failed to persist progress: %v", wf.ID, err)
	}
	if message != "" {
		o.emit(types.EventProgress, wf.ID, message, wf.Progress)
	}
}

func (o *Orchestrator) finishCompleted(ctx context.Context, wf *types.Workflow) {
	now := time.Now()
	wf.Status = types.WorkflowStatusCompleted
	wf.Progress.CurrentStep = types.WorkflowStatusCompleted
	wf.Progress.CurrentRole = ""
	wf.CompletedAt = &now
	wf.UpdatedAt = now
	if err := o.store.UpdateWorkflow(ctx, wf); err != nil {
		log.Printf("workflow %s: failed to persist completion: %v", wf.ID, err)
	}

	o.emit(types.EventComplete, wf.ID, "workflow completed", wf.Progress)
	o.runs.remove(wf.ID)
	o.hub.Close(wf.ID)
}

// finishCancelled finalizes a run whose abort flag was observed. Counters
// freeze at their current values; the cancelled status is re-asserted in
// case a progress write raced the cancellation update.
func (o *Orchestrator) finishCancelled(ctx context.Context, wf *types.Workflow) {
	now := time.Now()
	wf.Status = types.WorkflowStatusCancelled
	wf.CompletedAt = &now
	wf.UpdatedAt = now
	if err := o.store.UpdateWorkflow(ctx, wf); err != nil {
		log.Printf("workflow %s: failed to persist cancellation: %v", wf.ID, err)
	}

	o.emit(types.EventComplete, wf.ID, "workflow cancelled", wf.Progress)
	o.runs.remove(wf.ID)
	o.hub.Close(wf.ID)
}

func (o *Orchestrator) failWorkflow(ctx context.Context, wf *types.Workflow, message string) {
	now := time.Now()
	wf.Status = types.WorkflowStatusFailed
	wf.RecordError("workflow", message)
	wf.CompletedAt = &now
	wf.UpdatedAt = now
	if err := o.store.UpdateWorkflow(ctx, wf); err != nil {
		log.Printf("workflow %s: failed to persist failure: %v", wf.ID, err)
	}

	o.emit(types.EventError, wf.ID, message, nil)
	o.emit(types.EventComplete, wf.ID, "workflow failed", wf.Progress)
	o.runs.remove(wf.ID)
	o.hub.Close(wf.ID)
}
