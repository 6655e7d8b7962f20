package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resume is the candidate profile driving personalization for a run
type Resume struct {
	ID             uuid.UUID `json:"id"`
	CandidateName  string    `json:"candidate_name,omitempty"`
	CandidateEmail string    `json:"candidate_email,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// Job is one posting discovered for a workflow
type Job struct {
	ID             uuid.UUID `json:"id"`
	WorkflowID     uuid.UUID `json:"workflow_id"`
	ExternalID     string    `json:"external_id,omitempty"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location,omitempty"`
	URL            string    `json:"url,omitempty"`
	Description    string    `json:"description,omitempty"`
	SourceProvider string    `json:"source_provider,omitempty"`
	CostUSD        float64   `json:"cost_usd"`
	CreatedAt      time.Time `json:"created_at"`
}

// DedupKey returns the identity used when collapsing duplicate postings.
// The native job identifier wins; without one, title+company stands in.
func (j *Job) DedupKey() string {
	if j.ExternalID != "" {
		return j.ExternalID
	}
	return strings.ToLower(strings.TrimSpace(j.Title)) + "|" + strings.ToLower(strings.TrimSpace(j.Company))
}

// Contact is a person discovered at a hiring company. Enrichment fields
// (email, confidence, source) are the only mutable parts after creation.
type Contact struct {
	ID              uuid.UUID `json:"id"`
	WorkflowID      uuid.UUID `json:"workflow_id"`
	JobID           uuid.UUID `json:"job_id"`
	Name            string    `json:"name"`
	Title           string    `json:"title,omitempty"`
	Company         string    `json:"company,omitempty"`
	ProfileURL      string    `json:"profile_url,omitempty"`
	Email           *string   `json:"email,omitempty"`
	EmailConfidence *float64  `json:"email_confidence,omitempty"`
	EmailSource     *string   `json:"email_source,omitempty"`
	SourceProvider  string    `json:"source_provider,omitempty"`
	CostUSD         float64   `json:"cost_usd"`
	CreatedAt       time.Time `json:"created_at"`
}

// NeedsEnrichment reports whether the contact should go through email
// enrichment. A contact with neither an email nor a profile URL is skipped
// entirely: there is nothing to enrich from.
func (c *Contact) NeedsEnrichment() bool {
	return c.Email == nil && c.ProfileURL != ""
}

// Email status constants
const (
	EmailStatusDraft = "draft"
	EmailStatusSent  = "sent"
)

// Email is the drafted outreach message for one contact: the primary email
// draft plus two short-form variants, merged from whichever generation
// calls succeeded.
type Email struct {
	ID              uuid.UUID  `json:"id"`
	WorkflowID      uuid.UUID  `json:"workflow_id"`
	ContactID       uuid.UUID  `json:"contact_id"`
	Subject         string     `json:"subject,omitempty"`
	Body            string     `json:"body,omitempty"`
	ConnectionNote  string     `json:"connection_note,omitempty"`
	FollowUpMessage string     `json:"follow_up_message,omitempty"`
	Status          string     `json:"status"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	SourceProvider  string     `json:"source_provider,omitempty"`
	CostUSD         float64    `json:"cost_usd"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DedupJobs collapses postings sharing a dedup key, keeping first-seen
// order, and caps the result to limit (0 means no cap).
func DedupJobs(jobs []Job, limit int) []Job {
	seen := make(map[string]bool, len(jobs))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		key := j.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
