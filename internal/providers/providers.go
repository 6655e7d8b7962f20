// Package providers defines the capability contract every data provider
// adapter implements: quote estimation and execution. The marketplace treats
// real, fallback, and mock adapters uniformly through this contract.
package providers

import "context"

// Quote is a provider's pricing estimate for one capability request
type Quote struct {
	PriceUSD          float64        `json:"price_usd"`
	LatencyEstimateMs *int64         `json:"latency_estimate_ms,omitempty"`
	ReliabilityScore  *float64       `json:"reliability_score,omitempty"`
	Capabilities      []string       `json:"capabilities,omitempty"`
	Params            map[string]any `json:"params,omitempty"` // echoed request parameters
}

// Adapter is the uniform contract for one data provider
type Adapter interface {
	// ID returns the provider identifier used for offer bookkeeping
	ID() string
	// Capability returns the capability category this adapter fulfills
	Capability() string
	// GetQuote estimates price, latency and reliability for the given request
	GetQuote(ctx context.Context, params map[string]any) (*Quote, error)
	// Execute performs the work the quote priced and returns a capability-specific result
	Execute(ctx context.Context, params map[string]any) (*Result, error)
}

// JobLead is one posting returned by a job-search provider
type JobLead struct {
	ExternalID  string `json:"external_id,omitempty"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContactLead is one person returned by a people-search provider
type ContactLead struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Company    string `json:"company,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Email      string `json:"email,omitempty"`
}

// MessageDraft is one generated outreach message
type MessageDraft struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// Enrichment is the outcome of a contact-enrichment call
type Enrichment struct {
	Email      string  `json:"email"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Result is the capability-specific outcome of an Execute call. Only the
// field matching the adapter's capability is populated.
type Result struct {
	Jobs       []JobLead     `json:"jobs,omitempty"`
	Contacts   []ContactLead `json:"contacts,omitempty"`
	Draft      *MessageDraft `json:"draft,omitempty"`
	Enrichment *Enrichment   `json:"enrichment,omitempty"`
}
