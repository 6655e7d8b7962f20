package types

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQuoteTTL is how long a quote remains payable after it is issued
const DefaultQuoteTTL = 60 * time.Second

// Capability constants for provider categories
const (
	CapabilityJobSearch    = "job_search"
	CapabilityPeopleSearch = "people_search"
	CapabilityEnrichment   = "contact_enrichment"
	CapabilityDrafting     = "message_drafting"
)

// OfferStatus constants. An offer only ever moves forward from pending.
const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
	OfferStatusExpired  = "expired"
)

// Offer is a priced, time-boxed bid from one provider for a capability request
type Offer struct {
	ID               uuid.UUID      `json:"id"`
	Capability       string         `json:"capability"`
	ProviderID       string         `json:"provider_id"`
	PriceUSD         float64        `json:"price_usd"`
	LatencyEstimate  *int64         `json:"latency_estimate_ms,omitempty"`
	ReliabilityScore *float64       `json:"reliability_score,omitempty"`
	Status           string         `json:"status"`
	Params           map[string]any `json:"params,omitempty"`
	ExpiresAt        time.Time      `json:"expires_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsExpired reports whether the offer's payment window has passed
func (o *Offer) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// CanTransitionTo reports whether a status change is a legal forward move.
// Terminal statuses never re-open and an offer never returns to pending.
func (o *Offer) CanTransitionTo(status string) bool {
	if o.Status != OfferStatusPending {
		return false
	}
	switch status {
	case OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired:
		return true
	default:
		return false
	}
}

// Receipt is the immutable settlement record for an accepted offer.
// Exactly one receipt exists per accepted offer.
type Receipt struct {
	ID            uuid.UUID `json:"id"`
	OfferID       uuid.UUID `json:"offer_id"`
	ProviderID    string    `json:"provider_id"`
	AmountPaidUSD float64   `json:"amount_paid_usd"`
	TransactionID string    `json:"transaction_id"`
	DurationMs    int64     `json:"duration_ms"`
	Result        []byte    `json:"-"` // raw provider result payload (JSON)
	CreatedAt     time.Time `json:"created_at"`
}

// NewTransactionID generates a settlement transaction identifier.
// Settlement is simulated; the ID exists for audit-trail purposes only.
func NewTransactionID() string {
	return "txn_" + uuid.NewString()
}
