// Package marketplace implements the quote/bid protocol between the
// orchestrator and its data providers: quote solicitation, multi-provider
// sweeps, strategy-based selection, and settle-and-execute bookkeeping.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/types"
)

// Store is the persistence surface the marketplace needs. Every quote and
// every settlement is durably recorded for the audit trail.
type Store interface {
	CreateOffer(ctx context.Context, offer *types.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*types.Offer, error)
	UpdateOfferStatus(ctx context.Context, id uuid.UUID, status string) error
	CreateReceipt(ctx context.Context, receipt *types.Receipt) error
}

// Marketplace is a registry of provider adapters keyed by capability
type Marketplace struct {
	mu       sync.RWMutex
	byCap    map[string][]providers.Adapter
	byID     map[string]providers.Adapter
	store    Store
	quoteTTL time.Duration
	now      func() time.Time
}

// New creates a marketplace backed by the given store
func New(store Store) *Marketplace {
	return &Marketplace{
		byCap:    make(map[string][]providers.Adapter),
		byID:     make(map[string]providers.Adapter),
		store:    store,
		quoteTTL: types.DefaultQuoteTTL,
		now:      time.Now,
	}
}

// RegisterProvider associates an adapter with a capability category.
// Multiple adapters may coexist under the same capability; real and fallback
// providers bid side by side.
func (m *Marketplace) RegisterProvider(capability string, adapter providers.Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCap[capability] = append(m.byCap[capability], adapter)
	m.byID[adapter.ID()] = adapter
}

// Providers returns the adapters registered under a capability, in
// registration order
func (m *Marketplace) Providers(capability string) []providers.Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]providers.Adapter, len(m.byCap[capability]))
	copy(out, m.byCap[capability])
	return out
}

// RequestQuote asks one specific provider for pricing and persists the
// resulting pending offer before returning it
func (m *Marketplace) RequestQuote(ctx context.Context, providerID string, params map[string]any) (*types.Offer, error) {
	m.mu.RLock()
	adapter, ok := m.byID[providerID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}
	return m.quoteFromAdapter(ctx, adapter, params)
}

func (m *Marketplace) quoteFromAdapter(ctx context.Context, adapter providers.Adapter, params map[string]any) (*types.Offer, error) {
	quote, err := adapter.GetQuote(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote from %s: %w", adapter.ID(), err)
	}

	now := m.now()
	offer := &types.Offer{
		ID:               uuid.New(),
		Capability:       adapter.Capability(),
		ProviderID:       adapter.ID(),
		PriceUSD:         quote.PriceUSD,
		LatencyEstimate:  quote.LatencyEstimateMs,
		ReliabilityScore: quote.ReliabilityScore,
		Status:           types.OfferStatusPending,
		Params:           params,
		ExpiresAt:        now.Add(m.quoteTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := m.store.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to persist offer: %w", err)
	}
	return offer, nil
}

// SweepQuotes requests a quote from every adapter registered under the
// capability. The sweep is best-effort: a failing adapter is logged and
// excluded, never fatal to the sweep.
func (m *Marketplace) SweepQuotes(ctx context.Context, capability string, params map[string]any) ([]*types.Offer, error) {
	adapters := m.Providers(capability)

	offers := make([]*types.Offer, 0, len(adapters))
	for _, adapter := range adapters {
		offer, err := m.quoteFromAdapter(ctx, adapter, params)
		if err != nil {
			log.Printf("quote sweep: provider %s excluded: %v", adapter.ID(), err)
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// PayAndExecute settles a pending offer: validates its state and expiry,
// invokes the adapter with the offer's original parameters, and records the
// outcome. On success the offer is accepted and a receipt is created; on
// adapter failure the offer is rejected and the error re-raised.
func (m *Marketplace) PayAndExecute(ctx context.Context, offerID uuid.UUID) (*providers.Result, *types.Receipt, error) {
	offer, err := m.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if offer == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrOfferNotFound, offerID)
	}

	if offer.Status != types.OfferStatusPending {
		return nil, nil, fmt.Errorf("%w: %s is %s", ErrOfferNotPending, offerID, offer.Status)
	}
	if offer.IsExpired(m.now()) {
		// Expiry is recorded as a side effect of the check
		if uerr := m.store.UpdateOfferStatus(ctx, offer.ID, types.OfferStatusExpired); uerr != nil {
			log.Printf("failed to mark offer %s expired: %v", offer.ID, uerr)
		}
		return nil, nil, fmt.Errorf("%w: %s expired at %s", ErrQuoteExpired, offerID, offer.ExpiresAt.Format(time.RFC3339))
	}

	m.mu.RLock()
	adapter, ok := m.byID[offer.ProviderID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, offer.ProviderID)
	}

	start := m.now()
	result, execErr := adapter.Execute(ctx, offer.Params)
	duration := m.now().Sub(start)

	if execErr != nil {
		if uerr := m.store.UpdateOfferStatus(ctx, offer.ID, types.OfferStatusRejected); uerr != nil {
			log.Printf("failed to mark offer %s rejected: %v", offer.ID, uerr)
		}
		return nil, nil, fmt.Errorf("provider %s execution failed: %w", offer.ProviderID, execErr)
	}

	if err := m.store.UpdateOfferStatus(ctx, offer.ID, types.OfferStatusAccepted); err != nil {
		return nil, nil, fmt.Errorf("failed to accept offer: %w", err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal provider result: %w", err)
	}

	receipt := &types.Receipt{
		ID:            uuid.New(),
		OfferID:       offer.ID,
		ProviderID:    offer.ProviderID,
		AmountPaidUSD: offer.PriceUSD,
		TransactionID: types.NewTransactionID(),
		DurationMs:    duration.Milliseconds(),
		Result:        payload,
		CreatedAt:     m.now(),
	}
	if err := m.store.CreateReceipt(ctx, receipt); err != nil {
		return nil, nil, fmt.Errorf("failed to persist receipt: %w", err)
	}

	return result, receipt, nil
}

// SweepSummary records the prices considered during one sweep-and-settle
type SweepSummary struct {
	Capability       string         `json:"capability"`
	Strategy         types.Strategy `json:"strategy"`
	OffersConsidered int            `json:"offers_considered"`
	SelectedProvider string         `json:"selected_provider"`
	SelectedPriceUSD float64        `json:"selected_price_usd"`
	LowestPriceUSD   float64        `json:"lowest_price_usd"`
	HighestPriceUSD  float64        `json:"highest_price_usd"`
}

// Outcome bundles the result of ExecuteWithQuoteSweep
type Outcome struct {
	Result  *providers.Result
	Receipt *types.Receipt
	Summary SweepSummary
}

// ExecuteWithQuoteSweep composes sweep, selection, loser rejection, and
// settlement. The losing offers are marked rejected before the winner runs.
func (m *Marketplace) ExecuteWithQuoteSweep(ctx context.Context, capability string, params map[string]any, strategy types.Strategy) (*Outcome, error) {
	offers, err := m.SweepQuotes(ctx, capability, params)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, fmt.Errorf("%w for capability %s", ErrNoProviders, capability)
	}

	best, err := SelectBestOffer(offers, strategy)
	if err != nil {
		return nil, err
	}

	summary := SweepSummary{
		Capability:       capability,
		Strategy:         strategy,
		OffersConsidered: len(offers),
		SelectedProvider: best.ProviderID,
		SelectedPriceUSD: best.PriceUSD,
		LowestPriceUSD:   offers[0].PriceUSD,
		HighestPriceUSD:  offers[0].PriceUSD,
	}
	for _, o := range offers {
		if o.PriceUSD < summary.LowestPriceUSD {
			summary.LowestPriceUSD = o.PriceUSD
		}
		if o.PriceUSD > summary.HighestPriceUSD {
			summary.HighestPriceUSD = o.PriceUSD
		}
		if o.ID == best.ID {
			continue
		}
		if uerr := m.store.UpdateOfferStatus(ctx, o.ID, types.OfferStatusRejected); uerr != nil {
			log.Printf("failed to reject losing offer %s: %v", o.ID, uerr)
		}
	}

	result, receipt, err := m.PayAndExecute(ctx, best.ID)
	if err != nil {
		return nil, err
	}

	return &Outcome{Result: result, Receipt: receipt, Summary: summary}, nil
}
