package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/providers/mock"
	"github.com/jonathan/outreach-agent/internal/types"
)

// memStore is an in-memory Store for tests
type memStore struct {
	mu       sync.Mutex
	offers   map[uuid.UUID]*types.Offer
	receipts map[uuid.UUID]*types.Receipt
}

func newMemStore() *memStore {
	return &memStore{
		offers:   make(map[uuid.UUID]*types.Offer),
		receipts: make(map[uuid.UUID]*types.Receipt),
	}
}

func (s *memStore) CreateOffer(_ context.Context, offer *types.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *offer
	s.offers[offer.ID] = &cp
	return nil
}

func (s *memStore) GetOffer(_ context.Context, id uuid.UUID) (*types.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdateOfferStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return fmt.Errorf("offer not found: %s", id)
	}
	if !o.CanTransitionTo(status) {
		return fmt.Errorf("illegal offer transition %s -> %s", o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) CreateReceipt(_ context.Context, receipt *types.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *receipt
	s.receipts[receipt.ID] = &cp
	return nil
}

func (s *memStore) statusCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, o := range s.offers {
		counts[o.Status]++
	}
	return counts
}

func TestRequestQuote_PersistsPendingOffer(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("indeed", 0.02))

	offer, err := m.RequestQuote(context.Background(), "indeed", map[string]any{"role": "engineer"})
	require.NoError(t, err)
	require.NotNil(t, offer)

	assert.Equal(t, types.OfferStatusPending, offer.Status)
	assert.Equal(t, "indeed", offer.ProviderID)
	assert.Equal(t, types.CapabilityJobSearch, offer.Capability)
	assert.InDelta(t, 0.02, offer.PriceUSD, 1e-9)
	assert.WithinDuration(t, time.Now().Add(types.DefaultQuoteTTL), offer.ExpiresAt, 2*time.Second)

	stored, err := store.GetOffer(context.Background(), offer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "engineer", stored.Params["role"])
}

func TestRequestQuote_UnknownProvider(t *testing.T) {
	m := New(newMemStore())
	_, err := m.RequestQuote(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestSweepQuotes_BestEffort(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("good", 0.02))
	m.RegisterProvider(types.CapabilityJobSearch, &mock.Provider{
		ProviderID: "broken",
		Cap:        types.CapabilityJobSearch,
		QuoteErr:   errors.New("upstream 500"),
	})
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("other", 0.05))

	offers, err := m.SweepQuotes(context.Background(), types.CapabilityJobSearch, nil)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "good", offers[0].ProviderID)
	assert.Equal(t, "other", offers[1].ProviderID)
}

func TestSweepQuotes_NoProvidersRegistered(t *testing.T) {
	m := New(newMemStore())
	offers, err := m.SweepQuotes(context.Background(), types.CapabilityDrafting, nil)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestPayAndExecute_Success(t *testing.T) {
	store := newMemStore()
	m := New(store)
	provider := mock.JobSearch("indeed", 0.02, providers.JobLead{Title: "Engineer", Company: "Acme"})
	m.RegisterProvider(types.CapabilityJobSearch, provider)

	offer, err := m.RequestQuote(context.Background(), "indeed", map[string]any{"role": "engineer"})
	require.NoError(t, err)

	result, receipt, err := m.PayAndExecute(context.Background(), offer.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, receipt)

	assert.Len(t, result.Jobs, 1)
	assert.Equal(t, offer.ID, receipt.OfferID)
	assert.InDelta(t, 0.02, receipt.AmountPaidUSD, 1e-9)
	assert.Contains(t, receipt.TransactionID, "txn_")
	assert.NotEmpty(t, receipt.Result)
	assert.Equal(t, 1, provider.Calls())

	stored, _ := store.GetOffer(context.Background(), offer.ID)
	assert.Equal(t, types.OfferStatusAccepted, stored.Status)
}

func TestPayAndExecute_ExpiredOffer(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("indeed", 0.02))

	offer, err := m.RequestQuote(context.Background(), "indeed", nil)
	require.NoError(t, err)

	// Move the clock past the payment window
	m.now = func() time.Time { return time.Now().Add(2 * types.DefaultQuoteTTL) }

	_, _, err = m.PayAndExecute(context.Background(), offer.ID)
	assert.ErrorIs(t, err, ErrQuoteExpired)

	stored, _ := store.GetOffer(context.Background(), offer.ID)
	assert.Equal(t, types.OfferStatusExpired, stored.Status)
}

func TestPayAndExecute_NotPending(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("indeed", 0.02))

	offer, err := m.RequestQuote(context.Background(), "indeed", nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateOfferStatus(context.Background(), offer.ID, types.OfferStatusRejected))

	_, _, err = m.PayAndExecute(context.Background(), offer.ID)
	assert.ErrorIs(t, err, ErrOfferNotPending)
}

func TestPayAndExecute_UnknownOffer(t *testing.T) {
	m := New(newMemStore())
	_, _, err := m.PayAndExecute(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestPayAndExecute_ExecutionFailureRejectsOffer(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, &mock.Provider{
		ProviderID: "flaky",
		Cap:        types.CapabilityJobSearch,
		PriceUSD:   0.02,
		ExecuteErr: errors.New("scrape blocked"),
	})

	offer, err := m.RequestQuote(context.Background(), "flaky", nil)
	require.NoError(t, err)

	_, _, err = m.PayAndExecute(context.Background(), offer.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape blocked")

	stored, _ := store.GetOffer(context.Background(), offer.ID)
	assert.Equal(t, types.OfferStatusRejected, stored.Status)

	// No receipt for a rejected offer
	assert.Empty(t, store.receipts)
}

func TestExecuteWithQuoteSweep_AcceptsOneRejectsRest(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("a", 0.05))
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("b", 0.02))
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("c", 0.04))

	outcome, err := m.ExecuteWithQuoteSweep(context.Background(), types.CapabilityJobSearch, nil, types.StrategyCheapest)
	require.NoError(t, err)

	assert.Equal(t, "b", outcome.Receipt.ProviderID)
	assert.Equal(t, 3, outcome.Summary.OffersConsidered)
	assert.InDelta(t, 0.02, outcome.Summary.SelectedPriceUSD, 1e-9)
	assert.InDelta(t, 0.02, outcome.Summary.LowestPriceUSD, 1e-9)
	assert.InDelta(t, 0.05, outcome.Summary.HighestPriceUSD, 1e-9)

	counts := store.statusCounts()
	assert.Equal(t, 1, counts[types.OfferStatusAccepted])
	assert.Equal(t, 2, counts[types.OfferStatusRejected])
}

func TestExecuteWithQuoteSweep_CheapestWinsReceiptAmount(t *testing.T) {
	store := newMemStore()
	m := New(store)
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("budget", 0.02))
	m.RegisterProvider(types.CapabilityJobSearch, mock.JobSearch("premium", 0.05))

	outcome, err := m.ExecuteWithQuoteSweep(context.Background(), types.CapabilityJobSearch, nil, types.StrategyCheapest)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, outcome.Receipt.AmountPaidUSD, 1e-9)
	assert.Equal(t, "budget", outcome.Receipt.ProviderID)
}

func TestExecuteWithQuoteSweep_NoProviders(t *testing.T) {
	m := New(newMemStore())
	_, err := m.ExecuteWithQuoteSweep(context.Background(), types.CapabilityEnrichment, nil, types.StrategyCheapest)
	assert.ErrorIs(t, err, ErrNoProviders)
}
