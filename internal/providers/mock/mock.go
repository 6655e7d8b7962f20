// Package mock provides deterministic in-memory provider adapters. They back
// the test suite and double as fallback providers registered alongside real
// adapters so a sweep always has at least one bidder.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/types"
)

// Provider is a configurable adapter for any capability
type Provider struct {
	ProviderID  string
	Cap         string
	PriceUSD    float64
	LatencyMs   *int64
	Reliability *float64
	Result      *providers.Result
	QuoteErr    error
	ExecuteErr  error
	ExecDelay   time.Duration

	calls atomic.Int64
}

// Calls reports how many times Execute has run. Safe to read while executions
// are still in flight, since drafting fans out across goroutines.
func (p *Provider) Calls() int { return int(p.calls.Load()) }

// ID returns the provider identifier
func (p *Provider) ID() string { return p.ProviderID }

// Capability returns the capability category
func (p *Provider) Capability() string { return p.Cap }

// GetQuote returns the configured pricing profile with the request echoed back
func (p *Provider) GetQuote(_ context.Context, params map[string]any) (*providers.Quote, error) {
	if p.QuoteErr != nil {
		return nil, p.QuoteErr
	}
	return &providers.Quote{
		PriceUSD:          p.PriceUSD,
		LatencyEstimateMs: p.LatencyMs,
		ReliabilityScore:  p.Reliability,
		Capabilities:      []string{p.Cap},
		Params:            params,
	}, nil
}

// Execute returns the configured result after the optional delay
func (p *Provider) Execute(ctx context.Context, _ map[string]any) (*providers.Result, error) {
	p.calls.Add(1)
	if p.ExecDelay > 0 {
		select {
		case <-time.After(p.ExecDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.ExecuteErr != nil {
		return nil, p.ExecuteErr
	}
	if p.Result == nil {
		return &providers.Result{}, nil
	}
	return p.Result, nil
}

// Int64 and Float64 are small helpers for building pricing profiles
func Int64(v int64) *int64       { return &v }
func Float64(v float64) *float64 { return &v }

// JobSearch builds a mock job-search provider returning the given leads
func JobSearch(id string, priceUSD float64, jobs ...providers.JobLead) *Provider {
	return &Provider{
		ProviderID:  id,
		Cap:         types.CapabilityJobSearch,
		PriceUSD:    priceUSD,
		LatencyMs:   Int64(1200),
		Reliability: Float64(0.9),
		Result:      &providers.Result{Jobs: jobs},
	}
}

// PeopleSearch builds a mock people-search provider returning the given contacts
func PeopleSearch(id string, priceUSD float64, contacts ...providers.ContactLead) *Provider {
	return &Provider{
		ProviderID:  id,
		Cap:         types.CapabilityPeopleSearch,
		PriceUSD:    priceUSD,
		LatencyMs:   Int64(2500),
		Reliability: Float64(0.85),
		Result:      &providers.Result{Contacts: contacts},
	}
}

// Enricher builds a mock enrichment provider resolving every contact to email
func Enricher(id string, priceUSD float64, email string, confidence float64) *Provider {
	return &Provider{
		ProviderID:  id,
		Cap:         types.CapabilityEnrichment,
		PriceUSD:    priceUSD,
		LatencyMs:   Int64(800),
		Reliability: Float64(0.95),
		Result: &providers.Result{Enrichment: &providers.Enrichment{
			Email:      email,
			Confidence: confidence,
			Source:     id,
		}},
	}
}

// Drafter builds a mock drafting provider producing a templated message
func Drafter(id string, priceUSD float64) *Provider {
	return &Provider{
		ProviderID:  id,
		Cap:         types.CapabilityDrafting,
		PriceUSD:    priceUSD,
		LatencyMs:   Int64(3000),
		Reliability: Float64(0.9),
		Result: &providers.Result{Draft: &providers.MessageDraft{
			Subject: "Exploring opportunities",
			Body:    fmt.Sprintf("Hello,\n\nI came across your team and would love to connect.\n\n(drafted by %s)", id),
		}},
	}
}
