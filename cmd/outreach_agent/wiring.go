package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/db"
	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/marketplace"
	"github.com/jonathan/outreach-agent/internal/orchestrator"
	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/providers/drafting"
	"github.com/jonathan/outreach-agent/internal/providers/enrich"
	"github.com/jonathan/outreach-agent/internal/providers/jobsearch"
	"github.com/jonathan/outreach-agent/internal/providers/mock"
)

// buildMarketplace registers the provider set on a fresh marketplace. Real
// adapters are wired from config; mock fallbacks keep every capability
// biddable so a sweep never comes up empty.
func buildMarketplace(ctx context.Context, cfg config.Config, store marketplace.Store) (*marketplace.Marketplace, func(), error) {
	market := marketplace.New(store)
	cleanup := func() {}

	// Job search: scraping adapters over configured boards
	if len(cfg.Boards) > 0 {
		scraper := jobsearch.New("board-scraper", jobsearch.Config{Boards: cfg.Boards})
		market.RegisterProvider(scraper.Capability(), scraper)
	}
	jobFallback := mock.JobSearch("jobs-fallback", 0.02,
		providers.JobLead{Title: "Software Engineer", Company: "Example Corp", URL: "https://example.com/jobs/1"})
	market.RegisterProvider(jobFallback.Capability(), jobFallback)

	// People search has no real adapter yet; the mock directory stands in
	peopleFallback := mock.PeopleSearch("people-fallback", 0.08,
		providers.ContactLead{Name: "Hiring Manager", Title: "Engineering Manager", Company: "Example Corp"})
	market.RegisterProvider(peopleFallback.Capability(), peopleFallback)

	// Enrichment: pattern-based email derivation
	enricher := enrich.New("pattern-enricher", enrich.Config{Domains: cfg.Domains})
	market.RegisterProvider(enricher.Capability(), enricher)

	// Drafting: LLM-backed when an API key is available, templated otherwise
	if cfg.APIKey != "" {
		client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		cleanup = func() { _ = client.Close() }
		drafter := drafting.New("gemini-drafter", client, 0)
		market.RegisterProvider(drafter.Capability(), drafter)
	} else {
		draftFallback := mock.Drafter("drafter-fallback", 0.001)
		market.RegisterProvider(draftFallback.Capability(), draftFallback)
	}

	return market, cleanup, nil
}

// buildOrchestrator connects the store and wires the full orchestrator stack
func buildOrchestrator(ctx context.Context, cfg config.Config) (*orchestrator.Orchestrator, *db.DB, func(), error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	market, cleanup, err := buildMarketplace(ctx, cfg, database)
	if err != nil {
		database.Close()
		return nil, nil, nil, err
	}

	orch := orchestrator.New(database, market, orchestrator.Config{
		MaxJobsPerRole: cfg.MaxJobsPerRole,
		PacingInterval: time.Duration(cfg.PacingIntervalMs) * time.Millisecond,
	})

	return orch, database, func() {
		cleanup()
		database.Close()
	}, nil
}
