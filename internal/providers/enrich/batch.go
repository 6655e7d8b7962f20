package enrich

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/outreach-agent/internal/providers"
)

// BatchOptions tunes a bulk enrichment pass
type BatchOptions struct {
	// Parallel runs lookups concurrently; sequential otherwise
	Parallel bool
	// MaxConcurrent bounds in-flight lookups when running in parallel
	MaxConcurrent int
	// Delay spaces consecutive lookups when running sequentially
	Delay time.Duration
}

// BatchResult pairs one contact's enrichment outcome with its input index
type BatchResult struct {
	Enrichment *providers.Enrichment
	Err        error
}

// Batch enriches many contacts through one adapter. Per-contact failures are
// recorded in the result slice; the pass always covers every contact.
func Batch(ctx context.Context, adapter providers.Adapter, contacts []providers.ContactLead, opts BatchOptions) []BatchResult {
	results := make([]BatchResult, len(contacts))

	if opts.Parallel {
		limit := opts.MaxConcurrent
		if limit <= 0 {
			limit = 4
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, contact := range contacts {
			g.Go(func() error {
				results[i] = lookupOne(gctx, adapter, contact)
				return nil
			})
		}
		_ = g.Wait()
		return results
	}

	for i, contact := range contacts {
		if i > 0 && opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				results[i] = BatchResult{Err: ctx.Err()}
				continue
			}
		}
		results[i] = lookupOne(ctx, adapter, contact)
	}
	return results
}

func lookupOne(ctx context.Context, adapter providers.Adapter, contact providers.ContactLead) BatchResult {
	result, err := adapter.Execute(ctx, map[string]any{
		"name":        contact.Name,
		"company":     contact.Company,
		"profile_url": contact.ProfileURL,
	})
	if err != nil {
		return BatchResult{Err: err}
	}
	return BatchResult{Enrichment: result.Enrichment}
}
