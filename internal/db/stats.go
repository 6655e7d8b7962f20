package db

import (
	"context"
	"fmt"
)

// Stats aggregates marketplace and workflow activity for the stats endpoint
type Stats struct {
	WorkflowsTotal     int64              `json:"workflows_total"`
	WorkflowsByStatus  map[string]int64   `json:"workflows_by_status"`
	JobsTotal          int64              `json:"jobs_total"`
	ContactsTotal      int64              `json:"contacts_total"`
	EmailsTotal        int64              `json:"emails_total"`
	OffersByStatus     map[string]int64   `json:"offers_by_status"`
	ReceiptsTotal      int64              `json:"receipts_total"`
	TotalSpendUSD      float64            `json:"total_spend_usd"`
	SpendByProviderUSD map[string]float64 `json:"spend_by_provider_usd"`
}

// GetStats computes activity counters and spend aggregates
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		WorkflowsByStatus:  make(map[string]int64),
		OffersByStatus:     make(map[string]int64),
		SpendByProviderUSD: make(map[string]float64),
	}

	rows, err := db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM workflows GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan workflow counts: %w", err)
		}
		stats.WorkflowsByStatus[status] = count
		stats.WorkflowsTotal += count
	}
	rows.Close()

	err = db.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM jobs),
		        (SELECT COUNT(*) FROM contacts),
		        (SELECT COUNT(*) FROM emails),
		        (SELECT COUNT(*) FROM receipts),
		        (SELECT COALESCE(SUM(amount_paid_usd), 0) FROM receipts)`,
	).Scan(&stats.JobsTotal, &stats.ContactsTotal, &stats.EmailsTotal,
		&stats.ReceiptsTotal, &stats.TotalSpendUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to count artifacts: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM offers GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan offer counts: %w", err)
		}
		stats.OffersByStatus[status] = count
	}
	rows.Close()

	rows, err = db.pool.Query(ctx,
		`SELECT provider_id, COALESCE(SUM(amount_paid_usd), 0)
		 FROM receipts GROUP BY provider_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate provider spend: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var provider string
		var spend float64
		if err := rows.Scan(&provider, &spend); err != nil {
			return nil, fmt.Errorf("failed to scan provider spend: %w", err)
		}
		stats.SpendByProviderUSD[provider] = spend
	}

	return stats, nil
}
