package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/types"
)

// CreateJob stores a discovered job posting
func (db *DB) CreateJob(ctx context.Context, job *types.Job) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (id, workflow_id, external_id, title, company, location,
		         url, description, source_provider, cost_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.WorkflowID, job.ExternalID, job.Title, job.Company, job.Location,
		job.URL, job.Description, job.SourceProvider, job.CostUSD, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// ListJobsByWorkflow retrieves all jobs for a workflow in discovery order
func (db *DB) ListJobsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, workflow_id, external_id, title, company, location,
		        url, description, source_provider, cost_usd, created_at
		 FROM jobs WHERE workflow_id = $1 ORDER BY created_at ASC`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		var j types.Job
		if err := rows.Scan(&j.ID, &j.WorkflowID, &j.ExternalID, &j.Title, &j.Company, &j.Location,
			&j.URL, &j.Description, &j.SourceProvider, &j.CostUSD, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
