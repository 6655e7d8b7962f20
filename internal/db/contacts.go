package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/types"
)

// CreateContact stores a discovered contact
func (db *DB) CreateContact(ctx context.Context, contact *types.Contact) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO contacts (id, workflow_id, job_id, name, title, company,
		         profile_url, email, email_confidence, email_source,
		         source_provider, cost_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		contact.ID, contact.WorkflowID, contact.JobID, contact.Name, contact.Title, contact.Company,
		contact.ProfileURL, contact.Email, contact.EmailConfidence, contact.EmailSource,
		contact.SourceProvider, contact.CostUSD, contact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// UpdateContactEnrichment records a resolved email on an existing contact.
// Only the enrichment fields are mutable after creation.
func (db *DB) UpdateContactEnrichment(ctx context.Context, id uuid.UUID, email string, confidence float64, source string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE contacts SET email = $2, email_confidence = $3, email_source = $4 WHERE id = $1`,
		id, email, confidence, source,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact enrichment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("contact not found: %s", id)
	}
	return nil
}

// ListContactsByWorkflow retrieves all contacts for a workflow in discovery order
func (db *DB) ListContactsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]types.Contact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, workflow_id, job_id, name, title, company,
		        profile_url, email, email_confidence, email_source,
		        source_provider, cost_usd, created_at
		 FROM contacts WHERE workflow_id = $1 ORDER BY created_at ASC`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []types.Contact
	for rows.Next() {
		var c types.Contact
		if err := rows.Scan(&c.ID, &c.WorkflowID, &c.JobID, &c.Name, &c.Title, &c.Company,
			&c.ProfileURL, &c.Email, &c.EmailConfidence, &c.EmailSource,
			&c.SourceProvider, &c.CostUSD, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}
