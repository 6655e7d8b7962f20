package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/types"
)

// CreateEmail stores a drafted outreach message
func (db *DB) CreateEmail(ctx context.Context, email *types.Email) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO emails (id, workflow_id, contact_id, subject, body,
		         connection_note, follow_up_message, status, sent_at,
		         source_provider, cost_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		email.ID, email.WorkflowID, email.ContactID, email.Subject, email.Body,
		email.ConnectionNote, email.FollowUpMessage, email.Status, email.SentAt,
		email.SourceProvider, email.CostUSD, email.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email: %w", err)
	}
	return nil
}

// MarkEmailSent transitions a draft to sent and records the send time
func (db *DB) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE emails SET status = $2, sent_at = NOW() WHERE id = $1 AND status = $3`,
		id, types.EmailStatusSent, types.EmailStatusDraft,
	)
	if err != nil {
		return fmt.Errorf("failed to mark email sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("email not found or not a draft: %s", id)
	}
	return nil
}

// ListEmailsByWorkflow retrieves all drafted emails for a workflow
func (db *DB) ListEmailsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]types.Email, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, workflow_id, contact_id, subject, body,
		        connection_note, follow_up_message, status, sent_at,
		        source_provider, cost_usd, created_at
		 FROM emails WHERE workflow_id = $1 ORDER BY created_at ASC`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var emails []types.Email
	for rows.Next() {
		var e types.Email
		if err := rows.Scan(&e.ID, &e.WorkflowID, &e.ContactID, &e.Subject, &e.Body,
			&e.ConnectionNote, &e.FollowUpMessage, &e.Status, &e.SentAt,
			&e.SourceProvider, &e.CostUSD, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, nil
}
