package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/outreach-agent/internal/types"
)

// workflowColumns is the column list shared by every workflow SELECT
const workflowColumns = `id, resume_id, target_roles, target_companies, locations,
	        preferences, status, progress, total_cost_usd, cost_breakdown,
	        errors, job_ids, contact_ids, email_ids,
	        created_at, updated_at, completed_at`

// CreateWorkflow stores a new workflow record
func (db *DB) CreateWorkflow(ctx context.Context, wf *types.Workflow) error {
	prefsJSON, progressJSON, costJSON, errorsJSON, jobIDs, contactIDs, emailIDs, err := marshalWorkflowFields(wf)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO workflows (id, resume_id, target_roles, target_companies, locations,
		         preferences, status, progress, total_cost_usd, cost_breakdown,
		         errors, job_ids, contact_ids, email_ids, created_at, updated_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		wf.ID, nilIfZeroUUID(wf.ResumeID), wf.TargetRoles, wf.TargetCompanies, wf.Locations,
		prefsJSON, wf.Status, progressJSON, wf.TotalCostUSD, costJSON,
		errorsJSON, jobIDs, contactIDs, emailIDs, wf.CreatedAt, wf.UpdatedAt, wf.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}
	return nil
}

// UpdateWorkflow replaces the mutable portion of a workflow record
func (db *DB) UpdateWorkflow(ctx context.Context, wf *types.Workflow) error {
	prefsJSON, progressJSON, costJSON, errorsJSON, jobIDs, contactIDs, emailIDs, err := marshalWorkflowFields(wf)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE workflows
		 SET resume_id = $2, preferences = $3, status = $4, progress = $5,
		     total_cost_usd = $6, cost_breakdown = $7, errors = $8,
		     job_ids = $9, contact_ids = $10, email_ids = $11,
		     updated_at = $12, completed_at = $13
		 WHERE id = $1`,
		wf.ID, nilIfZeroUUID(wf.ResumeID), prefsJSON, wf.Status, progressJSON,
		wf.TotalCostUSD, costJSON, errorsJSON,
		jobIDs, contactIDs, emailIDs,
		wf.UpdatedAt, wf.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow by ID
func (db *DB) GetWorkflow(ctx context.Context, id uuid.UUID) (*types.Workflow, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id)

	wf, err := scanWorkflow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return wf, nil
}

// ListWorkflows retrieves workflows newest first, optionally filtered by status
func (db *DB) ListWorkflows(ctx context.Context, status string, limit, offset int) ([]types.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE 1=1`
	args := []any{}
	argNum := 1

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []types.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, *wf)
	}
	return workflows, nil
}

func marshalWorkflowFields(wf *types.Workflow) (prefs, progress, cost, errs, jobIDs, contactIDs, emailIDs []byte, err error) {
	if prefs, err = json.Marshal(wf.Preferences); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if progress, err = json.Marshal(wf.Progress); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal progress: %w", err)
	}
	if cost, err = json.Marshal(wf.CostBreakdown); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal cost breakdown: %w", err)
	}
	if errs, err = json.Marshal(wf.Errors); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal errors: %w", err)
	}
	if jobIDs, err = json.Marshal(wf.JobIDs); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal job ids: %w", err)
	}
	if contactIDs, err = json.Marshal(wf.ContactIDs); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal contact ids: %w", err)
	}
	if emailIDs, err = json.Marshal(wf.EmailIDs); err != nil {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("failed to marshal email ids: %w", err)
	}
	return prefs, progress, cost, errs, jobIDs, contactIDs, emailIDs, nil
}

// scanWorkflow reads one workflow row, decoding the JSONB columns
func scanWorkflow(row pgx.Row) (*types.Workflow, error) {
	var wf types.Workflow
	var resumeID *uuid.UUID
	var prefsJSON, progressJSON, costJSON, errorsJSON, jobIDsJSON, contactIDsJSON, emailIDsJSON []byte

	err := row.Scan(&wf.ID, &resumeID, &wf.TargetRoles, &wf.TargetCompanies, &wf.Locations,
		&prefsJSON, &wf.Status, &progressJSON, &wf.TotalCostUSD, &costJSON,
		&errorsJSON, &jobIDsJSON, &contactIDsJSON, &emailIDsJSON,
		&wf.CreatedAt, &wf.UpdatedAt, &wf.CompletedAt)
	if err != nil {
		return nil, err
	}

	if resumeID != nil {
		wf.ResumeID = *resumeID
	}
	if prefsJSON != nil {
		_ = json.Unmarshal(prefsJSON, &wf.Preferences)
	}
	if progressJSON != nil {
		_ = json.Unmarshal(progressJSON, &wf.Progress)
	}
	if costJSON != nil {
		_ = json.Unmarshal(costJSON, &wf.CostBreakdown)
	}
	if errorsJSON != nil {
		_ = json.Unmarshal(errorsJSON, &wf.Errors)
	}
	if jobIDsJSON != nil {
		_ = json.Unmarshal(jobIDsJSON, &wf.JobIDs)
	}
	if contactIDsJSON != nil {
		_ = json.Unmarshal(contactIDsJSON, &wf.ContactIDs)
	}
	if emailIDsJSON != nil {
		_ = json.Unmarshal(emailIDsJSON, &wf.EmailIDs)
	}
	return &wf, nil
}

// nilIfZeroUUID maps the zero UUID to SQL NULL for nullable foreign keys
func nilIfZeroUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
