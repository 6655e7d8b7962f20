package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/outreach-agent/internal/types"
)

// CreateResume stores a candidate profile
func (db *DB) CreateResume(ctx context.Context, resume *types.Resume) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO resumes (id, candidate_name, candidate_email, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		resume.ID, resume.CandidateName, resume.CandidateEmail, resume.Text, resume.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

// GetResume retrieves a resume by ID
func (db *DB) GetResume(ctx context.Context, id uuid.UUID) (*types.Resume, error) {
	var r types.Resume
	err := db.pool.QueryRow(ctx,
		`SELECT id, candidate_name, candidate_email, text, created_at
		 FROM resumes WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.CandidateName, &r.CandidateEmail, &r.Text, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &r, nil
}
