package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/outreach-agent/internal/types"
)

// CreateOffer stores a quoted offer in pending status
func (db *DB) CreateOffer(ctx context.Context, offer *types.Offer) error {
	var paramsJSON []byte
	var err error
	if offer.Params != nil {
		paramsJSON, err = json.Marshal(offer.Params)
		if err != nil {
			return fmt.Errorf("failed to marshal offer params: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO offers (id, capability, provider_id, price_usd, latency_estimate_ms,
		         reliability_score, status, params, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		offer.ID, offer.Capability, offer.ProviderID, offer.PriceUSD, offer.LatencyEstimate,
		offer.ReliabilityScore, offer.Status, paramsJSON, offer.ExpiresAt, offer.CreatedAt, offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// GetOffer retrieves an offer by ID
func (db *DB) GetOffer(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	var o types.Offer
	var paramsJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, capability, provider_id, price_usd, latency_estimate_ms,
		        reliability_score, status, params, expires_at, created_at, updated_at
		 FROM offers WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.Capability, &o.ProviderID, &o.PriceUSD, &o.LatencyEstimate,
		&o.ReliabilityScore, &o.Status, &paramsJSON, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	if paramsJSON != nil {
		_ = json.Unmarshal(paramsJSON, &o.Params)
	}
	return &o, nil
}

// UpdateOfferStatus moves an offer forward. The guard clause enforces the
// one-way lifecycle at the database level as well.
func (db *DB) UpdateOfferStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE offers SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, status, types.OfferStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("offer not found or not pending: %s", id)
	}
	return nil
}

// ListRecentOffers retrieves the latest offers, optionally filtered by
// capability and status
func (db *DB) ListRecentOffers(ctx context.Context, capability, status string, limit int) ([]types.Offer, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, capability, provider_id, price_usd, latency_estimate_ms,
	          reliability_score, status, params, expires_at, created_at, updated_at
	          FROM offers WHERE 1=1`
	args := []any{}
	argNum := 1

	if capability != "" {
		query += fmt.Sprintf(" AND capability = $%d", argNum)
		args = append(args, capability)
		argNum++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []types.Offer
	for rows.Next() {
		var o types.Offer
		var paramsJSON []byte
		if err := rows.Scan(&o.ID, &o.Capability, &o.ProviderID, &o.PriceUSD, &o.LatencyEstimate,
			&o.ReliabilityScore, &o.Status, &paramsJSON, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		if paramsJSON != nil {
			_ = json.Unmarshal(paramsJSON, &o.Params)
		}
		offers = append(offers, o)
	}
	return offers, nil
}
