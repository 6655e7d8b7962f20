package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/outreach-agent/internal/types"
)

// CreateReceipt stores the settlement record for an accepted offer. The
// unique constraint on offer_id keeps settlement one-to-one.
func (db *DB) CreateReceipt(ctx context.Context, receipt *types.Receipt) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO receipts (id, offer_id, provider_id, amount_paid_usd,
		         transaction_id, duration_ms, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		receipt.ID, receipt.OfferID, receipt.ProviderID, receipt.AmountPaidUSD,
		receipt.TransactionID, receipt.DurationMs, receipt.Result, receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// GetReceiptByOffer retrieves the receipt settling a given offer
func (db *DB) GetReceiptByOffer(ctx context.Context, offerID uuid.UUID) (*types.Receipt, error) {
	var r types.Receipt
	err := db.pool.QueryRow(ctx,
		`SELECT id, offer_id, provider_id, amount_paid_usd,
		        transaction_id, duration_ms, result, created_at
		 FROM receipts WHERE offer_id = $1`,
		offerID,
	).Scan(&r.ID, &r.OfferID, &r.ProviderID, &r.AmountPaidUSD,
		&r.TransactionID, &r.DurationMs, &r.Result, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &r, nil
}

// ListRecentReceipts retrieves the latest settlements
func (db *DB) ListRecentReceipts(ctx context.Context, limit int) ([]types.Receipt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, offer_id, provider_id, amount_paid_usd,
		        transaction_id, duration_ms, result, created_at
		 FROM receipts ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.Receipt
	for rows.Next() {
		var r types.Receipt
		if err := rows.Scan(&r.ID, &r.OfferID, &r.ProviderID, &r.AmountPaidUSD,
			&r.TransactionID, &r.DurationMs, &r.Result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}
