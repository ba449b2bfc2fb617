package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mintmarket/marketd/internal/core/domain"
)

type offerRepository struct {
	db *sql.DB
}

func NewOfferRepository(config ...interface{}) (domain.OfferRepository, error) {
	db, err := extractDB(config...)
	if err != nil {
		return nil, fmt.Errorf("cannot open offer repository: %w", err)
	}
	return &offerRepository{db}, nil
}

func (r *offerRepository) Append(ctx context.Context, offer domain.Offer) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start tx: %w", err)
	}
	// nolint:all
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM offer WHERE asset = ?`, offer.Asset.String(),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}

	offer.Index = count
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO offer
		 (asset, idx, buyer, price, expires_at, escrowed, escrow_id, status, created_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		offer.Asset.String(), offer.Index, offer.Buyer, offer.Price, offer.ExpiresAt,
		offer.Escrowed, offer.EscrowID, offer.Status, offer.CreatedAt, offer.ResolvedAt,
	); err != nil {
		return 0, fmt.Errorf("failed to insert offer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tx: %w", err)
	}
	return offer.Index, nil
}

func (r *offerRepository) Get(
	ctx context.Context, asset domain.AssetRef, index int,
) (*domain.Offer, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT asset, idx, buyer, price, expires_at, escrowed, escrow_id, status,
		 created_at, resolved_at FROM offer WHERE asset = ? AND idx = ?`,
		asset.String(), index,
	)
	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) Update(ctx context.Context, offer domain.Offer) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE offer SET buyer = ?, price = ?, expires_at = ?, escrowed = ?,
		 escrow_id = ?, status = ?, resolved_at = ? WHERE asset = ? AND idx = ?`,
		offer.Buyer, offer.Price, offer.ExpiresAt, offer.Escrowed,
		offer.EscrowID, offer.Status, offer.ResolvedAt, offer.Asset.String(), offer.Index,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("offer %d on %s not found", offer.Index, offer.Asset)
	}
	return nil
}

func (r *offerRepository) GetByAsset(
	ctx context.Context, asset domain.AssetRef,
) ([]domain.Offer, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT asset, idx, buyer, price, expires_at, escrowed, escrow_id, status,
		 created_at, resolved_at FROM offer WHERE asset = ? ORDER BY idx ASC`,
		asset.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get offers: %w", err)
	}
	// nolint:all
	defer rows.Close()

	return collectOffers(rows)
}

func (r *offerRepository) GetAllActive(ctx context.Context) ([]domain.Offer, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT asset, idx, buyer, price, expires_at, escrowed, escrow_id, status,
		 created_at, resolved_at FROM offer WHERE status = ? ORDER BY asset, idx ASC`,
		domain.OfferStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get active offers: %w", err)
	}
	// nolint:all
	defer rows.Close()

	return collectOffers(rows)
}

func (r *offerRepository) Remove(
	ctx context.Context, asset domain.AssetRef, index int,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start tx: %w", err)
	}
	// nolint:all
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM offer WHERE asset = ?`, asset.String(),
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to count offers: %w", err)
	}
	if index != count-1 {
		return fmt.Errorf("only the last offer can be removed, got %d of %d", index, count)
	}

	if _, err := tx.ExecContext(
		ctx, `DELETE FROM offer WHERE asset = ? AND idx = ?`, asset.String(), index,
	); err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	return tx.Commit()
}

func (r *offerRepository) Close() {}

func scanOffer(row rowScanner) (*domain.Offer, error) {
	var offer domain.Offer
	var asset string
	if err := row.Scan(
		&asset, &offer.Index, &offer.Buyer, &offer.Price, &offer.ExpiresAt,
		&offer.Escrowed, &offer.EscrowID, &offer.Status, &offer.CreatedAt,
		&offer.ResolvedAt,
	); err != nil {
		return nil, err
	}
	if err := offer.Asset.FromString(asset); err != nil {
		return nil, err
	}
	return &offer, nil
}

func collectOffers(rows *sql.Rows) ([]domain.Offer, error) {
	offers := make([]domain.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}
