package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mintmarket/marketd/internal/core/domain"
)

type listingRepository struct {
	db *sql.DB
}

func NewListingRepository(config ...interface{}) (domain.ListingRepository, error) {
	db, err := extractDB(config...)
	if err != nil {
		return nil, fmt.Errorf("cannot open listing repository: %w", err)
	}
	return &listingRepository{db}, nil
}

func (r *listingRepository) Upsert(ctx context.Context, listing domain.Listing) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO listing (asset, seller, price, active, token_uri, created_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (asset) DO UPDATE SET
		 seller = excluded.seller, price = excluded.price, active = excluded.active,
		 token_uri = excluded.token_uri, created_at = excluded.created_at,
		 closed_at = excluded.closed_at`,
		listing.Asset.String(), listing.Seller, listing.Price, listing.Active,
		listing.TokenURI, listing.CreatedAt, listing.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}
	return nil
}

func (r *listingRepository) Get(
	ctx context.Context, asset domain.AssetRef,
) (*domain.Listing, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT asset, seller, price, active, token_uri, created_at, closed_at
		 FROM listing WHERE asset = ?`,
		asset.String(),
	)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

func (r *listingRepository) GetAll(
	ctx context.Context, activeOnly bool,
) ([]domain.Listing, error) {
	query := `SELECT asset, seller, price, active, token_uri, created_at, closed_at
		 FROM listing`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	// nolint:all
	defer rows.Close()

	listings := make([]domain.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *listing)
	}
	return listings, rows.Err()
}

func (r *listingRepository) Delete(ctx context.Context, asset domain.AssetRef) error {
	if _, err := r.db.ExecContext(
		ctx, `DELETE FROM listing WHERE asset = ?`, asset.String(),
	); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

func (r *listingRepository) Close() {}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var listing domain.Listing
	var asset string
	if err := row.Scan(
		&asset, &listing.Seller, &listing.Price, &listing.Active,
		&listing.TokenURI, &listing.CreatedAt, &listing.ClosedAt,
	); err != nil {
		return nil, err
	}
	if err := listing.Asset.FromString(asset); err != nil {
		return nil, err
	}
	return &listing, nil
}
