package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mintmarket/marketd/internal/core/domain"
)

type investmentRepository struct {
	db *sql.DB
}

func NewInvestmentRepository(config ...interface{}) (domain.InvestmentRepository, error) {
	db, err := extractDB(config...)
	if err != nil {
		return nil, fmt.Errorf("cannot open investment repository: %w", err)
	}
	return &investmentRepository{db}, nil
}

func (r *investmentRepository) Append(
	ctx context.Context, investment domain.Investment,
) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start tx: %w", err)
	}
	// nolint:all
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM investment WHERE asset = ?`, investment.Asset.String(),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count investments: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO investment (asset, idx, investor, amount, share_pct, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		investment.Asset.String(), count, investment.Investor, investment.Amount,
		investment.SharePct, investment.CreatedAt,
	); err != nil {
		return 0, fmt.Errorf("failed to insert investment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tx: %w", err)
	}
	return count, nil
}

func (r *investmentRepository) GetByAsset(
	ctx context.Context, asset domain.AssetRef,
) ([]domain.Investment, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT asset, investor, amount, share_pct, created_at
		 FROM investment WHERE asset = ? ORDER BY idx ASC`,
		asset.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get investments: %w", err)
	}
	// nolint:all
	defer rows.Close()

	investments := make([]domain.Investment, 0)
	for rows.Next() {
		var investment domain.Investment
		var assetStr string
		if err := rows.Scan(
			&assetStr, &investment.Investor, &investment.Amount,
			&investment.SharePct, &investment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		if err := investment.Asset.FromString(assetStr); err != nil {
			return nil, err
		}
		investments = append(investments, investment)
	}
	return investments, rows.Err()
}

func (r *investmentRepository) Remove(
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
		ctx, `SELECT COUNT(*) FROM investment WHERE asset = ?`, asset.String(),
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to count investments: %w", err)
	}
	if index != count-1 {
		return fmt.Errorf(
			"only the last investment can be removed, got %d of %d", index, count,
		)
	}

	if _, err := tx.ExecContext(
		ctx, `DELETE FROM investment WHERE asset = ? AND idx = ?`, asset.String(), index,
	); err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}
	return tx.Commit()
}

func (r *investmentRepository) Close() {}
