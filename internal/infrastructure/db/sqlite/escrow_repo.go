package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mintmarket/marketd/internal/core/domain"
)

type escrowRepository struct {
	db *sql.DB
}

func NewEscrowRepository(config ...interface{}) (domain.EscrowRepository, error) {
	db, err := extractDB(config...)
	if err != nil {
		return nil, fmt.Errorf("cannot open escrow repository: %w", err)
	}
	return &escrowRepository{db}, nil
}

func (r *escrowRepository) Add(
	ctx context.Context, record domain.EscrowRecord,
) (uint64, error) {
	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO escrow (asset, seller, buyer, price, completed, outcome, created_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Asset.String(), record.Seller, record.Buyer, record.Price,
		record.Completed, record.Outcome, record.CreatedAt, record.ResolvedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert escrow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get escrow id: %w", err)
	}
	return uint64(id), nil
}

func (r *escrowRepository) Get(
	ctx context.Context, id uint64,
) (*domain.EscrowRecord, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, asset, seller, buyer, price, completed, outcome, created_at, resolved_at
		 FROM escrow WHERE id = ?`,
		id,
	)
	record, err := scanEscrow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}
	return record, nil
}

func (r *escrowRepository) Update(ctx context.Context, record domain.EscrowRecord) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE escrow SET completed = ?, outcome = ?, resolved_at = ? WHERE id = ?`,
		record.Completed, record.Outcome, record.ResolvedAt, record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update escrow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("escrow %d not found", record.ID)
	}
	return nil
}

func (r *escrowRepository) GetAll(ctx context.Context) ([]domain.EscrowRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, asset, seller, buyer, price, completed, outcome, created_at, resolved_at
		 FROM escrow ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrows: %w", err)
	}
	// nolint:all
	defer rows.Close()

	records := make([]domain.EscrowRecord, 0)
	for rows.Next() {
		record, err := scanEscrow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escrow: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (r *escrowRepository) Remove(ctx context.Context, id uint64) error {
	if _, err := r.db.ExecContext(
		ctx, `DELETE FROM escrow WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("failed to delete escrow: %w", err)
	}
	return nil
}

func (r *escrowRepository) CreditFees(ctx context.Context, amount uint64) error {
	if _, err := r.db.ExecContext(
		ctx, `UPDATE fee_balance SET amount = amount + ? WHERE id = 1`, amount,
	); err != nil {
		return fmt.Errorf("failed to credit fees: %w", err)
	}
	return nil
}

func (r *escrowRepository) DebitFees(ctx context.Context) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start tx: %w", err)
	}
	// nolint:all
	defer tx.Rollback()

	var amount uint64
	if err := tx.QueryRowContext(
		ctx, `SELECT amount FROM fee_balance WHERE id = 1`,
	).Scan(&amount); err != nil {
		return 0, fmt.Errorf("failed to get fee balance: %w", err)
	}
	if amount == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(
		ctx, `UPDATE fee_balance SET amount = 0 WHERE id = 1`,
	); err != nil {
		return 0, fmt.Errorf("failed to debit fees: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tx: %w", err)
	}
	return amount, nil
}

func (r *escrowRepository) FeeBalance(ctx context.Context) (uint64, error) {
	var amount uint64
	if err := r.db.QueryRowContext(
		ctx, `SELECT amount FROM fee_balance WHERE id = 1`,
	).Scan(&amount); err != nil {
		return 0, fmt.Errorf("failed to get fee balance: %w", err)
	}
	return amount, nil
}

func (r *escrowRepository) Close() {}

func scanEscrow(row rowScanner) (*domain.EscrowRecord, error) {
	var record domain.EscrowRecord
	var asset string
	if err := row.Scan(
		&record.ID, &asset, &record.Seller, &record.Buyer, &record.Price,
		&record.Completed, &record.Outcome, &record.CreatedAt, &record.ResolvedAt,
	); err != nil {
		return nil, err
	}
	if err := record.Asset.FromString(asset); err != nil {
		return nil, err
	}
	return &record, nil
}
