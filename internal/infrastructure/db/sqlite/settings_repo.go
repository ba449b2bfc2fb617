package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mintmarket/marketd/internal/core/domain"
)

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(config ...interface{}) (domain.SettingsRepository, error) {
	db, err := extractDB(config...)
	if err != nil {
		return nil, fmt.Errorf("cannot open settings repository: %w", err)
	}
	return &settingsRepository{db}, nil
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.db.QueryRowContext(
		ctx,
		`SELECT fee_rate_bps, admin, settlement_coordinator, initialized, updated_at
		 FROM settings WHERE id = 1`,
	).Scan(
		&settings.FeeRateBps, &settings.Admin, &settings.SettlementCoordinator,
		&settings.Initialized, &settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings domain.Settings) error {
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO settings (id, fee_rate_bps, admin, settlement_coordinator, initialized, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 fee_rate_bps = excluded.fee_rate_bps, admin = excluded.admin,
		 settlement_coordinator = excluded.settlement_coordinator,
		 initialized = excluded.initialized, updated_at = excluded.updated_at`,
		settings.FeeRateBps, settings.Admin, settings.SettlementCoordinator,
		settings.Initialized, settings.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

func (r *settingsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(
		ctx, `DELETE FROM settings WHERE id = 1`,
	); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	return nil
}

func (r *settingsRepository) Close() {}
