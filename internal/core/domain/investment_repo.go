package domain

import "context"

type InvestmentRepository interface {
	// Append adds the entry to the asset's ledger and returns the assigned
	// position.
	Append(ctx context.Context, investment Investment) (int, error)
	GetByAsset(ctx context.Context, asset AssetRef) ([]Investment, error)
	// Remove exists only to roll back a failed creation.
	Remove(ctx context.Context, asset AssetRef, index int) error
	Close()
}
