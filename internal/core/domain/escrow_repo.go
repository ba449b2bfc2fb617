package domain

import "context"

type EscrowRepository interface {
	// Add stores the record and assigns it the next monotonically
	// increasing identifier.
	Add(ctx context.Context, record EscrowRecord) (uint64, error)
	Get(ctx context.Context, id uint64) (*EscrowRecord, error)
	Update(ctx context.Context, record EscrowRecord) error
	GetAll(ctx context.Context) ([]EscrowRecord, error)
	// Remove exists only to roll back a failed creation.
	Remove(ctx context.Context, id uint64) error

	// The accumulated marketplace fee balance lives with the escrow store.
	CreditFees(ctx context.Context, amount uint64) error
	// DebitFees atomically reads and zeroes the balance so concurrent
	// claims cannot double-pay.
	DebitFees(ctx context.Context) (uint64, error)
	FeeBalance(ctx context.Context) (uint64, error)
	Close()
}
