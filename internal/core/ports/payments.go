package ports

import "context"

// PaymentService moves funds between external parties and the accounts the
// marketplace controls. Collect pulls funds from a payer into an account,
// Pay sends funds from an account to a recipient. Both are authoritative
// once they return without error.
type PaymentService interface {
	Collect(ctx context.Context, account, from string, amount uint64) error
	Pay(ctx context.Context, account, to string, amount uint64) error
	BalanceOf(ctx context.Context, account string) (uint64, error)
}
