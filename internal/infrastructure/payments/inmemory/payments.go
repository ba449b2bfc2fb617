package inmemorypayments

import (
	"context"
	"fmt"
	"sync"

	"github.com/mintmarket/marketd/internal/core/ports"
)

// Ledger is an in-process payment ledger for development and tests. Every
// identity, marketplace accounts included, is a balance keyed by name.
type Ledger struct {
	lock     sync.Mutex
	balances map[string]uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

var _ ports.PaymentService = (*Ledger)(nil)

// Fund seeds a balance, used to arrange fixtures.
func (l *Ledger) Fund(holder string, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.balances[holder] += amount
}

func (l *Ledger) Collect(ctx context.Context, account, from string, amount uint64) error {
	return l.move(from, account, amount)
}

func (l *Ledger) Pay(ctx context.Context, account, to string, amount uint64) error {
	return l.move(account, to, amount)
}

func (l *Ledger) BalanceOf(ctx context.Context, account string) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.balances[account], nil
}

func (l *Ledger) move(from, to string, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf(
			"insufficient funds: %s holds %d, needs %d", from, l.balances[from], amount,
		)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
