package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/mintmarket/marketd/internal/core/domain"
)

const (
	escrowStoreDir = "escrows"
	escrowSeqKey   = "escrow_seq"
	feeBalanceKey  = "fee_balance"
)

type escrowSequence struct {
	Next uint64
}

type feeBalance struct {
	Amount uint64
}

type escrowRepository struct {
	store *badgerhold.Store
	// guards identifier assignment and the fee balance read-modify-write
	lock sync.Mutex
}

func NewEscrowRepository(config ...interface{}) (domain.EscrowRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, escrowStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open escrow store: %s", err)
	}

	return &escrowRepository{store: store}, nil
}

func (r *escrowRepository) Add(
	ctx context.Context, record domain.EscrowRecord,
) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var seq escrowSequence
	err := r.store.Get(escrowSeqKey, &seq)
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return 0, fmt.Errorf("failed to get escrow sequence: %w", err)
	}

	record.ID = seq.Next + 1
	if err := r.upsert(record.ID, &record); err != nil {
		return 0, err
	}

	seq.Next = record.ID
	if err := r.upsert(escrowSeqKey, &seq); err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (r *escrowRepository) Get(
	ctx context.Context, id uint64,
) (*domain.EscrowRecord, error) {
	var record domain.EscrowRecord
	err := r.store.Get(id, &record)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}
	return &record, nil
}

func (r *escrowRepository) Update(ctx context.Context, record domain.EscrowRecord) error {
	return r.upsert(record.ID, &record)
}

func (r *escrowRepository) GetAll(ctx context.Context) ([]domain.EscrowRecord, error) {
	var records []domain.EscrowRecord
	if err := r.store.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to get escrows: %w", err)
	}
	return records, nil
}

func (r *escrowRepository) Remove(ctx context.Context, id uint64) error {
	if err := r.store.Delete(id, &domain.EscrowRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete escrow: %w", err)
	}
	return nil
}

func (r *escrowRepository) CreditFees(ctx context.Context, amount uint64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	balance, err := r.feeBalance()
	if err != nil {
		return err
	}
	balance.Amount += amount
	return r.upsert(feeBalanceKey, balance)
}

func (r *escrowRepository) DebitFees(ctx context.Context) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	balance, err := r.feeBalance()
	if err != nil {
		return 0, err
	}
	amount := balance.Amount
	if amount == 0 {
		return 0, nil
	}

	balance.Amount = 0
	if err := r.upsert(feeBalanceKey, balance); err != nil {
		return 0, err
	}
	return amount, nil
}

func (r *escrowRepository) FeeBalance(ctx context.Context) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	balance, err := r.feeBalance()
	if err != nil {
		return 0, err
	}
	return balance.Amount, nil
}

func (r *escrowRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *escrowRepository) feeBalance() (*feeBalance, error) {
	var balance feeBalance
	err := r.store.Get(feeBalanceKey, &balance)
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("failed to get fee balance: %w", err)
	}
	return &balance, nil
}

func (r *escrowRepository) upsert(key interface{}, data interface{}) error {
	if err := r.store.Upsert(key, data); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(key, data)
				attempts++
			}
		}
		return err
	}
	return nil
}
