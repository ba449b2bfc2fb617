package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/mintmarket/marketd/internal/core/domain"
)

const investmentStoreDir = "investments"

// investmentBook holds the append-only investment ledger of a single asset
// under one key.
type investmentBook struct {
	Asset   string `badgerhold:"key"`
	Entries []domain.Investment
}

type investmentRepository struct {
	store *badgerhold.Store
}

func NewInvestmentRepository(config ...interface{}) (domain.InvestmentRepository, error) {
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
		dir = filepath.Join(baseDir, investmentStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open investment store: %s", err)
	}

	return &investmentRepository{store}, nil
}

func (r *investmentRepository) Append(
	ctx context.Context, investment domain.Investment,
) (int, error) {
	book, err := r.getBook(investment.Asset)
	if err != nil {
		return 0, err
	}

	index := len(book.Entries)
	book.Entries = append(book.Entries, investment)
	if err := r.upsertBook(book); err != nil {
		return 0, err
	}
	return index, nil
}

func (r *investmentRepository) GetByAsset(
	ctx context.Context, asset domain.AssetRef,
) ([]domain.Investment, error) {
	book, err := r.getBook(asset)
	if err != nil {
		return nil, err
	}
	return book.Entries, nil
}

func (r *investmentRepository) Remove(
	ctx context.Context, asset domain.AssetRef, index int,
) error {
	book, err := r.getBook(asset)
	if err != nil {
		return err
	}
	if index != len(book.Entries)-1 {
		return fmt.Errorf(
			"only the last investment can be removed, got %d of %d", index, len(book.Entries),
		)
	}
	book.Entries = book.Entries[:index]
	return r.upsertBook(book)
}

func (r *investmentRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *investmentRepository) getBook(asset domain.AssetRef) (*investmentBook, error) {
	var book investmentBook
	err := r.store.Get(asset.String(), &book)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return &investmentBook{Asset: asset.String()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment book: %w", err)
	}
	return &book, nil
}

func (r *investmentRepository) upsertBook(book *investmentBook) error {
	if err := r.store.Upsert(book.Asset, book); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(book.Asset, book)
				attempts++
			}
		}
		return err
	}
	return nil
}
