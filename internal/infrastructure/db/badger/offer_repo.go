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

const offerStoreDir = "offers"

// offerBook holds the ordered offer sequence of a single asset under one key,
// so position assignment and updates stay consistent within one upsert.
type offerBook struct {
	Asset  string `badgerhold:"key"`
	Offers []domain.Offer
}

type offerRepository struct {
	store *badgerhold.Store
}

func NewOfferRepository(config ...interface{}) (domain.OfferRepository, error) {
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
		dir = filepath.Join(baseDir, offerStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open offer store: %s", err)
	}

	return &offerRepository{store}, nil
}

func (r *offerRepository) Append(ctx context.Context, offer domain.Offer) (int, error) {
	book, err := r.getBook(offer.Asset)
	if err != nil {
		return 0, err
	}

	offer.Index = len(book.Offers)
	book.Offers = append(book.Offers, offer)
	if err := r.upsertBook(book); err != nil {
		return 0, err
	}
	return offer.Index, nil
}

func (r *offerRepository) Get(
	ctx context.Context, asset domain.AssetRef, index int,
) (*domain.Offer, error) {
	book, err := r.getBook(asset)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(book.Offers) {
		return nil, nil
	}
	offer := book.Offers[index]
	return &offer, nil
}

func (r *offerRepository) Update(ctx context.Context, offer domain.Offer) error {
	book, err := r.getBook(offer.Asset)
	if err != nil {
		return err
	}
	if offer.Index < 0 || offer.Index >= len(book.Offers) {
		return fmt.Errorf("offer %d on %s not found", offer.Index, offer.Asset)
	}
	book.Offers[offer.Index] = offer
	return r.upsertBook(book)
}

func (r *offerRepository) GetByAsset(
	ctx context.Context, asset domain.AssetRef,
) ([]domain.Offer, error) {
	book, err := r.getBook(asset)
	if err != nil {
		return nil, err
	}
	return book.Offers, nil
}

func (r *offerRepository) GetAllActive(ctx context.Context) ([]domain.Offer, error) {
	var books []offerBook
	if err := r.store.Find(&books, nil); err != nil {
		return nil, fmt.Errorf("failed to get offer books: %w", err)
	}

	var offers []domain.Offer
	for _, book := range books {
		for _, offer := range book.Offers {
			if offer.IsActive() {
				offers = append(offers, offer)
			}
		}
	}
	return offers, nil
}

func (r *offerRepository) Remove(
	ctx context.Context, asset domain.AssetRef, index int,
) error {
	book, err := r.getBook(asset)
	if err != nil {
		return err
	}
	if index != len(book.Offers)-1 {
		return fmt.Errorf(
			"only the last offer can be removed, got %d of %d", index, len(book.Offers),
		)
	}
	book.Offers = book.Offers[:index]
	return r.upsertBook(book)
}

func (r *offerRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *offerRepository) getBook(asset domain.AssetRef) (*offerBook, error) {
	var book offerBook
	err := r.store.Get(asset.String(), &book)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return &offerBook{Asset: asset.String()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer book: %w", err)
	}
	return &book, nil
}

func (r *offerRepository) upsertBook(book *offerBook) error {
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
