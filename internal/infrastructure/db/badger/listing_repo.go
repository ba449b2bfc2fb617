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

const listingStoreDir = "listings"

type listingRepository struct {
	store *badgerhold.Store
}

func NewListingRepository(config ...interface{}) (domain.ListingRepository, error) {
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
		dir = filepath.Join(baseDir, listingStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing store: %s", err)
	}

	return &listingRepository{store}, nil
}

func (r *listingRepository) Upsert(ctx context.Context, listing domain.Listing) error {
	if err := r.store.Upsert(listing.Asset.String(), &listing); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(listing.Asset.String(), &listing)
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *listingRepository) Get(
	ctx context.Context, asset domain.AssetRef,
) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.store.Get(asset.String(), &listing)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

func (r *listingRepository) GetAll(
	ctx context.Context, activeOnly bool,
) ([]domain.Listing, error) {
	var query *badgerhold.Query
	if activeOnly {
		query = badgerhold.Where("Active").Eq(true)
	}

	var listings []domain.Listing
	if err := r.store.Find(&listings, query); err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) Delete(ctx context.Context, asset domain.AssetRef) error {
	if err := r.store.Delete(asset.String(), &domain.Listing{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

func (r *listingRepository) Close() {
	// nolint:all
	r.store.Close()
}
