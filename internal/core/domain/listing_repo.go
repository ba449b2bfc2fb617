package domain

import "context"

type ListingRepository interface {
	Upsert(ctx context.Context, listing Listing) error
	Get(ctx context.Context, asset AssetRef) (*Listing, error)
	GetAll(ctx context.Context, activeOnly bool) ([]Listing, error)
	// Delete exists only to roll back a failed creation. Settled listings
	// are deactivated, never deleted.
	Delete(ctx context.Context, asset AssetRef) error
	Close()
}
