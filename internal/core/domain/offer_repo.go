package domain

import "context"

type OfferRepository interface {
	// Append adds the offer to the asset's sequence and returns the
	// assigned position.
	Append(ctx context.Context, offer Offer) (int, error)
	Get(ctx context.Context, asset AssetRef, index int) (*Offer, error)
	Update(ctx context.Context, offer Offer) error
	GetByAsset(ctx context.Context, asset AssetRef) ([]Offer, error)
	GetAllActive(ctx context.Context) ([]Offer, error)
	// Remove exists only to roll back a failed creation. Resolved offers
	// are deactivated in place, never removed.
	Remove(ctx context.Context, asset AssetRef, index int) error
	Close()
}
