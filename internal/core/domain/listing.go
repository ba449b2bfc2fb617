package domain

import "fmt"

// Listing is an active offer-to-sell of a specific asset at a fixed price.
// While a listing is active the registry holds custody of the asset. Listings
// are never deleted, only deactivated, so the table doubles as sale history.
type Listing struct {
	Asset     AssetRef
	Seller    string
	Price     uint64
	Active    bool
	TokenURI  string
	CreatedAt int64
	ClosedAt  int64
}

func NewListing(asset AssetRef, seller string, price uint64, tokenURI string, now int64) Listing {
	return Listing{
		Asset:     asset,
		Seller:    seller,
		Price:     price,
		Active:    true,
		TokenURI:  tokenURI,
		CreatedAt: now,
	}
}

// Close deactivates the listing. It fails if the listing is already closed,
// custody hand-off happens exactly once per listing.
func (l *Listing) Close(now int64) error {
	if !l.Active {
		return fmt.Errorf("listing for %s is not active", l.Asset)
	}
	l.Active = false
	l.ClosedAt = now
	return nil
}
