package domain

import "fmt"

type OfferStatus uint8

const (
	OfferStatusActive OfferStatus = iota
	OfferStatusAccepted
	OfferStatusRejected
	OfferStatusWithdrawn
)

func (s OfferStatus) String() string {
	return []string{"Active", "Accepted", "Rejected", "Withdrawn"}[s]
}

// Offer is a buyer's commitment of funds to purchase a listed asset. Offers
// live in an ordered append-only sequence per asset and are addressed by
// position; they are never removed, only resolved.
type Offer struct {
	Asset      AssetRef
	Index      int
	Buyer      string
	Price      uint64
	ExpiresAt  int64
	Escrowed   bool
	EscrowID   uint64
	Status     OfferStatus
	CreatedAt  int64
	ResolvedAt int64
}

func NewOffer(
	asset AssetRef, buyer string, price uint64, expiresAt int64, escrowed bool, now int64,
) Offer {
	return Offer{
		Asset:     asset,
		Buyer:     buyer,
		Price:     price,
		ExpiresAt: expiresAt,
		Escrowed:  escrowed,
		Status:    OfferStatusActive,
		CreatedAt: now,
	}
}

func (o Offer) IsActive() bool {
	return o.Status == OfferStatusActive
}

func (o Offer) IsExpired(now int64) bool {
	return now > o.ExpiresAt
}

// Accept, Reject and Withdraw each resolve the offer exactly once. Any
// subsequent transition attempt fails.

func (o *Offer) Accept(now int64) error {
	return o.resolve(OfferStatusAccepted, now)
}

func (o *Offer) Reject(now int64) error {
	return o.resolve(OfferStatusRejected, now)
}

func (o *Offer) Withdraw(now int64) error {
	return o.resolve(OfferStatusWithdrawn, now)
}

func (o *Offer) resolve(status OfferStatus, now int64) error {
	if o.Status != OfferStatusActive {
		return fmt.Errorf(
			"offer %d on %s already resolved as %s", o.Index, o.Asset, o.Status,
		)
	}
	o.Status = status
	o.ResolvedAt = now
	return nil
}
