package domain

import (
	"github.com/google/uuid"
)

const MarketTopic = "market_events"

type EventType string

const (
	EventTypeAssetListed        EventType = "asset_listed"
	EventTypeAssetDelisted      EventType = "asset_delisted"
	EventTypeAssetMintedListed  EventType = "asset_minted_and_listed"
	EventTypeOfferMade          EventType = "offer_made"
	EventTypeOfferAccepted      EventType = "offer_accepted"
	EventTypeOfferRejected      EventType = "offer_rejected"
	EventTypeOfferWithdrawn     EventType = "offer_withdrawn"
	EventTypeInvestmentRecorded EventType = "investment_recorded"
	EventTypeEscrowCreated      EventType = "escrow_created"
	EventTypeEscrowCompleted    EventType = "escrow_completed"
	EventTypeEscrowCanceled     EventType = "escrow_canceled"
	EventTypeFeeClaimed         EventType = "fee_claimed"
	EventTypeFeeRateUpdated     EventType = "fee_rate_updated"
	EventTypeCoordinatorChanged EventType = "coordinator_changed"
)

// Event is emitted on every successful state-mutating operation and carries
// the asset reference, the involved identities and the moved amounts.
type Event interface {
	GetID() string
	GetType() EventType
	GetAsset() AssetRef
	GetCreatedAt() int64
}

type BaseEvent struct {
	ID        string
	Type      EventType
	Asset     AssetRef
	CreatedAt int64
}

func (e BaseEvent) GetID() string        { return e.ID }
func (e BaseEvent) GetType() EventType   { return e.Type }
func (e BaseEvent) GetAsset() AssetRef   { return e.Asset }
func (e BaseEvent) GetCreatedAt() int64  { return e.CreatedAt }

func newBaseEvent(eventType EventType, asset AssetRef, now int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Asset:     asset,
		CreatedAt: now,
	}
}

type AssetListed struct {
	BaseEvent
	Seller   string
	Price    uint64
	TokenURI string
	Minted   bool
}

func NewAssetListed(
	asset AssetRef, seller string, price uint64, tokenURI string, minted bool, now int64,
) AssetListed {
	eventType := EventTypeAssetListed
	if minted {
		eventType = EventTypeAssetMintedListed
	}
	return AssetListed{
		BaseEvent: newBaseEvent(eventType, asset, now),
		Seller:    seller,
		Price:     price,
		TokenURI:  tokenURI,
		Minted:    minted,
	}
}

type AssetDelisted struct {
	BaseEvent
	Seller string
}

func NewAssetDelisted(asset AssetRef, seller string, now int64) AssetDelisted {
	return AssetDelisted{
		BaseEvent: newBaseEvent(EventTypeAssetDelisted, asset, now),
		Seller:    seller,
	}
}

type OfferMade struct {
	BaseEvent
	Index     int
	Buyer     string
	Price     uint64
	ExpiresAt int64
	Escrowed  bool
	EscrowID  uint64
}

func NewOfferMade(offer Offer, now int64) OfferMade {
	return OfferMade{
		BaseEvent: newBaseEvent(EventTypeOfferMade, offer.Asset, now),
		Index:     offer.Index,
		Buyer:     offer.Buyer,
		Price:     offer.Price,
		ExpiresAt: offer.ExpiresAt,
		Escrowed:  offer.Escrowed,
		EscrowID:  offer.EscrowID,
	}
}

type OfferResolved struct {
	BaseEvent
	Index    int
	Seller   string
	Buyer    string
	Price    uint64
	Fee      uint64
	Escrowed bool
	EscrowID uint64
}

func NewOfferResolved(
	eventType EventType, offer Offer, seller string, fee uint64, now int64,
) OfferResolved {
	return OfferResolved{
		BaseEvent: newBaseEvent(eventType, offer.Asset, now),
		Index:     offer.Index,
		Seller:    seller,
		Buyer:     offer.Buyer,
		Price:     offer.Price,
		Fee:       fee,
		Escrowed:  offer.Escrowed,
		EscrowID:  offer.EscrowID,
	}
}

type InvestmentRecorded struct {
	BaseEvent
	Investor string
	Amount   uint64
	SharePct uint64
}

func NewInvestmentRecorded(investment Investment, now int64) InvestmentRecorded {
	return InvestmentRecorded{
		BaseEvent: newBaseEvent(EventTypeInvestmentRecorded, investment.Asset, now),
		Investor:  investment.Investor,
		Amount:    investment.Amount,
		SharePct:  investment.SharePct,
	}
}

type EscrowEvent struct {
	BaseEvent
	EscrowID uint64
	Seller   string
	Buyer    string
	Price    uint64
	Fee      uint64
}

func NewEscrowEvent(eventType EventType, record EscrowRecord, fee uint64, now int64) EscrowEvent {
	return EscrowEvent{
		BaseEvent: newBaseEvent(eventType, record.Asset, now),
		EscrowID:  record.ID,
		Seller:    record.Seller,
		Buyer:     record.Buyer,
		Price:     record.Price,
		Fee:       fee,
	}
}

type FeeClaimed struct {
	BaseEvent
	Admin  string
	Amount uint64
}

func NewFeeClaimed(admin string, amount uint64, now int64) FeeClaimed {
	return FeeClaimed{
		BaseEvent: newBaseEvent(EventTypeFeeClaimed, AssetRef{}, now),
		Admin:     admin,
		Amount:    amount,
	}
}

type FeeRateUpdated struct {
	BaseEvent
	OldBps uint64
	NewBps uint64
}

func NewFeeRateUpdated(oldBps, newBps uint64, now int64) FeeRateUpdated {
	return FeeRateUpdated{
		BaseEvent: newBaseEvent(EventTypeFeeRateUpdated, AssetRef{}, now),
		OldBps:    oldBps,
		NewBps:    newBps,
	}
}

type CoordinatorChanged struct {
	BaseEvent
	Old string
	New string
}

func NewCoordinatorChanged(oldCoordinator, newCoordinator string, now int64) CoordinatorChanged {
	return CoordinatorChanged{
		BaseEvent: newBaseEvent(EventTypeCoordinatorChanged, AssetRef{}, now),
		Old:       oldCoordinator,
		New:       newCoordinator,
	}
}
