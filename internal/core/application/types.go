package application

import (
	"context"

	"github.com/mintmarket/marketd/internal/core/domain"
)

// Accounts under marketplace control. The marketplace account holds assets in
// custody and accrued fees, the escrow account holds buyer deposits.
const (
	AccountMarketplace = "marketplace"
	AccountEscrow      = "escrow"
)

// Service exposes the buyer and seller facing marketplace operations.
type Service interface {
	Start() error
	Stop()
	ListAsset(
		ctx context.Context, seller string, asset domain.AssetRef, price uint64,
	) error
	MintAndList(
		ctx context.Context, seller string, params domain.MintParams, price uint64,
	) (domain.AssetRef, error)
	DelistAsset(ctx context.Context, requester string, asset domain.AssetRef) error
	MakeOffer(
		ctx context.Context, buyer string, asset domain.AssetRef,
		price uint64, expiresAt int64, escrowed bool,
	) (int, error)
	AcceptOffer(ctx context.Context, requester string, asset domain.AssetRef, index int) error
	RejectOffer(ctx context.Context, requester string, asset domain.AssetRef, index int) error
	WithdrawOffer(ctx context.Context, requester string, asset domain.AssetRef, index int) error
	Invest(
		ctx context.Context, investor string, asset domain.AssetRef, amount, sharePct uint64,
	) error
	GetEventsChannel(ctx context.Context) <-chan domain.Event
}

// EscrowService exposes the settlement surface. Mutations are restricted to
// the settlement coordinator, fee claims to the administrator.
type EscrowService interface {
	CreateEscrow(
		ctx context.Context, requester string, asset domain.AssetRef,
		seller string, price uint64,
	) (uint64, error)
	CompleteEscrow(ctx context.Context, requester string, id uint64) error
	CancelEscrow(ctx context.Context, requester string, id uint64) error
	ClaimFee(ctx context.Context, requester string) (uint64, error)
	GetEscrow(ctx context.Context, id uint64) (*domain.EscrowRecord, error)
	FeeBalance(ctx context.Context) (uint64, error)
}

// AdminService exposes marketplace administration and the read surface.
type AdminService interface {
	Initialize(ctx context.Context, feeRateBps uint64, admin, coordinator string) error
	UpdateFeeRate(ctx context.Context, requester string, feeRateBps uint64) error
	SetSettlementCoordinator(ctx context.Context, requester, coordinator string) error
	GetInfo(ctx context.Context) (*MarketInfo, error)
	GetListing(ctx context.Context, asset domain.AssetRef) (*domain.Listing, error)
	ListListings(ctx context.Context, activeOnly bool) ([]domain.Listing, error)
	ListOffers(ctx context.Context, asset domain.AssetRef) ([]domain.Offer, error)
	ListInvestments(ctx context.Context, asset domain.AssetRef) ([]domain.Investment, error)
	ReportExpiredOffers(ctx context.Context) ([]domain.Offer, error)
}

type MarketInfo struct {
	FeeRateBps            uint64
	Admin                 string
	SettlementCoordinator string
	FeeBalance            uint64
	ActiveListings        int
	ActiveOffers          int
	PendingEscrows        int
}
