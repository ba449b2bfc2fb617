package httpinterface

import (
	"github.com/mintmarket/marketd/internal/core/application"
	"github.com/mintmarket/marketd/internal/core/domain"
)

type listAssetRequest struct {
	Asset string `json:"asset"`
	Price uint64 `json:"price"`
}

type mintAndListRequest struct {
	Collection  string `json:"collection"`
	MetadataURI string `json:"metadata_uri"`
	Price       uint64 `json:"price"`
}

type makeOfferRequest struct {
	Price     uint64 `json:"price"`
	ExpiresAt int64  `json:"expires_at"`
	Escrowed  bool   `json:"escrowed"`
}

type investRequest struct {
	Amount   uint64 `json:"amount"`
	SharePct uint64 `json:"share_pct"`
}

type createEscrowRequest struct {
	Asset  string `json:"asset"`
	Seller string `json:"seller"`
	Price  uint64 `json:"price"`
}

type updateFeeRateRequest struct {
	FeeRateBps uint64 `json:"fee_rate_bps"`
}

type setCoordinatorRequest struct {
	Coordinator string `json:"coordinator"`
}

type listingResponse struct {
	Asset     string `json:"asset"`
	Seller    string `json:"seller"`
	Price     uint64 `json:"price"`
	Active    bool   `json:"active"`
	TokenURI  string `json:"token_uri,omitempty"`
	CreatedAt int64  `json:"created_at"`
	ClosedAt  int64  `json:"closed_at,omitempty"`
}

type offerResponse struct {
	Asset     string `json:"asset"`
	Index     int    `json:"index"`
	Buyer     string `json:"buyer"`
	Price     uint64 `json:"price"`
	ExpiresAt int64  `json:"expires_at"`
	Escrowed  bool   `json:"escrowed"`
	EscrowID  uint64 `json:"escrow_id,omitempty"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type escrowResponse struct {
	ID         uint64 `json:"id"`
	Asset      string `json:"asset"`
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer"`
	Price      uint64 `json:"price"`
	Completed  bool   `json:"completed"`
	Outcome    string `json:"outcome"`
	CreatedAt  int64  `json:"created_at"`
	ResolvedAt int64  `json:"resolved_at,omitempty"`
}

type investmentResponse struct {
	Asset     string `json:"asset"`
	Investor  string `json:"investor"`
	Amount    uint64 `json:"amount"`
	SharePct  uint64 `json:"share_pct"`
	CreatedAt int64  `json:"created_at"`
}

type infoResponse struct {
	FeeRateBps            uint64 `json:"fee_rate_bps"`
	Admin                 string `json:"admin"`
	SettlementCoordinator string `json:"settlement_coordinator"`
	FeeBalance            uint64 `json:"fee_balance"`
	ActiveListings        int    `json:"active_listings"`
	ActiveOffers          int    `json:"active_offers"`
	PendingEscrows        int    `json:"pending_escrows"`
}

func toListingResponse(listing domain.Listing) listingResponse {
	return listingResponse{
		Asset:     listing.Asset.String(),
		Seller:    listing.Seller,
		Price:     listing.Price,
		Active:    listing.Active,
		TokenURI:  listing.TokenURI,
		CreatedAt: listing.CreatedAt,
		ClosedAt:  listing.ClosedAt,
	}
}

func toOfferResponse(offer domain.Offer) offerResponse {
	return offerResponse{
		Asset:     offer.Asset.String(),
		Index:     offer.Index,
		Buyer:     offer.Buyer,
		Price:     offer.Price,
		ExpiresAt: offer.ExpiresAt,
		Escrowed:  offer.Escrowed,
		EscrowID:  offer.EscrowID,
		Status:    offer.Status.String(),
		CreatedAt: offer.CreatedAt,
	}
}

func toEscrowResponse(record domain.EscrowRecord) escrowResponse {
	return escrowResponse{
		ID:         record.ID,
		Asset:      record.Asset.String(),
		Seller:     record.Seller,
		Buyer:      record.Buyer,
		Price:      record.Price,
		Completed:  record.Completed,
		Outcome:    record.Outcome.String(),
		CreatedAt:  record.CreatedAt,
		ResolvedAt: record.ResolvedAt,
	}
}

func toInvestmentResponse(investment domain.Investment) investmentResponse {
	return investmentResponse{
		Asset:     investment.Asset.String(),
		Investor:  investment.Investor,
		Amount:    investment.Amount,
		SharePct:  investment.SharePct,
		CreatedAt: investment.CreatedAt,
	}
}

func toInfoResponse(info application.MarketInfo) infoResponse {
	return infoResponse{
		FeeRateBps:            info.FeeRateBps,
		Admin:                 info.Admin,
		SettlementCoordinator: info.SettlementCoordinator,
		FeeBalance:            info.FeeBalance,
		ActiveListings:        info.ActiveListings,
		ActiveOffers:          info.ActiveOffers,
		PendingEscrows:        info.PendingEscrows,
	}
}
