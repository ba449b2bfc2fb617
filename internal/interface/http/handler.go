package httpinterface

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mintmarket/marketd/internal/core/application"
	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/pkg/errors"
)

type Handler struct {
	marketSvc application.Service
	escrowSvc application.EscrowService
	adminSvc  application.AdminService
}

func NewHandler(
	marketSvc application.Service,
	escrowSvc application.EscrowService,
	adminSvc application.AdminService,
) *Handler {
	return &Handler{
		marketSvc: marketSvc,
		escrowSvc: escrowSvc,
		adminSvc:  adminSvc,
	}
}

func (h *Handler) listAsset(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	var req listAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}
	var asset domain.AssetRef
	if err := asset.FromString(req.Asset); err != nil {
		writeError(w, errors.INVALID_INPUT.Wrap(err), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.marketSvc.ListAsset(r.Context(), actor, asset, req.Price); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "asset listed", nil, requestID)
}

func (h *Handler) mintAndList(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	var req mintAndListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	params := domain.MintParams{Collection: req.Collection, MetadataURI: req.MetadataURI}
	asset, err := h.marketSvc.MintAndList(r.Context(), actor, params, req.Price)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "asset minted and listed", map[string]string{
		"asset": asset.String(),
	}, requestID)
}

func (h *Handler) delistAsset(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.marketSvc.DelistAsset(r.Context(), actor, asset); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "asset delisted", nil, requestID)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	listing, err := h.adminSvc.GetListing(r.Context(), asset)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "listing", toListingResponse(*listing), requestID)
}

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	activeOnly := r.URL.Query().Get("active") == "true"
	listings, err := h.adminSvc.ListListings(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	resp := make([]listingResponse, 0, len(listings))
	for _, listing := range listings {
		resp = append(resp, toListingResponse(listing))
	}
	writeSuccess(w, http.StatusOK, "listings", resp, requestID)
}

func (h *Handler) makeOffer(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	var req makeOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	index, err := h.marketSvc.MakeOffer(
		r.Context(), actor, asset, req.Price, req.ExpiresAt, req.Escrowed,
	)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "offer made", map[string]int{
		"index": index,
	}, requestID)
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	offers, err := h.adminSvc.ListOffers(r.Context(), asset)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	resp := make([]offerResponse, 0, len(offers))
	for _, offer := range offers {
		resp = append(resp, toOfferResponse(offer))
	}
	writeSuccess(w, http.StatusOK, "offers", resp, requestID)
}

func (h *Handler) acceptOffer(w http.ResponseWriter, r *http.Request) {
	h.resolveOffer(w, r, h.marketSvc.AcceptOffer, "offer accepted")
}

func (h *Handler) rejectOffer(w http.ResponseWriter, r *http.Request) {
	h.resolveOffer(w, r, h.marketSvc.RejectOffer, "offer rejected")
}

func (h *Handler) withdrawOffer(w http.ResponseWriter, r *http.Request) {
	h.resolveOffer(w, r, h.marketSvc.WithdrawOffer, "offer withdrawn")
}

func (h *Handler) invest(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	var req investRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.marketSvc.Invest(r.Context(), actor, asset, req.Amount, req.SharePct); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "investment recorded", nil, requestID)
}

func (h *Handler) listInvestments(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	investments, err := h.adminSvc.ListInvestments(r.Context(), asset)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	resp := make([]investmentResponse, 0, len(investments))
	for _, investment := range investments {
		resp = append(resp, toInvestmentResponse(investment))
	}
	writeSuccess(w, http.StatusOK, "investments", resp, requestID)
}

func (h *Handler) createEscrow(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	var req createEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}
	var asset domain.AssetRef
	if err := asset.FromString(req.Asset); err != nil {
		writeError(w, errors.INVALID_INPUT.Wrap(err), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	id, err := h.escrowSvc.CreateEscrow(r.Context(), actor, asset, req.Seller, req.Price)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusCreated, "escrow created", map[string]uint64{
		"id": id,
	}, requestID)
}

func (h *Handler) getEscrow(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	id, err := escrowIDFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	record, err := h.escrowSvc.GetEscrow(r.Context(), id)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "escrow", toEscrowResponse(*record), requestID)
}

func (h *Handler) completeEscrow(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	id, err := escrowIDFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.escrowSvc.CompleteEscrow(r.Context(), actor, id); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "escrow completed", nil, requestID)
}

func (h *Handler) cancelEscrow(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	id, err := escrowIDFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.escrowSvc.CancelEscrow(r.Context(), actor, id); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "escrow canceled", nil, requestID)
}

func (h *Handler) claimFee(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	actor := actorFromContext(r.Context())
	amount, err := h.escrowSvc.ClaimFee(r.Context(), actor)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "fees claimed", map[string]uint64{
		"amount": amount,
	}, requestID)
}

func (h *Handler) feeBalance(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	balance, err := h.escrowSvc.FeeBalance(r.Context())
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "fee balance", map[string]uint64{
		"balance": balance,
	}, requestID)
}

func (h *Handler) updateFeeRate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	var req updateFeeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.adminSvc.UpdateFeeRate(r.Context(), actor, req.FeeRateBps); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "fee rate updated", nil, requestID)
}

func (h *Handler) setCoordinator(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	var req setCoordinatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.INVALID_INPUT.New("invalid json body"), requestID)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.adminSvc.SetSettlementCoordinator(r.Context(), actor, req.Coordinator); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "settlement coordinator updated", nil, requestID)
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	info, err := h.adminSvc.GetInfo(r.Context())
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, "marketplace info", toInfoResponse(*info), requestID)
}

func (h *Handler) expiredOffers(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	offers, err := h.adminSvc.ReportExpiredOffers(r.Context())
	if err != nil {
		writeError(w, err, requestID)
		return
	}

	resp := make([]offerResponse, 0, len(offers))
	for _, offer := range offers {
		resp = append(resp, toOfferResponse(offer))
	}
	writeSuccess(w, http.StatusOK, "expired offers", resp, requestID)
}

func (h *Handler) resolveOffer(
	w http.ResponseWriter, r *http.Request,
	resolve func(ctx context.Context, requester string, asset domain.AssetRef, index int) error,
	message string,
) {
	requestID := requestIDFromContext(r.Context())

	asset, err := assetFromURL(r)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(
			w, errors.INVALID_INPUT.New("invalid offer index: %s", chi.URLParam(r, "index")),
			requestID,
		)
		return
	}

	actor := actorFromContext(r.Context())
	if err := resolve(r.Context(), actor, asset, index); err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, http.StatusOK, message, nil, requestID)
}

func assetFromURL(r *http.Request) (domain.AssetRef, error) {
	var asset domain.AssetRef
	if err := asset.FromString(chi.URLParam(r, "asset")); err != nil {
		return domain.AssetRef{}, errors.INVALID_INPUT.Wrap(err)
	}
	return asset, nil
}

func escrowIDFromURL(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.INVALID_INPUT.New("invalid escrow id: %s", chi.URLParam(r, "id"))
	}
	return id, nil
}
