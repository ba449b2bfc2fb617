package httpinterface

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, "ok", nil, requestIDFromContext(r.Context()))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, "ready", nil, requestIDFromContext(r.Context()))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", handler.getInfo)
		r.Get("/listings", handler.listListings)
		r.Get("/listings/{asset}", handler.getListing)
		r.Get("/listings/{asset}/offers", handler.listOffers)
		r.Get("/listings/{asset}/investments", handler.listInvestments)
		r.Get("/escrows/{id}", handler.getEscrow)
		r.Get("/fees", handler.feeBalance)
		r.Get("/offers/expired", handler.expiredOffers)

		r.Group(func(r chi.Router) {
			r.Use(actorMiddleware)
			r.Post("/listings", handler.listAsset)
			r.Post("/listings/mint", handler.mintAndList)
			r.Delete("/listings/{asset}", handler.delistAsset)
			r.Post("/listings/{asset}/offers", handler.makeOffer)
			r.Post("/listings/{asset}/offers/{index}/accept", handler.acceptOffer)
			r.Post("/listings/{asset}/offers/{index}/reject", handler.rejectOffer)
			r.Post("/listings/{asset}/offers/{index}/withdraw", handler.withdrawOffer)
			r.Post("/listings/{asset}/investments", handler.invest)
			r.Post("/escrows", handler.createEscrow)
			r.Post("/escrows/{id}/complete", handler.completeEscrow)
			r.Post("/escrows/{id}/cancel", handler.cancelEscrow)
			r.Post("/fees/claim", handler.claimFee)
			r.Put("/fees/rate", handler.updateFeeRate)
			r.Put("/coordinator", handler.setCoordinator)
		})
	})

	return r
}
