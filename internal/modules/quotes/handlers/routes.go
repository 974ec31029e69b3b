package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/price", func(r chi.Router) {
		r.Get("/stock/{ticker}", h.HandleStockPrice)
		r.Get("/option/{underlying}/{symbol}", h.HandleOptionPrice)
	})
	r.Get("/option-details/{symbol}", h.HandleOptionDetails)
}
