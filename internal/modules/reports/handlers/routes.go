package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all report routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/monthly", h.HandleMonthly)
		r.Get("/by-asset", h.HandleByAsset)
		r.Get("/by-strategy", h.HandleByStrategy)
	})
}
