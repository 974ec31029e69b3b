package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all position tracking routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Whole-document operations
	r.Route("/data", func(r chi.Router) {
		r.Get("/", h.HandleGetData)
		r.Post("/", h.HandlePostData)
		r.Post("/clear", h.HandleClearData)
	})

	r.Route("/structures", func(r chi.Router) {
		r.Get("/", h.HandleListStructures)
		r.Post("/", h.HandleCreateStructure)
		r.Get("/{id}", h.HandleGetStructure)
		r.Put("/{id}", h.HandleUpdateStructure)
		r.Delete("/{id}", h.HandleDeleteStructure)
	})

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.HandleListEntries)
		r.Post("/", h.HandleCreateEntry)
		r.Put("/{id}", h.HandleUpdateEntry)
		r.Delete("/{id}", h.HandleDeleteEntry)
	})

	r.Get("/stats", h.HandleGetStats)
}
