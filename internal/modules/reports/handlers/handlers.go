// Package handlers provides HTTP handlers for portfolio reports.
package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/results"
	"github.com/aristath/optracker/internal/store"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Handler handles report HTTP requests
type Handler struct {
	store *store.Store
	log   zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(s *store.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: s,
		log:   log.With().Str("handler", "reports").Logger(),
	}
}

// HandleMonthly handles GET /api/reports/monthly?month=YYYY-MM,
// defaulting to the current month.
func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if !monthPattern.MatchString(month) {
		http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	doc := h.store.Document()
	h.writeJSON(w, http.StatusOK, results.Monthly(month, doc.Structures, doc.Entries))
}

// HandleByAsset handles GET /api/reports/by-asset
func (h *Handler) HandleByAsset(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assets": results.ByAsset(doc.Structures, doc.Entries),
	})
}

// HandleByStrategy handles GET /api/reports/by-strategy
func (h *Handler) HandleByStrategy(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": results.ByStrategy(doc.Structures, doc.Entries),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
