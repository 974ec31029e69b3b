// Package handlers provides HTTP handlers for position tracking operations.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/results"
	"github.com/aristath/optracker/internal/store"
)

// Handler handles position tracking HTTP requests
type Handler struct {
	store    *store.Store
	provider domain.PriceProvider
	log      zerolog.Logger
}

// NewHandler creates a new positions handler
func NewHandler(s *store.Store, provider domain.PriceProvider, log zerolog.Logger) *Handler {
	return &Handler{
		store:    s,
		provider: provider,
		log:      log.With().Str("handler", "positions").Logger(),
	}
}

// StructureView is a structure enriched with its derived result.
type StructureView struct {
	domain.Structure
	Result float64 `json:"result"`
}

// HandleGetData handles GET /api/data, returning the full document.
func (h *Handler) HandleGetData(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.Document())
}

// HandlePostData handles POST /api/data. The uploaded document replaces the
// current state atomically: it is validated first, results are recomputed
// server-side, and only then is it persisted.
func (h *Handler) HandlePostData(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.Replace(doc); err != nil {
		h.log.Warn().Err(err).Msg("Rejected uploaded document")
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "data saved"})
}

// HandleClearData handles POST /api/data/clear, resetting to an empty document.
func (h *Handler) HandleClearData(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist cleared document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "data cleared"})
}

// HandleListStructures handles GET /api/structures with optional
// strategy, asset and status query filters.
func (h *Handler) HandleListStructures(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Strategy: r.URL.Query().Get("strategy"),
		Asset:    r.URL.Query().Get("asset"),
		Status:   r.URL.Query().Get("status"),
	}

	structures := h.store.ListStructures(filter)
	entries := h.store.ListEntries()

	views := make([]StructureView, 0, len(structures))
	for _, s := range structures {
		views = append(views, StructureView{
			Structure: s,
			Result:    results.StructureResult(s.ID, entries),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"structures": views,
		"count":      len(views),
	})
}

// HandleCreateStructure handles POST /api/structures. The response reports
// whether the auto-backup threshold was hit so the caller can trigger an export.
func (h *Handler) HandleCreateStructure(w http.ResponseWriter, r *http.Request) {
	var structure domain.Structure
	if err := json.NewDecoder(r.Body).Decode(&structure); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, backupDue, err := h.store.CreateStructure(structure)
	if err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"structure": created,
		"backupDue": backupDue,
	})
}

// HandleGetStructure handles GET /api/structures/{id}, including the
// structure's entries and derived result.
func (h *Handler) HandleGetStructure(w http.ResponseWriter, r *http.Request) {
	id, err := structureID(r)
	if err != nil {
		http.Error(w, "Invalid structure id", http.StatusBadRequest)
		return
	}

	structure, ok := h.store.GetStructure(id)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("structure %d not found", id)})
		return
	}

	entries := h.store.EntriesByStructure(id)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"structure": structure,
		"entries":   entries,
		"result":    results.StructureResult(id, h.store.ListEntries()),
	})
}

// HandleUpdateStructure handles PUT /api/structures/{id}
func (h *Handler) HandleUpdateStructure(w http.ResponseWriter, r *http.Request) {
	id, err := structureID(r)
	if err != nil {
		http.Error(w, "Invalid structure id", http.StatusBadRequest)
		return
	}

	var structure domain.Structure
	if err := json.NewDecoder(r.Body).Decode(&structure); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	structure.ID = id

	if err := h.store.UpdateStructure(structure); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"structure": structure})
}

// HandleDeleteStructure handles DELETE /api/structures/{id}, cascading to
// the structure's entries.
func (h *Handler) HandleDeleteStructure(w http.ResponseWriter, r *http.Request) {
	id, err := structureID(r)
	if err != nil {
		http.Error(w, "Invalid structure id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteStructure(id); err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "structure deleted"})
}

// HandleListEntries handles GET /api/entries with an optional structureId filter.
func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	var entries []domain.Entry
	if raw := r.URL.Query().Get("structureId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid structureId", http.StatusBadRequest)
			return
		}
		entries = h.store.EntriesByStructure(id)
	} else {
		entries = h.store.ListEntries()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleCreateEntry handles POST /api/entries. For option legs the contract
// details (type, strike, expiration) are resolved from the market-data
// provider rather than trusted from the request.
func (h *Handler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var entry domain.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry.Asset = domain.NormalizeSymbol(entry.Asset)
	if entry.Type != domain.AssetTypeStock {
		details, err := h.provider.OptionDetails(r.Context(), entry.Asset)
		if err != nil {
			h.log.Warn().Err(err).Str("symbol", entry.Asset).Msg("Option details lookup failed")
			h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": fmt.Sprintf("cannot find details for option %s", entry.Asset),
			})
			return
		}
		entry.Type = details.Category
		entry.Strike = details.Strike
		entry.Expiration = details.DueDate
	}

	created, err := h.store.CreateEntry(entry)
	if err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"entry": created})
}

// HandleUpdateEntry handles PUT /api/entries/{id}
func (h *Handler) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var entry domain.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry.ID = id

	if err := h.store.UpdateEntry(entry); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "entry updated"})
}

// HandleDeleteEntry handles DELETE /api/entries/{id}
func (h *Handler) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteEntry(id); err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist document")
		http.Error(w, "Failed to save data", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

// HandleGetStats handles GET /api/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	h.writeJSON(w, http.StatusOK, results.Statistics(doc.Structures, doc.Entries))
}

func structureID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
