// Package handlers provides HTTP handlers for backup export and import.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/modules/backup"
)

// Handler handles backup HTTP requests
type Handler struct {
	service *backup.Service
	log     zerolog.Logger
}

// NewHandler creates a new backup handler
func NewHandler(service *backup.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "backup").Logger(),
	}
}

// HandleExport handles GET /api/backup/export, returning the snapshot as a
// file download.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.service.Export()
	if err != nil {
		h.log.Error().Err(err).Msg("Backup export failed")
		http.Error(w, "Failed to export backup", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to write backup response")
	}
}

// HandleImport handles POST /api/backup/import. The uploaded snapshot is
// validated before it replaces the current document.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Import(data); err != nil {
		h.log.Warn().Err(err).Msg("Backup import rejected")
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "backup imported"})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
