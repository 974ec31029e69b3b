// Package handlers provides HTTP handlers for market-data quote lookups.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/domain"
)

// Handler handles quote HTTP requests
type Handler struct {
	provider domain.PriceProvider
	log      zerolog.Logger
}

// NewHandler creates a new quotes handler
func NewHandler(provider domain.PriceProvider, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		log:      log.With().Str("handler", "quotes").Logger(),
	}
}

// HandleStockPrice handles GET /api/price/stock/{ticker}.
// An unavailable quote is a 404, never a zero price.
func (h *Handler) HandleStockPrice(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeSymbol(chi.URLParam(r, "ticker"))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	price, err := h.provider.StockPrice(r.Context(), ticker)
	if err != nil {
		h.log.Warn().Err(err).Str("ticker", ticker).Msg("Stock quote lookup failed")
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("no quote available for %s", ticker),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"price":  price,
	})
}

// HandleOptionPrice handles GET /api/price/option/{underlying}/{symbol}.
// The underlying is echoed back so callers can correlate concurrent lookups.
func (h *Handler) HandleOptionPrice(w http.ResponseWriter, r *http.Request) {
	underlying := domain.NormalizeSymbol(chi.URLParam(r, "underlying"))
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if underlying == "" || symbol == "" {
		http.Error(w, "underlying and symbol are required", http.StatusBadRequest)
		return
	}

	price, err := h.provider.OptionPrice(r.Context(), symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Option quote lookup failed")
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("no quote available for %s", symbol),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"underlying":   underlying,
		"optionSymbol": symbol,
		"price":        price,
	})
}

// HandleOptionDetails handles GET /api/option-details/{symbol}
func (h *Handler) HandleOptionDetails(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	details, err := h.provider.OptionDetails(r.Context(), symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Option details lookup failed")
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("no details available for %s", symbol),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
