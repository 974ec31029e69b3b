package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optracker/internal/domain"
)

type fakeProvider struct {
	stocks  map[string]float64
	options map[string]float64
	details map[string]domain.OptionDetails
}

func (f *fakeProvider) StockPrice(ctx context.Context, ticker string) (float64, error) {
	p, ok := f.stocks[ticker]
	if !ok {
		return 0, fmt.Errorf("no quote for %s", ticker)
	}
	return p, nil
}

func (f *fakeProvider) OptionPrice(ctx context.Context, symbol string) (float64, error) {
	p, ok := f.options[symbol]
	if !ok {
		return 0, fmt.Errorf("no quote for %s", symbol)
	}
	return p, nil
}

func (f *fakeProvider) OptionDetails(ctx context.Context, symbol string) (domain.OptionDetails, error) {
	d, ok := f.details[symbol]
	if !ok {
		return domain.OptionDetails{}, fmt.Errorf("option %s not found", symbol)
	}
	return d, nil
}

func setupRouter() *chi.Mux {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	provider := &fakeProvider{
		stocks:  map[string]float64{"PETR4": 36.51},
		options: map[string]float64{"PETRD250": 2.47},
		details: map[string]domain.OptionDetails{
			"PETRD250": {Symbol: "PETRD250", Category: domain.AssetTypeCall, Strike: 25.0, DueDate: "2025-04-17"},
		},
	}
	handler := NewHandler(provider, logger)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func TestHandleStockPrice(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/api/price/stock/petr4", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Ticker string  `json:"ticker"`
		Price  float64 `json:"price"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "PETR4", response.Ticker, "ticker is normalized")
	assert.Equal(t, 36.51, response.Price)
}

func TestHandleStockPrice_Unavailable(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/api/price/stock/NOPE3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response["error"], "NOPE3")
}

func TestHandleOptionPrice(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/api/price/option/PETR4/petrd250", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Underlying   string  `json:"underlying"`
		OptionSymbol string  `json:"optionSymbol"`
		Price        float64 `json:"price"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "PETR4", response.Underlying)
	assert.Equal(t, "PETRD250", response.OptionSymbol)
	assert.Equal(t, 2.47, response.Price)
}

func TestHandleOptionPrice_Unavailable(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/api/price/option/PETR4/PETRX999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleOptionDetails(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/api/option-details/PETRD250", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var details domain.OptionDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&details))
	assert.Equal(t, domain.AssetTypeCall, details.Category)
	assert.Equal(t, 25.0, details.Strike)
	assert.Equal(t, "2025-04-17", details.DueDate)
}

func TestHandleOptionDetails_Unknown(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/api/option-details/PETRX999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
