package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/store"
)

type stubProvider struct{}

func (stubProvider) StockPrice(ctx context.Context, ticker string) (float64, error) {
	return 0, fmt.Errorf("no quote for %s", ticker)
}

func (stubProvider) OptionPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, fmt.Errorf("no quote for %s", symbol)
}

func (stubProvider) OptionDetails(ctx context.Context, symbol string) (domain.OptionDetails, error) {
	return domain.OptionDetails{}, fmt.Errorf("option %s not found", symbol)
}

func setupServer(t *testing.T) *Server {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	s := store.New(filepath.Join(t.TempDir(), "data.json"), logger)
	return New(Config{
		Log:      logger,
		Store:    s,
		Provider: stubProvider{},
		Port:     0,
		DevMode:  true,
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "optracker", response["service"])
	assert.Contains(t, response, "cpu_percent")
	assert.Contains(t, response, "memory_percent")
}

func TestAPIRoutesMounted(t *testing.T) {
	srv := setupServer(t)

	for _, path := range []string{
		"/api/data",
		"/api/structures",
		"/api/entries",
		"/api/stats",
		"/api/reports/by-asset",
		"/api/reports/by-strategy",
		"/api/backup/export",
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}
}

func TestQuoteRouteReturns404WhenUnavailable(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/price/stock/PETR4", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/no-such-thing", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
