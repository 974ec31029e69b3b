package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/store"
)

// fakeProvider serves canned quotes and option details for handler tests.
type fakeProvider struct {
	details map[string]domain.OptionDetails
}

func (f *fakeProvider) StockPrice(ctx context.Context, ticker string) (float64, error) {
	return 0, fmt.Errorf("no quote available for %s", ticker)
}

func (f *fakeProvider) OptionPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, fmt.Errorf("no quote available for %s", symbol)
}

func (f *fakeProvider) OptionDetails(ctx context.Context, symbol string) (domain.OptionDetails, error) {
	d, ok := f.details[symbol]
	if !ok {
		return domain.OptionDetails{}, fmt.Errorf("option %s not found", symbol)
	}
	return d, nil
}

func setupHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	s := store.New(filepath.Join(t.TempDir(), "data.json"), logger)
	provider := &fakeProvider{details: map[string]domain.OptionDetails{
		"PETRD250": {Symbol: "PETRD250", Category: domain.AssetTypeCall, Strike: 25.0, DueDate: "2025-04-17"},
	}}
	return NewHandler(s, provider, logger), s
}

func setupRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)
	return router
}

func createStructure(t *testing.T, s *store.Store) domain.Structure {
	t.Helper()
	created, _, err := s.CreateStructure(domain.Structure{
		EntryDate: "2025-03-03", StrategyName: "Trava de Alta", UnderlyingAsset: "PETR4",
	})
	require.NoError(t, err)
	return created
}

func TestHandleGetData_Empty(t *testing.T) {
	handler, _ := setupHandler(t)
	router := setupRouter(handler)

	req := httptest.NewRequest("GET", "/api/data", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var doc domain.Document
	require.NoError(t, json.NewDecoder(w.Body).Decode(&doc))
	assert.Empty(t, doc.Structures)
	assert.Equal(t, int64(1), doc.NextID)
}

func TestHandlePostData_RecomputesResults(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)

	doc := domain.Document{
		Structures: []domain.Structure{{ID: 1, EntryDate: "2025-03-03", StrategyName: "Compra de Call", UnderlyingAsset: "PETR4"}},
		Entries: []domain.Entry{{
			StructureID: 1, Asset: "PETRD250", Type: domain.AssetTypeCall,
			Direction: domain.DirectionBuy, Quantity: 100,
			EntryPrice: 2.50, ExitPrice: 0,
			Result: 999, // client-supplied value, must be overwritten
		}},
		NextID: 2,
	}
	body, _ := json.Marshal(doc)

	req := httptest.NewRequest("POST", "/api/data", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := s.Document()
	require.Len(t, stored.Entries, 1)
	assert.Equal(t, 0.0, stored.Entries[0].Result, "open leg persists a zero result")
}

func TestHandlePostData_BadJSON(t *testing.T) {
	handler, _ := setupHandler(t)
	router := setupRouter(handler)

	req := httptest.NewRequest("POST", "/api/data", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlePostData_InvalidDocumentKeepsState(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	existing := createStructure(t, s)

	doc := domain.Document{
		Structures: []domain.Structure{{ID: 1, EntryDate: "2025-03-03", StrategyName: "X", UnderlyingAsset: "VALE3"}},
		Entries:    []domain.Entry{{StructureID: 42, Asset: "VALEA100", Type: domain.AssetTypeCall, Direction: domain.DirectionBuy, Quantity: 100}},
		NextID:     2,
	}
	body, _ := json.Marshal(doc)

	req := httptest.NewRequest("POST", "/api/data", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	stored := s.Document()
	require.Len(t, stored.Structures, 1)
	assert.Equal(t, existing.ID, stored.Structures[0].ID, "rejected upload leaves state untouched")
}

func TestHandleCreateStructure(t *testing.T) {
	handler, _ := setupHandler(t)
	router := setupRouter(handler)

	body, _ := json.Marshal(domain.Structure{
		EntryDate: "2025-03-03", StrategyName: "Trava de Alta", UnderlyingAsset: "petr4",
	})

	req := httptest.NewRequest("POST", "/api/structures", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Structure domain.Structure `json:"structure"`
		BackupDue bool             `json:"backupDue"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, int64(1), response.Structure.ID)
	assert.Equal(t, "PETR4", response.Structure.UnderlyingAsset, "asset is normalized")
	assert.False(t, response.BackupDue)
}

func TestHandleCreateStructure_ValidationError(t *testing.T) {
	handler, _ := setupHandler(t)
	router := setupRouter(handler)

	body, _ := json.Marshal(domain.Structure{StrategyName: "Trava de Alta"})

	req := httptest.NewRequest("POST", "/api/structures", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleListStructures_Filters(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)

	_, _, err := s.CreateStructure(domain.Structure{EntryDate: "2025-01-10", StrategyName: "Trava de Alta", UnderlyingAsset: "PETR4"})
	require.NoError(t, err)
	_, _, err = s.CreateStructure(domain.Structure{EntryDate: "2025-02-10", ExitDate: "2025-02-20", StrategyName: "Compra de Call", UnderlyingAsset: "VALE3"})
	require.NoError(t, err)

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?strategy=Trava+de+Alta", 1},
		{"?asset=vale", 1},
		{"?status=open", 1},
		{"?status=closed", 1},
		{"?strategy=Trava", 0}, // strategy match is exact, not substring
	} {
		req := httptest.NewRequest("GET", "/api/structures"+tc.query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, tc.want, response.Count, "query %q", tc.query)
	}
}

func TestHandleGetStructure_WithResult(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	structure := createStructure(t, s)

	_, err := s.CreateEntry(domain.Entry{
		StructureID: structure.ID, Asset: "PETRD250", Type: domain.AssetTypeCall,
		Direction: domain.DirectionBuy, Quantity: 100, EntryPrice: 2.50, ExitPrice: 7.50,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/structures/%d", structure.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Structure domain.Structure `json:"structure"`
		Entries   []domain.Entry   `json:"entries"`
		Result    float64          `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, structure.ID, response.Structure.ID)
	require.Len(t, response.Entries, 1)
	assert.Equal(t, 500.0, response.Result)
}

func TestHandleGetStructure_NotFound(t *testing.T) {
	handler, _ := setupHandler(t)
	router := setupRouter(handler)

	req := httptest.NewRequest("GET", "/api/structures/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteStructure_Cascades(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	structure := createStructure(t, s)

	_, err := s.CreateEntry(domain.Entry{
		StructureID: structure.ID, Asset: "PETRD250", Type: domain.AssetTypeCall,
		Direction: domain.DirectionBuy, Quantity: 100, EntryPrice: 2.50,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/structures/%d", structure.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, s.ListEntries(), "entries removed with their structure")
}

func TestHandleCreateEntry_ResolvesOptionDetails(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	structure := createStructure(t, s)

	body, _ := json.Marshal(map[string]interface{}{
		"structureId": structure.ID,
		"asset":       "petrd250",
		"type":        "CALL",
		"direction":   "BUY",
		"quantity":    100,
		"entryPrice":  2.50,
	})

	req := httptest.NewRequest("POST", "/api/entries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Entry domain.Entry `json:"entry"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.NotEmpty(t, response.Entry.ID)
	assert.Equal(t, domain.AssetTypeCall, response.Entry.Type)
	assert.Equal(t, 25.0, response.Entry.Strike, "strike comes from the provider")
	assert.Equal(t, "2025-04-17", response.Entry.Expiration)
}

func TestHandleCreateEntry_UnknownOption(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	structure := createStructure(t, s)

	body, _ := json.Marshal(map[string]interface{}{
		"structureId": structure.ID,
		"asset":       "NOPED999",
		"type":        "CALL",
		"direction":   "BUY",
		"quantity":    100,
		"entryPrice":  2.50,
	})

	req := httptest.NewRequest("POST", "/api/entries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "cannot find details for option NOPED999")
}

func TestHandleCreateEntry_StockSkipsLookup(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	structure := createStructure(t, s)

	body, _ := json.Marshal(map[string]interface{}{
		"structureId": structure.ID,
		"asset":       "PETR4",
		"type":        "STOCK",
		"direction":   "BUY",
		"quantity":    200,
		"entryPrice":  36.50,
	})

	req := httptest.NewRequest("POST", "/api/entries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Entry domain.Entry `json:"entry"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, domain.AssetTypeStock, response.Entry.Type)
	assert.Zero(t, response.Entry.Strike)
}

func TestHandleUpdateEntry_ClosesLeg(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	structure := createStructure(t, s)

	created, err := s.CreateEntry(domain.Entry{
		StructureID: structure.ID, Asset: "PETR4", Type: domain.AssetTypeStock,
		Direction: domain.DirectionBuy, Quantity: 100, EntryPrice: 10,
	})
	require.NoError(t, err)

	created.ExitPrice = 15
	body, _ := json.Marshal(created)

	req := httptest.NewRequest("PUT", "/api/entries/"+created.ID, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entries := s.ListEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, 500.0, entries[0].Result, "realized result recomputed on close")
}

func TestHandleDeleteEntry_NotFound(t *testing.T) {
	handler, _ := setupHandler(t)
	router := setupRouter(handler)

	req := httptest.NewRequest("DELETE", "/api/entries/no-such-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetStats(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)

	s1, _, err := s.CreateStructure(domain.Structure{EntryDate: "2025-01-10", ExitDate: "2025-01-20", StrategyName: "A", UnderlyingAsset: "PETR4"})
	require.NoError(t, err)
	_, err = s.CreateEntry(domain.Entry{
		StructureID: s1.ID, Asset: "PETR4", Type: domain.AssetTypeStock,
		Direction: domain.DirectionBuy, Quantity: 100, EntryPrice: 10, ExitPrice: 13,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.Stats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalStructures)
	assert.Equal(t, 300.0, stats.TotalResult)
	assert.Equal(t, 100.0, stats.HitRate)
}

func TestHandleClearData(t *testing.T) {
	handler, s := setupHandler(t)
	router := setupRouter(handler)
	createStructure(t, s)

	req := httptest.NewRequest("POST", "/api/data/clear", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	doc := s.Document()
	assert.Empty(t, doc.Structures)
	assert.Equal(t, int64(1), doc.NextID)
}

func TestRegisterRoutes(t *testing.T) {
	handler, _ := setupHandler(t)
	router := chi.NewRouter()

	assert.NotPanics(t, func() {
		router.Route("/api", handler.RegisterRoutes)
	}, "RegisterRoutes should not panic")
}
