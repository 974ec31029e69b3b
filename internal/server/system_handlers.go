package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/optracker/internal/store"
)

// SystemHandlers serves health and system status endpoints.
type SystemHandlers struct {
	store     *store.Store
	log       zerolog.Logger
	startedAt time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, s *store.Store) *SystemHandlers {
	return &SystemHandlers{
		store:     s,
		log:       log.With().Str("handler", "system").Logger(),
		startedAt: time.Now(),
	}
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()
	doc := h.store.Document()

	response := map[string]interface{}{
		"status":         "healthy",
		"service":        "optracker",
		"version":        "1.0.0",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"structures":     len(doc.Structures),
		"entries":        len(doc.Entries),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// systemStats returns CPU and RAM usage percentages. The short sampling
// interval keeps the health endpoint responsive for pollers.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
