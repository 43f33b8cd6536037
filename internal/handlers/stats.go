package handlers

import (
	"net/http"

	"housing-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// StatsHandler handles GET /api/v1/stats
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Summary(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute stats")
		respondServiceError(w, err, "Failed to compute stats")
		return
	}
	respondJSON(w, stats, http.StatusOK)
}
