package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/service"
)

type MetricsHandler struct {
	metricsService *service.MetricsService
	logger         *zap.Logger
}

func NewMetricsHandler(metricsService *service.MetricsService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
		logger:         logger,
	}
}

// GetPipelineMetrics godoc
// @Summary Pipeline dashboard metrics
// @Description Aggregates open pipeline value, weighted value, per-stage breakdown,
// @Description quarter-to-date win/loss counts and the prospect funnel.
// @Tags Metrics
// @Produce json
// @Success 200 {object} domain.PipelineMetricsDTO
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /metrics/pipeline [get]
func (h *MetricsHandler) GetPipelineMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metricsService.GetPipelineMetrics(r.Context())
	if err != nil {
		h.logger.Error("failed to compute pipeline metrics", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to compute pipeline metrics",
		})
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
