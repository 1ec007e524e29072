package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/service"
)

type ReferenceHandler struct {
	referenceService *service.ReferenceService
	logger           *zap.Logger
}

func NewReferenceHandler(referenceService *service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		referenceService: referenceService,
		logger:           logger,
	}
}

// GetReferenceData godoc
// @Summary Lookup lists for client forms
// @Description Returns the enum value lists plus the tenant's accounts, properties, and active user roster in one call.
// @Tags Reference
// @Produce json
// @Success 200 {object} domain.ReferenceDataDTO
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reference [get]
func (h *ReferenceHandler) GetReferenceData(w http.ResponseWriter, r *http.Request) {
	data, err := h.referenceService.GetReferenceData(r.Context())
	if err != nil {
		h.logger.Error("failed to load reference data", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to load reference data",
		})
		return
	}

	respondJSON(w, http.StatusOK, data)
}
