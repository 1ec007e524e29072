package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/conversion"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/service"
)

// ConversionHandler drives the prospect-to-account conversion wizard.
// All routes are keyed by prospect ID; the wizard session lives server-side.
type ConversionHandler struct {
	conversionService *service.ConversionService
	logger            *zap.Logger
}

func NewConversionHandler(conversionService *service.ConversionService, logger *zap.Logger) *ConversionHandler {
	return &ConversionHandler{
		conversionService: conversionService,
		logger:            logger,
	}
}

// Start godoc
// @Summary Start or resume a conversion wizard session
// @Tags Conversion
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Success 200 {object} domain.ConversionStateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Prospect already converted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion [post]
func (h *ConversionHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	state, err := h.conversionService.Start(r.Context(), id)
	if err != nil {
		h.respondConversionError(w, err, "Failed to start conversion")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// GetState godoc
// @Summary Get the current conversion wizard state
// @Tags Conversion
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Success 200 {object} domain.ConversionStateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "No active session"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion [get]
func (h *ConversionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	state, err := h.conversionService.GetState(r.Context(), id)
	if err != nil {
		h.respondConversionError(w, err, "Failed to get conversion state")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// SubmitForm godoc
// @Summary Submit the conversion form
// @Description Validates the form and advances to the duplicates step, or straight
// @Description to review when no candidate accounts match.
// @Tags Conversion
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Param request body domain.SubmitConversionFormRequest true "Conversion form"
// @Success 200 {object} domain.ConversionStateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Not allowed from the current step"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion/form [post]
func (h *ConversionHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	var req domain.SubmitConversionFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	state, err := h.conversionService.SubmitForm(r.Context(), id, &req)
	if err != nil {
		h.respondConversionError(w, err, "Failed to submit conversion form")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// ChooseDuplicate godoc
// @Summary Resolve the duplicates step
// @Description Pick an existing account to merge into, or pass a null accountId to
// @Description create a fresh account.
// @Tags Conversion
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Param request body domain.ChooseDuplicateRequest true "Duplicate decision"
// @Success 200 {object} domain.ConversionStateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Not allowed from the current step"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion/duplicate [post]
func (h *ConversionHandler) ChooseDuplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	var req domain.ChooseDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	state, err := h.conversionService.ChooseDuplicate(r.Context(), id, &req)
	if err != nil {
		h.respondConversionError(w, err, "Failed to resolve duplicates")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Back godoc
// @Summary Step back in the conversion wizard
// @Tags Conversion
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Success 200 {object} domain.ConversionStateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Not allowed from the current step"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion/back [post]
func (h *ConversionHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	state, err := h.conversionService.Back(r.Context(), id)
	if err != nil {
		h.respondConversionError(w, err, "Failed to step back")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Confirm godoc
// @Summary Confirm the conversion
// @Description Executes the conversion transactionally: creates or merges the
// @Description account, carries properties over, opens the initial opportunity and
// @Description marks the prospect converted.
// @Tags Conversion
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Success 200 {object} domain.ConversionResultDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Confirm already in progress or prospect already converted"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion/confirm [post]
func (h *ConversionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	result, err := h.conversionService.Confirm(r.Context(), id)
	if err != nil {
		h.respondConversionError(w, err, "Failed to confirm conversion")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Convert godoc
// @Summary Convert a prospect in one call
// @Description Converts a prospect without the wizard. The account is seeded
// @Description from the prospect record, or merged into the linked account.
// @Tags Conversion
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Param request body domain.ConvertProspectRequest false "Optional account to merge into"
// @Success 200 {object} domain.ConversionResultDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Prospect already converted"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/convert [post]
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	var req domain.ConvertProspectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid request body",
			})
			return
		}
	}

	result, err := h.conversionService.ConvertDirect(r.Context(), id, &req)
	if err != nil {
		h.respondConversionError(w, err, "Failed to convert prospect")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Cancel godoc
// @Summary Cancel the conversion wizard session
// @Tags Conversion
// @Param id path string true "Prospect ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Confirm already in progress"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/conversion [delete]
func (h *ConversionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseProspectID(w, r)
	if !ok {
		return
	}

	if err := h.conversionService.Cancel(r.Context(), id); err != nil {
		h.respondConversionError(w, err, "Failed to cancel conversion")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *ConversionHandler) parseProspectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid prospect ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ConversionHandler) respondConversionError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, conversion.ErrSessionNotFound) || isNotFound(err):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "No conversion session or prospect found",
		})
	case errors.Is(err, service.ErrProspectConverted):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Prospect is already converted",
		})
	case errors.Is(err, conversion.ErrConfirmInFlight):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "A confirm is already in progress for this prospect",
		})
	case errors.Is(err, conversion.ErrSessionFinished):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Conversion session is already finished",
		})
	case errors.Is(err, conversion.ErrInvalidTransition):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Action not allowed from the current wizard step",
		})
	case errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	default:
		h.logger.Error(fallback, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: fallback,
		})
	}
}
