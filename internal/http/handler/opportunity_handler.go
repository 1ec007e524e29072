package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
)

type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	logger             *zap.Logger
}

func NewOpportunityHandler(opportunityService *service.OpportunityService, logger *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// List godoc
// @Summary List opportunities
// @Description Get paginated list of opportunities with optional filters
// @Tags Opportunities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Param search query string false "Search by name"
// @Param stage query string false "Filter by stage" Enums(identified, qualified, proposal_sent, negotiation, won, lost)
// @Param openOnly query bool false "Only open opportunities"
// @Param accountId query string false "Filter by account" format(uuid)
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param minValue query number false "Minimum bid value"
// @Param maxValue query number false "Maximum bid value"
// @Param sortBy query string false "Sort option" Enums(created_desc, created_asc, value_desc, value_asc, close_date_desc, close_date_asc, probability_desc, probability_asc)
// @Success 200 {object} domain.PaginatedResponse{items=[]domain.OpportunityDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.OpportunityFilters{}
	if search := r.URL.Query().Get("search"); search != "" {
		filters.SearchQuery = &search
	}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		s := domain.OpportunityStage(stage)
		if !s.IsValid() {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid stage filter",
			})
			return
		}
		filters.Stage = &s
	}
	if openOnly := r.URL.Query().Get("openOnly"); openOnly == "true" {
		t := true
		filters.OpenOnly = &t
	}
	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		id, err := uuid.Parse(accountID)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid accountId format",
			})
			return
		}
		filters.AccountID = &id
	}
	if assignedTo := r.URL.Query().Get("assignedTo"); assignedTo != "" {
		id, err := uuid.Parse(assignedTo)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid assignedTo format",
			})
			return
		}
		filters.AssignedTo = &id
	}
	if minValue := r.URL.Query().Get("minValue"); minValue != "" {
		if v, err := strconv.ParseFloat(minValue, 64); err == nil {
			filters.MinValue = &v
		}
	}
	if maxValue := r.URL.Query().Get("maxValue"); maxValue != "" {
		if v, err := strconv.ParseFloat(maxValue, 64); err == nil {
			filters.MaxValue = &v
		}
	}

	sortBy := repository.OpportunitySortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.OpportunitySortOption(s)
	}

	result, err := h.opportunityService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list opportunities", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list opportunities",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get opportunity by ID
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID" format(uuid)
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	opp, err := h.opportunityService.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Opportunity not found",
			})
			return
		}
		h.logger.Error("failed to get opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get opportunity",
		})
		return
	}

	respondJSON(w, http.StatusOK, opp)
}

// Create godoc
// @Summary Create opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateOpportunityRequest true "Opportunity data"
// @Success 201 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Linked account or property not found"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
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

	opp, err := h.opportunityService.Create(r.Context(), &req)
	if err != nil {
		h.respondOpportunityError(w, err, "Failed to create opportunity")
		return
	}

	w.Header().Set("Location", "/api/v1/opportunities/"+opp.ID.String())
	respondJSON(w, http.StatusCreated, opp)
}

// Update godoc
// @Summary Update opportunity
// @Description Partially update an opportunity. Stage changes must go through the stage endpoint.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID" format(uuid)
// @Param request body domain.UpdateOpportunityRequest true "Fields to update"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [patch]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	var req domain.UpdateOpportunityRequest
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

	opp, err := h.opportunityService.Update(r.Context(), id, &req)
	if err != nil {
		h.respondOpportunityError(w, err, "Failed to update opportunity")
		return
	}

	respondJSON(w, http.StatusOK, opp)
}

// Delete godoc
// @Summary Delete opportunity
// @Tags Opportunities
// @Param id path string true "Opportunity ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	if err := h.opportunityService.Delete(r.Context(), id); err != nil {
		h.respondOpportunityError(w, err, "Failed to delete opportunity")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// UpdateStage godoc
// @Summary Update opportunity stage
// @Description Move an opportunity to any pipeline stage. Closing to won or lost sets probability to 100 or 0; every transition is recorded in the stage history.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID" format(uuid)
// @Param request body domain.UpdateOpportunityStageRequest true "New stage with optional notes"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id}/stage [put]
func (h *OpportunityHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	var req domain.UpdateOpportunityStageRequest
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

	opp, err := h.opportunityService.UpdateStage(r.Context(), id, &req)
	if err != nil {
		h.respondOpportunityError(w, err, "Failed to update opportunity stage")
		return
	}

	respondJSON(w, http.StatusOK, opp)
}

// BulkUpdateStage godoc
// @Summary Bulk update opportunity stage
// @Description Apply a stage change to up to 500 opportunities. Each record is
// @Description updated independently and the outcome is reported per id.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.BulkOpportunityStageRequest true "Opportunity IDs and new stage"
// @Success 200 {array} domain.BulkStageResultDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/bulk/stage [post]
func (h *OpportunityHandler) BulkUpdateStage(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkOpportunityStageRequest
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

	results, err := h.opportunityService.BulkUpdateStage(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStage) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid opportunity stage",
			})
			return
		}
		h.logger.Error("failed to bulk update opportunity stage", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to bulk update opportunity stage",
		})
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// GetStageHistory godoc
// @Summary Get opportunity stage history
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID" format(uuid)
// @Success 200 {array} domain.OpportunityStageHistoryDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id}/history [get]
func (h *OpportunityHandler) GetStageHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid opportunity ID format",
		})
		return
	}

	history, err := h.opportunityService.GetStageHistory(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Opportunity not found",
			})
			return
		}
		h.logger.Error("failed to get stage history", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get stage history",
		})
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (h *OpportunityHandler) respondOpportunityError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case isNotFound(err):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Opportunity not found",
		})
	case errors.Is(err, service.ErrInvalidStage), errors.Is(err, service.ErrInvalidInput):
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
