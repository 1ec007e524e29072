package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
)

type ProspectHandler struct {
	prospectService *service.ProspectService
	logger          *zap.Logger
}

func NewProspectHandler(prospectService *service.ProspectService, logger *zap.Logger) *ProspectHandler {
	return &ProspectHandler{
		prospectService: prospectService,
		logger:          logger,
	}
}

// List godoc
// @Summary List prospects
// @Description Get paginated list of prospects with optional filters
// @Tags Prospects
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Param search query string false "Search by name or domain"
// @Param status query string false "Filter by status" Enums(uncontacted, researching, attempted, contacted, disqualified, converted)
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param unassigned query bool false "Only unassigned prospects"
// @Param companyType query string false "Filter by company type"
// @Param city query string false "Filter by city"
// @Param state query string false "Filter by state"
// @Param minIcpScore query int false "Minimum ICP fit score"
// @Param maxIcpScore query int false "Maximum ICP fit score"
// @Param source query string false "Filter by source"
// @Param tag query string false "Filter by tag"
// @Param sortBy query string false "Sort option" Enums(created_desc, created_asc, name_asc, name_desc, icp_score_desc, icp_score_asc, activity_desc, activity_asc)
// @Success 200 {object} domain.PaginatedResponse{items=[]domain.ProspectDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects [get]
func (h *ProspectHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.ProspectFilters{}

	if search := r.URL.Query().Get("search"); search != "" {
		filters.SearchQuery = &search
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.ProspectStatus(status)
		if !s.IsValid() {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid status filter",
			})
			return
		}
		filters.Status = &s
	}
	if assignedTo := r.URL.Query().Get("assignedTo"); assignedTo != "" {
		assigneeID, err := uuid.Parse(assignedTo)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid assignedTo format",
			})
			return
		}
		filters.AssignedTo = &assigneeID
	}
	if unassigned := r.URL.Query().Get("unassigned"); unassigned == "true" {
		t := true
		filters.Unassigned = &t
	}
	if companyType := r.URL.Query().Get("companyType"); companyType != "" {
		filters.CompanyType = &companyType
	}
	if city := r.URL.Query().Get("city"); city != "" {
		filters.City = &city
	}
	if state := r.URL.Query().Get("state"); state != "" {
		filters.State = &state
	}
	if minScore := r.URL.Query().Get("minIcpScore"); minScore != "" {
		if v, err := strconv.Atoi(minScore); err == nil {
			filters.MinICPScore = &v
		}
	}
	if maxScore := r.URL.Query().Get("maxIcpScore"); maxScore != "" {
		if v, err := strconv.Atoi(maxScore); err == nil {
			filters.MaxICPScore = &v
		}
	}
	if source := r.URL.Query().Get("source"); source != "" {
		filters.Source = &source
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filters.Tag = &tag
	}
	if createdAfter := r.URL.Query().Get("createdAfter"); createdAfter != "" {
		if t, err := time.Parse("2006-01-02", createdAfter); err == nil {
			filters.CreatedAfter = &t
		}
	}
	if createdBefore := r.URL.Query().Get("createdBefore"); createdBefore != "" {
		if t, err := time.Parse("2006-01-02", createdBefore); err == nil {
			filters.CreatedBefore = &t
		}
	}

	sortBy := repository.ProspectSortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.ProspectSortOption(s)
	}

	result, err := h.prospectService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list prospects", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list prospects",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Search godoc
// @Summary Search prospects
// @Description Lightweight typeahead search over prospect names and domains
// @Tags Prospects
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Max results (default 20, max 50)"
// @Success 200 {array} domain.ProspectDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/search [get]
func (h *ProspectHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Query parameter 'q' is required",
		})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.prospectService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search prospects", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to search prospects",
		})
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// GetByID godoc
// @Summary Get prospect by ID
// @Tags Prospects
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Success 200 {object} domain.ProspectDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id} [get]
func (h *ProspectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid prospect ID format",
		})
		return
	}

	prospect, err := h.prospectService.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Prospect not found",
			})
			return
		}
		h.logger.Error("failed to get prospect", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get prospect",
		})
		return
	}

	respondJSON(w, http.StatusOK, prospect)
}

// Create godoc
// @Summary Create prospect
// @Tags Prospects
// @Accept json
// @Produce json
// @Param request body domain.CreateProspectRequest true "Prospect data"
// @Success 201 {object} domain.ProspectDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects [post]
func (h *ProspectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProspectRequest
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

	prospect, err := h.prospectService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create prospect", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create prospect",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/prospects/"+prospect.ID.String())
	respondJSON(w, http.StatusCreated, prospect)
}

// Update godoc
// @Summary Update prospect
// @Description Partially update a prospect. Converted prospects are immutable.
// @Tags Prospects
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Param request body domain.UpdateProspectRequest true "Fields to update"
// @Success 200 {object} domain.ProspectDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Prospect already converted"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id} [patch]
func (h *ProspectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid prospect ID format",
		})
		return
	}

	var req domain.UpdateProspectRequest
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

	prospect, err := h.prospectService.Update(r.Context(), id, &req)
	if err != nil {
		h.respondProspectError(w, err, "Failed to update prospect")
		return
	}

	respondJSON(w, http.StatusOK, prospect)
}

// Delete godoc
// @Summary Delete prospect
// @Tags Prospects
// @Param id path string true "Prospect ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Prospect already converted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id} [delete]
func (h *ProspectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid prospect ID format",
		})
		return
	}

	if err := h.prospectService.Delete(r.Context(), id); err != nil {
		h.respondProspectError(w, err, "Failed to delete prospect")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// UpdateStatus godoc
// @Summary Update prospect status
// @Description Move a prospect through the outreach lifecycle. The converted status can only be reached through the conversion flow.
// @Tags Prospects
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID" format(uuid)
// @Param request body domain.UpdateProspectStatusRequest true "New status"
// @Success 200 {object} domain.ProspectDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Prospect already converted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/{id}/status [put]
func (h *ProspectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid prospect ID format",
		})
		return
	}

	var req domain.UpdateProspectStatusRequest
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

	prospect, err := h.prospectService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondProspectError(w, err, "Failed to update prospect status")
		return
	}

	respondJSON(w, http.StatusOK, prospect)
}

// BulkUpdateStatus godoc
// @Summary Bulk update prospect status
// @Description Apply a status change to up to 500 prospects. Converted prospects are skipped.
// @Tags Prospects
// @Accept json
// @Produce json
// @Param request body domain.BulkProspectStatusRequest true "Prospect IDs and new status"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/bulk/status [post]
func (h *ProspectHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkProspectStatusRequest
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

	affected, err := h.prospectService.BulkUpdateStatus(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid prospect status",
			})
			return
		}
		h.logger.Error("failed to bulk update prospect status", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to bulk update prospect status",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"updated": affected})
}

// BulkAssign godoc
// @Summary Bulk assign prospects
// @Description Assign up to 500 prospects to a user. A null assignee unassigns.
// @Tags Prospects
// @Accept json
// @Produce json
// @Param request body domain.BulkProspectAssignRequest true "Prospect IDs and assignee"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Assignee not found"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /prospects/bulk/assign [post]
func (h *ProspectHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkProspectAssignRequest
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

	affected, err := h.prospectService.BulkAssign(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Assignee not found",
			})
			return
		}
		h.logger.Error("failed to bulk assign prospects", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to bulk assign prospects",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"updated": affected})
}

func (h *ProspectHandler) respondProspectError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case isNotFound(err):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Prospect not found",
		})
	case errors.Is(err, service.ErrProspectConverted):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Prospect has already been converted",
		})
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidInput):
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
