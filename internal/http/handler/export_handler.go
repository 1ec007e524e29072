package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
)

// ExportHandler streams CSV exports. Rows are written straight to the
// response, so a failure mid-stream can only be logged, not reported.
type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// ExportProspects godoc
// @Summary Export prospects as CSV
// @Tags Export
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param search query string false "Search filter"
// @Success 200 {string} string "CSV payload"
// @Failure 413 {object} domain.ErrorResponse "Export exceeds the row limit"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /export/prospects [get]
func (h *ExportHandler) ExportProspects(w http.ResponseWriter, r *http.Request) {
	filters := &repository.ProspectFilters{}
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
		if id, err := uuid.Parse(assignedTo); err == nil {
			filters.AssignedTo = &id
		}
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filters.SearchQuery = &search
	}

	h.setCSVHeaders(w, "prospects")
	if err := h.exportService.ExportProspects(r.Context(), w, filters, repository.ProspectSortByCreatedDesc); err != nil {
		h.handleExportError(w, err, "prospects")
	}
}

// ExportAccounts godoc
// @Summary Export accounts as CSV
// @Tags Export
// @Produce text/csv
// @Param stage query string false "Filter by stage"
// @Param search query string false "Search filter"
// @Success 200 {string} string "CSV payload"
// @Failure 413 {object} domain.ErrorResponse "Export exceeds the row limit"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /export/accounts [get]
func (h *ExportHandler) ExportAccounts(w http.ResponseWriter, r *http.Request) {
	filters := &repository.AccountFilters{}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		s := domain.AccountStage(stage)
		if !s.IsValid() {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid stage filter",
			})
			return
		}
		filters.Stage = &s
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filters.SearchQuery = &search
	}

	h.setCSVHeaders(w, "accounts")
	if err := h.exportService.ExportAccounts(r.Context(), w, filters, repository.AccountSortByCreatedDesc); err != nil {
		h.handleExportError(w, err, "accounts")
	}
}

// ExportOpportunities godoc
// @Summary Export opportunities as CSV
// @Tags Export
// @Produce text/csv
// @Param stage query string false "Filter by stage"
// @Param openOnly query bool false "Only open opportunities"
// @Success 200 {string} string "CSV payload"
// @Failure 413 {object} domain.ErrorResponse "Export exceeds the row limit"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /export/opportunities [get]
func (h *ExportHandler) ExportOpportunities(w http.ResponseWriter, r *http.Request) {
	filters := &repository.OpportunityFilters{}
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

	h.setCSVHeaders(w, "opportunities")
	if err := h.exportService.ExportOpportunities(r.Context(), w, filters, repository.OpportunitySortByCreatedDesc); err != nil {
		h.handleExportError(w, err, "opportunities")
	}
}

func (h *ExportHandler) setCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", service.ContentDisposition(name))
}

// handleExportError can only produce a clean error response when nothing
// has been written yet; ErrExportTooLarge is detected before the first row.
func (h *ExportHandler) handleExportError(w http.ResponseWriter, err error, name string) {
	if errors.Is(err, service.ErrExportTooLarge) {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json")
		respondJSON(w, http.StatusRequestEntityTooLarge, domain.ErrorResponse{
			Error:   "Payload Too Large",
			Message: "Export exceeds the row limit, narrow the filters",
		})
		return
	}
	h.logger.Error("csv export failed", zap.String("export", name), zap.Error(err))
}
