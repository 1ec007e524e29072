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

type AccountHandler struct {
	accountService  *service.AccountService
	propertyService *service.PropertyService
	logger          *zap.Logger
}

func NewAccountHandler(accountService *service.AccountService, propertyService *service.PropertyService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService:  accountService,
		propertyService: propertyService,
		logger:          logger,
	}
}

// List godoc
// @Summary List accounts
// @Description Get paginated list of accounts with optional filters
// @Tags Accounts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Param search query string false "Search by name or domain"
// @Param stage query string false "Filter by stage" Enums(unqualified, qualified, active, dormant, closed)
// @Param companyType query string false "Filter by company type"
// @Param city query string false "Filter by city"
// @Param state query string false "Filter by state"
// @Param assignedTo query string false "Filter by assigned rep" format(uuid)
// @Param isActive query bool false "Filter by active flag"
// @Param sortBy query string false "Sort option" Enums(created_desc, created_asc, name_asc, name_desc, updated_desc)
// @Success 200 {object} domain.PaginatedResponse{items=[]domain.AccountDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts [get]
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.AccountFilters{}
	if search := r.URL.Query().Get("search"); search != "" {
		filters.SearchQuery = &search
	}
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
	if companyType := r.URL.Query().Get("companyType"); companyType != "" {
		filters.CompanyType = &companyType
	}
	if city := r.URL.Query().Get("city"); city != "" {
		filters.City = &city
	}
	if state := r.URL.Query().Get("state"); state != "" {
		filters.State = &state
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
	if isActive := r.URL.Query().Get("isActive"); isActive != "" {
		v := isActive == "true"
		filters.IsActive = &v
	}

	sortBy := repository.AccountSortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.AccountSortOption(s)
	}

	result, err := h.accountService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list accounts", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list accounts",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Search godoc
// @Summary Search accounts
// @Description Lightweight typeahead search over account names and domains
// @Tags Accounts
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Max results (default 20, max 50)"
// @Success 200 {array} domain.AccountDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/search [get]
func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Query parameter 'q' is required",
		})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.accountService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search accounts", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to search accounts",
		})
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// FindDuplicates godoc
// @Summary Find accounts that may match a company
// @Description Scores the given name, domain, website, and phone against every
// @Description active account and returns ranked matches, strongest first.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.FindDuplicatesRequest true "Company details to match"
// @Success 200 {array} domain.DuplicateMatchDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/find-duplicates [post]
func (h *AccountHandler) FindDuplicates(w http.ResponseWriter, r *http.Request) {
	var req domain.FindDuplicatesRequest
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

	matches, err := h.accountService.FindDuplicates(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to scan for duplicate accounts", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to scan for duplicate accounts",
		})
		return
	}

	respondJSON(w, http.StatusOK, matches)
}

// GetByID godoc
// @Summary Get account by ID
// @Description Get an account with stats, properties, open opportunities, and recent activity
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Success 200 {object} domain.AccountWithDetailsDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid account ID format",
		})
		return
	}

	account, err := h.accountService.GetWithDetails(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Account not found",
			})
			return
		}
		h.logger.Error("failed to get account", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get account",
		})
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// Create godoc
// @Summary Create account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.CreateAccountRequest true "Account data"
// @Success 201 {object} domain.AccountDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
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

	account, err := h.accountService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStage) || errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create account", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create account",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/accounts/"+account.ID.String())
	respondJSON(w, http.StatusCreated, account)
}

// Update godoc
// @Summary Update account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Param request body domain.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} domain.AccountDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id} [patch]
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid account ID format",
		})
		return
	}

	var req domain.UpdateAccountRequest
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

	account, err := h.accountService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case isNotFound(err):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Account not found",
			})
		case errors.Is(err, service.ErrInvalidStage):
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid account stage",
			})
		default:
			h.logger.Error("failed to update account", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to update account",
			})
		}
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// Delete godoc
// @Summary Delete account
// @Description Delete an account. Fails while the account still has open opportunities.
// @Tags Accounts
// @Param id path string true "Account ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Account has open opportunities"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id} [delete]
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid account ID format",
		})
		return
	}

	if err := h.accountService.Delete(r.Context(), id); err != nil {
		switch {
		case isNotFound(err):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Account not found",
			})
		case errors.Is(err, service.ErrConflict):
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Account has open opportunities",
			})
		default:
			h.logger.Error("failed to delete account", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to delete account",
			})
		}
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// GetProperties godoc
// @Summary List account properties
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Success 200 {array} domain.PropertyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id}/properties [get]
func (h *AccountHandler) GetProperties(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid account ID format",
		})
		return
	}

	properties, err := h.propertyService.GetByAccount(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list account properties", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list account properties",
		})
		return
	}

	respondJSON(w, http.StatusOK, properties)
}

// AddAssignment godoc
// @Summary Assign a rep to an account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Param request body object{userId=string,role=string} true "Assignment"
// @Success 200 {object} domain.AccountDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id}/assignments [post]
func (h *AccountHandler) AddAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid account ID format",
		})
		return
	}

	var req struct {
		UserID string `json:"userId" validate:"required,uuid"`
		Role   string `json:"role" validate:"max=100"`
	}
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

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid user ID format",
		})
		return
	}

	account, err := h.accountService.AddAssignment(r.Context(), id, userID, req.Role)
	if err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Account or user not found",
			})
			return
		}
		h.logger.Error("failed to add assignment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to add assignment",
		})
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// RemoveAssignment godoc
// @Summary Remove a rep from an account
// @Tags Accounts
// @Param id path string true "Account ID" format(uuid)
// @Param userId path string true "User ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id}/assignments/{userId} [delete]
func (h *AccountHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid account ID format",
		})
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid user ID format",
		})
		return
	}

	if err := h.accountService.RemoveAssignment(r.Context(), id, userID); err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Account not found",
			})
			return
		}
		h.logger.Error("failed to remove assignment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to remove assignment",
		})
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
