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

type PropertyHandler struct {
	propertyService *service.PropertyService
	logger          *zap.Logger
}

func NewPropertyHandler(propertyService *service.PropertyService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		logger:          logger,
	}
}

// List godoc
// @Summary List properties
// @Tags Properties
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(25)
// @Param search query string false "Search by address"
// @Param accountId query string false "Filter by account" format(uuid)
// @Param buildingType query string false "Filter by building type"
// @Param city query string false "Filter by city"
// @Param state query string false "Filter by state"
// @Success 200 {object} domain.PaginatedResponse{items=[]domain.PropertyDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /properties [get]
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filters := &repository.PropertyFilters{}
	if search := r.URL.Query().Get("search"); search != "" {
		filters.SearchQuery = &search
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
	if buildingType := r.URL.Query().Get("buildingType"); buildingType != "" {
		filters.BuildingType = &buildingType
	}
	if city := r.URL.Query().Get("city"); city != "" {
		filters.City = &city
	}
	if state := r.URL.Query().Get("state"); state != "" {
		filters.State = &state
	}

	result, err := h.propertyService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list properties", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list properties",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get property by ID
// @Tags Properties
// @Produce json
// @Param id path string true "Property ID" format(uuid)
// @Success 200 {object} domain.PropertyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /properties/{id} [get]
func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid property ID format",
		})
		return
	}

	property, err := h.propertyService.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Property not found",
			})
			return
		}
		h.logger.Error("failed to get property", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get property",
		})
		return
	}

	respondJSON(w, http.StatusOK, property)
}

// Create godoc
// @Summary Create property
// @Tags Properties
// @Accept json
// @Produce json
// @Param request body domain.CreatePropertyRequest true "Property data"
// @Success 201 {object} domain.PropertyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Linked account not found"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /properties [post]
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyRequest
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

	property, err := h.propertyService.Create(r.Context(), &req)
	if err != nil {
		switch {
		case isNotFound(err):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Linked account not found",
			})
		case errors.Is(err, service.ErrInvalidInput):
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
		default:
			h.logger.Error("failed to create property", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to create property",
			})
		}
		return
	}

	w.Header().Set("Location", "/api/v1/properties/"+property.ID.String())
	respondJSON(w, http.StatusCreated, property)
}

// Update godoc
// @Summary Update property
// @Tags Properties
// @Accept json
// @Produce json
// @Param id path string true "Property ID" format(uuid)
// @Param request body domain.UpdatePropertyRequest true "Fields to update"
// @Success 200 {object} domain.PropertyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /properties/{id} [patch]
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid property ID format",
		})
		return
	}

	var req domain.UpdatePropertyRequest
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

	property, err := h.propertyService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case isNotFound(err):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Property not found",
			})
		case errors.Is(err, service.ErrInvalidInput):
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
		default:
			h.logger.Error("failed to update property", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to update property",
			})
		}
		return
	}

	respondJSON(w, http.StatusOK, property)
}

// Delete godoc
// @Summary Delete property
// @Description Delete a property. Fails while open opportunities reference it.
// @Tags Properties
// @Param id path string true "Property ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Property has open opportunities"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid property ID format",
		})
		return
	}

	if err := h.propertyService.Delete(r.Context(), id); err != nil {
		switch {
		case isNotFound(err):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Property not found",
			})
		case errors.Is(err, service.ErrConflict):
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Property has open opportunities",
			})
		default:
			h.logger.Error("failed to delete property", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to delete property",
			})
		}
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
