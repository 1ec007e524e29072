package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

type PropertyService struct {
	propertyRepo    *repository.PropertyRepository
	accountRepo     *repository.AccountRepository
	opportunityRepo *repository.OpportunityRepository
	logger          *zap.Logger
}

func NewPropertyService(
	propertyRepo *repository.PropertyRepository,
	accountRepo *repository.AccountRepository,
	opportunityRepo *repository.OpportunityRepository,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		propertyRepo:    propertyRepo,
		accountRepo:     accountRepo,
		opportunityRepo: opportunityRepo,
		logger:          logger,
	}
}

func (s *PropertyService) Create(ctx context.Context, req *domain.CreatePropertyRequest) (*domain.PropertyDTO, error) {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID == nil {
		return nil, ErrUnauthorized
	}

	property := &domain.Property{
		TenantID:     *tenantID,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		BuildingType: req.BuildingType,
		Sqft:         req.Sqft,
	}

	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid account id", ErrInvalidInput)
		}
		if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		property.AccountID = &accountID
	}

	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

func (s *PropertyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyDTO, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePropertyRequest) (*domain.PropertyDTO, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AccountID != nil {
		if *req.AccountID == "" {
			property.AccountID = nil
		} else {
			accountID, err := uuid.Parse(*req.AccountID)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid account id", ErrInvalidInput)
			}
			if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
				return nil, fmt.Errorf("account not found: %w", err)
			}
			property.AccountID = &accountID
		}
	}
	if req.Address != nil {
		property.Address = *req.Address
	}
	if req.City != nil {
		property.City = *req.City
	}
	if req.State != nil {
		property.State = *req.State
	}
	if req.Zip != nil {
		property.Zip = *req.Zip
	}
	if req.BuildingType != nil {
		property.BuildingType = *req.BuildingType
	}
	if req.Sqft != nil {
		property.Sqft = req.Sqft
	}

	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.propertyRepo.GetByID(ctx, id); err != nil {
		return err
	}

	filters := &repository.OpportunityFilters{PropertyID: &id}
	openOnly := true
	filters.OpenOnly = &openOnly
	opportunities, _, err := s.opportunityRepo.List(ctx, 1, 1, filters, repository.OpportunitySortByCreatedDesc)
	if err != nil {
		return fmt.Errorf("failed to check open opportunities: %w", err)
	}
	if len(opportunities) > 0 {
		return fmt.Errorf("%w: property has open opportunities", ErrConflict)
	}

	if err := s.propertyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return nil
}

func (s *PropertyService) List(ctx context.Context, page, pageSize int, filters *repository.PropertyFilters) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	properties, total, err := s.propertyRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	dtos := make([]domain.PropertyDTO, len(properties))
	for i, property := range properties {
		dtos[i] = mapper.ToPropertyDTO(&property)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Items:      dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByAccount returns all properties linked to an account
func (s *PropertyService) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.PropertyDTO, error) {
	properties, err := s.propertyRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account properties: %w", err)
	}

	dtos := make([]domain.PropertyDTO, len(properties))
	for i, property := range properties {
		dtos[i] = mapper.ToPropertyDTO(&property)
	}
	return dtos, nil
}
