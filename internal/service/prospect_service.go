package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/dupmatch"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

type ProspectService struct {
	prospectRepo *repository.ProspectRepository
	activityRepo *repository.ActivityRepository
	userRepo     *repository.UserRepository
	logger       *zap.Logger
}

func NewProspectService(
	prospectRepo *repository.ProspectRepository,
	activityRepo *repository.ActivityRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *ProspectService {
	return &ProspectService{
		prospectRepo: prospectRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

func (s *ProspectService) Create(ctx context.Context, req *domain.CreateProspectRequest) (*domain.ProspectDTO, error) {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID == nil {
		return nil, ErrUnauthorized
	}

	prospect := &domain.Prospect{
		TenantID:              *tenantID,
		Name:                  req.Name,
		Phone:                 req.Phone,
		Website:               req.Website,
		Domain:                dupmatch.NormalizeDomain(req.Website),
		Address:               req.Address,
		City:                  req.City,
		State:                 req.State,
		Zip:                   req.Zip,
		CompanyType:           req.CompanyType,
		EmployeeCount:         req.EmployeeCount,
		PropertyCountEstimate: req.PropertyCountEstimate,
		SqftEstimate:          req.SqftEstimate,
		BuildingTypes:         req.BuildingTypes,
		ICPFitScore:           req.ICPFitScore,
		Status:                domain.ProspectStatusUncontacted,
		Source:                req.Source,
		Tags:                  req.Tags,
		Notes:                 req.Notes,
	}

	if req.AssignedTo != nil {
		assigneeID, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
		}
		prospect.AssignedTo = &assigneeID
	}

	if err := s.prospectRepo.Create(ctx, prospect); err != nil {
		return nil, fmt.Errorf("failed to create prospect: %w", err)
	}

	s.logActivity(ctx, prospect.ID, "Prospect created",
		fmt.Sprintf("Prospect '%s' was created", prospect.Name))

	dto := s.toDTO(ctx, prospect)
	return &dto, nil
}

func (s *ProspectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProspectDTO, error) {
	prospect, err := s.prospectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := s.toDTO(ctx, prospect)
	return &dto, nil
}

func (s *ProspectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProspectRequest) (*domain.ProspectDTO, error) {
	prospect, err := s.prospectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return nil, ErrProspectConverted
	}

	if req.Name != nil {
		prospect.Name = *req.Name
	}
	if req.Phone != nil {
		prospect.Phone = *req.Phone
	}
	if req.Website != nil {
		prospect.Website = *req.Website
		prospect.Domain = dupmatch.NormalizeDomain(*req.Website)
	}
	if req.Address != nil {
		prospect.Address = *req.Address
	}
	if req.City != nil {
		prospect.City = *req.City
	}
	if req.State != nil {
		prospect.State = *req.State
	}
	if req.Zip != nil {
		prospect.Zip = *req.Zip
	}
	if req.CompanyType != nil {
		prospect.CompanyType = *req.CompanyType
	}
	if req.EmployeeCount != nil {
		prospect.EmployeeCount = req.EmployeeCount
	}
	if req.PropertyCountEstimate != nil {
		prospect.PropertyCountEstimate = req.PropertyCountEstimate
	}
	if req.SqftEstimate != nil {
		prospect.SqftEstimate = req.SqftEstimate
	}
	if req.BuildingTypes != nil {
		prospect.BuildingTypes = req.BuildingTypes
	}
	if req.ICPFitScore != nil {
		prospect.ICPFitScore = *req.ICPFitScore
	}
	if req.Status != nil {
		status := domain.ProspectStatus(*req.Status)
		if !status.IsValid() || status == domain.ProspectStatusConverted {
			return nil, ErrInvalidStatus
		}
		prospect.Status = status
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			prospect.AssignedTo = nil
		} else {
			assigneeID, err := uuid.Parse(*req.AssignedTo)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
			}
			prospect.AssignedTo = &assigneeID
		}
	}
	if req.Source != nil {
		prospect.Source = *req.Source
	}
	if req.Tags != nil {
		prospect.Tags = req.Tags
	}
	if req.Notes != nil {
		prospect.Notes = *req.Notes
	}

	if err := s.prospectRepo.Update(ctx, prospect); err != nil {
		return nil, fmt.Errorf("failed to update prospect: %w", err)
	}

	s.logActivity(ctx, prospect.ID, "Prospect updated",
		fmt.Sprintf("Prospect '%s' was updated", prospect.Name))

	dto := s.toDTO(ctx, prospect)
	return &dto, nil
}

func (s *ProspectService) Delete(ctx context.Context, id uuid.UUID) error {
	prospect, err := s.prospectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return ErrProspectConverted
	}

	if err := s.prospectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete prospect: %w", err)
	}
	return nil
}

func (s *ProspectService) List(ctx context.Context, page, pageSize int, filters *repository.ProspectFilters, sortBy repository.ProspectSortOption) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	prospects, total, err := s.prospectRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list prospects: %w", err)
	}

	assignees := make([]uuid.UUID, 0, len(prospects))
	for _, prospect := range prospects {
		if prospect.AssignedTo != nil {
			assignees = append(assignees, *prospect.AssignedTo)
		}
	}
	names := lookupUserNames(ctx, s.userRepo, assignees)

	dtos := make([]domain.ProspectDTO, len(prospects))
	for i, prospect := range prospects {
		name := ""
		if prospect.AssignedTo != nil {
			name = names[*prospect.AssignedTo]
		}
		dtos[i] = mapper.ToProspectDTO(&prospect, name)
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

func (s *ProspectService) Search(ctx context.Context, query string, limit int) ([]domain.ProspectDTO, error) {
	if limit < 1 || limit > 50 {
		limit = 20
	}

	prospects, err := s.prospectRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search prospects: %w", err)
	}

	dtos := make([]domain.ProspectDTO, len(prospects))
	for i, prospect := range prospects {
		dtos[i] = mapper.ToProspectDTO(&prospect, "")
	}
	return dtos, nil
}

// UpdateStatus moves a prospect through the outreach lifecycle. The converted
// status is terminal and can only be reached through the conversion flow.
func (s *ProspectService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.ProspectDTO, error) {
	newStatus := domain.ProspectStatus(status)
	if !newStatus.IsValid() || newStatus == domain.ProspectStatusConverted {
		return nil, ErrInvalidStatus
	}

	prospect, err := s.prospectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return nil, ErrProspectConverted
	}

	if prospect.Status != newStatus {
		if err := s.prospectRepo.UpdateStatus(ctx, id, newStatus); err != nil {
			return nil, fmt.Errorf("failed to update prospect status: %w", err)
		}

		s.logActivity(ctx, prospect.ID, "Status changed",
			fmt.Sprintf("Status changed from %s to %s", prospect.Status, newStatus))
		prospect.Status = newStatus
	}

	dto := s.toDTO(ctx, prospect)
	return &dto, nil
}

// BulkUpdateStatus applies a status change to many prospects at once.
// Converted prospects are skipped; the returned count covers only the rows
// actually changed.
func (s *ProspectService) BulkUpdateStatus(ctx context.Context, req *domain.BulkProspectStatusRequest) (int64, error) {
	status := domain.ProspectStatus(req.Status)
	if !status.IsValid() || status == domain.ProspectStatusConverted {
		return 0, ErrInvalidStatus
	}

	affected, err := s.prospectRepo.BulkUpdateStatus(ctx, req.IDs, status)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update prospect status: %w", err)
	}

	s.logger.Info("bulk prospect status update",
		zap.Int("requested", len(req.IDs)),
		zap.Int64("affected", affected),
		zap.String("status", string(status)))

	return affected, nil
}

// BulkAssign assigns many prospects to a user. A nil assignee unassigns.
func (s *ProspectService) BulkAssign(ctx context.Context, req *domain.BulkProspectAssignRequest) (int64, error) {
	if req.AssignedTo != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.AssignedTo); err != nil {
			return 0, ErrUserNotFound
		}
	}

	affected, err := s.prospectRepo.BulkAssign(ctx, req.IDs, req.AssignedTo)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk assign prospects: %w", err)
	}

	s.logger.Info("bulk prospect assignment",
		zap.Int("requested", len(req.IDs)),
		zap.Int64("affected", affected))

	return affected, nil
}

func (s *ProspectService) toDTO(ctx context.Context, prospect *domain.Prospect) domain.ProspectDTO {
	name := ""
	if prospect.AssignedTo != nil {
		names := lookupUserNames(ctx, s.userRepo, []uuid.UUID{*prospect.AssignedTo})
		name = names[*prospect.AssignedTo]
	}
	return mapper.ToProspectDTO(prospect, name)
}

func (s *ProspectService) logActivity(ctx context.Context, prospectID uuid.UUID, title, body string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return
	}

	activity := &domain.Activity{
		TenantID:     userCtx.TenantID,
		TargetType:   domain.ActivityTargetProspect,
		TargetID:     prospectID,
		ActivityType: domain.ActivityTypeSystem,
		Title:        title,
		Body:         body,
		CreatorID:    &userCtx.UserID,
		CreatorName:  userCtx.DisplayName,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record prospect activity", zap.Error(err))
	}
}
