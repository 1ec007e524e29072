package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

type OpportunityService struct {
	opportunityRepo *repository.OpportunityRepository
	historyRepo     *repository.StageHistoryRepository
	accountRepo     *repository.AccountRepository
	propertyRepo    *repository.PropertyRepository
	activityRepo    *repository.ActivityRepository
	userRepo        *repository.UserRepository
	notifications   *NotificationService
	logger          *zap.Logger
}

func NewOpportunityService(
	opportunityRepo *repository.OpportunityRepository,
	historyRepo *repository.StageHistoryRepository,
	accountRepo *repository.AccountRepository,
	propertyRepo *repository.PropertyRepository,
	activityRepo *repository.ActivityRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		historyRepo:     historyRepo,
		accountRepo:     accountRepo,
		propertyRepo:    propertyRepo,
		activityRepo:    activityRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		logger:          logger,
	}
}

func (s *OpportunityService) Create(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID == nil {
		return nil, ErrUnauthorized
	}

	oppType := domain.OpportunityTypeNewBusiness
	if req.OpportunityType != "" {
		oppType = domain.OpportunityType(req.OpportunityType)
		if !oppType.IsValid() {
			return nil, fmt.Errorf("%w: unknown opportunity type", ErrInvalidInput)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	opp := &domain.Opportunity{
		TenantID:        *tenantID,
		Name:            req.Name,
		OpportunityType: oppType,
		Stage:           domain.OpportunityStageIdentified,
		BidValue:        req.BidValue,
		Currency:        currency,
		Probability:     req.Probability,
		Notes:           req.Notes,
	}

	if req.ExpectedCloseDate != nil {
		closeDate, err := time.Parse("2006-01-02", *req.ExpectedCloseDate)
		if err != nil {
			return nil, fmt.Errorf("%w: expected close date must be YYYY-MM-DD", ErrInvalidInput)
		}
		opp.ExpectedCloseDate = &closeDate
	}
	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid account id", ErrInvalidInput)
		}
		if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		opp.AccountID = &accountID
	}
	if req.PropertyID != nil {
		propertyID, err := uuid.Parse(*req.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid property id", ErrInvalidInput)
		}
		if _, err := s.propertyRepo.GetByID(ctx, propertyID); err != nil {
			return nil, fmt.Errorf("property not found: %w", err)
		}
		opp.PropertyID = &propertyID
	}
	if req.AssignedTo != nil {
		assigneeID, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
		}
		opp.AssignedTo = &assigneeID
	}

	err := s.opportunityRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.opportunityRepo.CreateTx(ctx, tx, opp); err != nil {
			return err
		}
		return s.recordStageChangeTx(ctx, tx, opp.ID, nil, opp.Stage, "")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.logActivity(ctx, opp.ID, "Opportunity created",
		fmt.Sprintf("Opportunity '%s' was created", opp.Name))

	return s.GetByID(ctx, opp.ID)
}

func (s *OpportunityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OpportunityDTO, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(ctx, opp)
	return &dto, nil
}

func (s *OpportunityService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateOpportunityRequest) (*domain.OpportunityDTO, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		opp.Name = *req.Name
	}
	if req.OpportunityType != nil {
		oppType := domain.OpportunityType(*req.OpportunityType)
		if !oppType.IsValid() {
			return nil, fmt.Errorf("%w: unknown opportunity type", ErrInvalidInput)
		}
		opp.OpportunityType = oppType
	}
	if req.BidValue != nil {
		opp.BidValue = req.BidValue
	}
	if req.Currency != nil {
		opp.Currency = *req.Currency
	}
	if req.Probability != nil {
		opp.Probability = *req.Probability
	}
	if req.ExpectedCloseDate != nil {
		if *req.ExpectedCloseDate == "" {
			opp.ExpectedCloseDate = nil
		} else {
			closeDate, err := time.Parse("2006-01-02", *req.ExpectedCloseDate)
			if err != nil {
				return nil, fmt.Errorf("%w: expected close date must be YYYY-MM-DD", ErrInvalidInput)
			}
			opp.ExpectedCloseDate = &closeDate
		}
	}
	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid account id", ErrInvalidInput)
		}
		if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		opp.AccountID = &accountID
	}
	if req.PropertyID != nil {
		propertyID, err := uuid.Parse(*req.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid property id", ErrInvalidInput)
		}
		opp.PropertyID = &propertyID
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			opp.AssignedTo = nil
		} else {
			assigneeID, err := uuid.Parse(*req.AssignedTo)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
			}
			opp.AssignedTo = &assigneeID
		}
	}
	if req.Notes != nil {
		opp.Notes = *req.Notes
	}

	// Stage changes go through UpdateStage so history stays consistent
	if err := s.opportunityRepo.Update(ctx, opp); err != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *OpportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.opportunityRepo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.opportunityRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.historyRepo.DeleteByOpportunityID(ctx, id); err != nil {
			return err
		}
		return s.opportunityRepo.Delete(ctx, id)
	})
}

func (s *OpportunityService) List(ctx context.Context, page, pageSize int, filters *repository.OpportunityFilters, sortBy repository.OpportunitySortOption) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	opportunities, total, err := s.opportunityRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	assignees := make([]uuid.UUID, 0, len(opportunities))
	for _, opp := range opportunities {
		if opp.AssignedTo != nil {
			assignees = append(assignees, *opp.AssignedTo)
		}
	}
	names := lookupUserNames(ctx, s.userRepo, assignees)

	dtos := make([]domain.OpportunityDTO, len(opportunities))
	for i, opp := range opportunities {
		name := ""
		if opp.AssignedTo != nil {
			name = names[*opp.AssignedTo]
		}
		dtos[i] = mapper.ToOpportunityDTO(&opp, name)
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

// UpdateStage moves an opportunity to a new pipeline stage, records the
// transition, and notifies the assignee when the opportunity closes.
// Transitions are advisory: any stage may move to any other, so a
// mistakenly closed opportunity can be reopened.
func (s *OpportunityService) UpdateStage(ctx context.Context, id uuid.UUID, req *domain.UpdateOpportunityStageRequest) (*domain.OpportunityDTO, error) {
	newStage := domain.OpportunityStage(req.Stage)
	if !newStage.IsValid() {
		return nil, ErrInvalidStage
	}

	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if opp.Stage == newStage {
		dto := s.toDTO(ctx, opp)
		return &dto, nil
	}

	fromStage := opp.Stage
	err = s.opportunityRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.opportunityRepo.UpdateStage(ctx, tx, id, newStage); err != nil {
			return err
		}
		return s.recordStageChangeTx(ctx, tx, id, &fromStage, newStage, req.Notes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update opportunity stage: %w", err)
	}

	s.logActivity(ctx, id, "Stage changed",
		fmt.Sprintf("Stage changed from %s to %s", fromStage, newStage))

	s.notifyStageChange(ctx, opp, newStage)

	return s.GetByID(ctx, id)
}

// BulkUpdateStage applies one stage change to a set of opportunities. Records
// are updated independently so one bad id never blocks the rest; the outcome
// is reported per id.
func (s *OpportunityService) BulkUpdateStage(ctx context.Context, req *domain.BulkOpportunityStageRequest) ([]domain.BulkStageResultDTO, error) {
	newStage := domain.OpportunityStage(req.Stage)
	if !newStage.IsValid() {
		return nil, ErrInvalidStage
	}

	results := make([]domain.BulkStageResultDTO, 0, len(req.IDs))
	for _, id := range req.IDs {
		result := domain.BulkStageResultDTO{ID: id}
		_, err := s.UpdateStage(ctx, id, &domain.UpdateOpportunityStageRequest{
			Stage: req.Stage,
			Notes: req.Notes,
		})
		switch {
		case err == nil:
			result.Updated = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.Error = "opportunity not found"
		default:
			s.logger.Error("bulk stage update failed for opportunity",
				zap.String("opportunityId", id.String()), zap.Error(err))
			result.Error = "update failed"
		}
		results = append(results, result)
	}

	s.logger.Info("bulk opportunity stage update",
		zap.Int("requested", len(req.IDs)),
		zap.String("stage", req.Stage))

	return results, nil
}

// GetStageHistory returns the full stage transition log for an opportunity
func (s *OpportunityService) GetStageHistory(ctx context.Context, id uuid.UUID) ([]domain.OpportunityStageHistoryDTO, error) {
	if _, err := s.opportunityRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.historyRepo.GetByOpportunityID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage history: %w", err)
	}

	dtos := make([]domain.OpportunityStageHistoryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = mapper.ToStageHistoryDTO(&entry)
	}
	return dtos, nil
}

func (s *OpportunityService) recordStageChangeTx(ctx context.Context, tx *gorm.DB, oppID uuid.UUID, from *domain.OpportunityStage, to domain.OpportunityStage, notes string) error {
	entry := &domain.OpportunityStageHistory{
		OpportunityID: oppID,
		FromStage:     from,
		ToStage:       to,
		Notes:         notes,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		entry.ChangedByID = &userCtx.UserID
		entry.ChangedByName = userCtx.DisplayName
	}
	return s.historyRepo.CreateTx(ctx, tx, entry)
}

func (s *OpportunityService) notifyStageChange(ctx context.Context, opp *domain.Opportunity, newStage domain.OpportunityStage) {
	if opp.AssignedTo == nil || s.notifications == nil {
		return
	}
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx.UserID == *opp.AssignedTo {
		// No point notifying the person who made the change
		return
	}

	var notificationType domain.NotificationType
	var title string
	switch newStage {
	case domain.OpportunityStageWon:
		notificationType = domain.NotificationTypeOpportunityWon
		title = "Opportunity won"
	case domain.OpportunityStageLost:
		notificationType = domain.NotificationTypeOpportunityLost
		title = "Opportunity lost"
	default:
		notificationType = domain.NotificationTypeStageChanged
		title = "Opportunity stage changed"
	}

	notification := &domain.Notification{
		TenantID:   opp.TenantID,
		UserID:     *opp.AssignedTo,
		Type:       string(notificationType),
		Title:      title,
		Message:    fmt.Sprintf("'%s' moved to %s", opp.Name, newStage),
		EntityID:   &opp.ID,
		EntityType: "opportunity",
	}
	if err := s.notifications.Notify(ctx, notification); err != nil {
		s.logger.Warn("failed to send stage change notification", zap.Error(err))
	}
}

func (s *OpportunityService) toDTO(ctx context.Context, opp *domain.Opportunity) domain.OpportunityDTO {
	name := ""
	if opp.AssignedTo != nil {
		names := lookupUserNames(ctx, s.userRepo, []uuid.UUID{*opp.AssignedTo})
		name = names[*opp.AssignedTo]
	}
	return mapper.ToOpportunityDTO(opp, name)
}

func (s *OpportunityService) logActivity(ctx context.Context, oppID uuid.UUID, title, body string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return
	}

	activity := &domain.Activity{
		TenantID:     userCtx.TenantID,
		TargetType:   domain.ActivityTargetOpportunity,
		TargetID:     oppID,
		ActivityType: domain.ActivityTypeSystem,
		Title:        title,
		Body:         body,
		CreatorID:    &userCtx.UserID,
		CreatorName:  userCtx.DisplayName,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record opportunity activity", zap.Error(err))
	}
}
