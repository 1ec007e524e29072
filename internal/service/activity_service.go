package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

type ActivityService struct {
	activityRepo *repository.ActivityRepository
	prospectRepo *repository.ProspectRepository
	logger       *zap.Logger
}

func NewActivityService(
	activityRepo *repository.ActivityRepository,
	prospectRepo *repository.ProspectRepository,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		prospectRepo: prospectRepo,
		logger:       logger,
	}
}

func (s *ActivityService) Create(ctx context.Context, req *domain.CreateActivityRequest) (*domain.ActivityDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	targetType := domain.ActivityTargetType(req.TargetType)
	if !targetType.IsValid() {
		return nil, fmt.Errorf("%w: unknown target type", ErrInvalidInput)
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid target id", ErrInvalidInput)
	}

	activityType := domain.ActivityTypeNote
	if req.ActivityType != "" {
		activityType = domain.ActivityType(req.ActivityType)
		if !activityType.IsValid() {
			return nil, fmt.Errorf("%w: unknown activity type", ErrInvalidInput)
		}
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("%w: occurredAt must be RFC 3339", ErrInvalidInput)
		}
		occurredAt = parsed
	}

	activity := &domain.Activity{
		TenantID:     userCtx.TenantID,
		TargetType:   targetType,
		TargetID:     targetID,
		ActivityType: activityType,
		Title:        req.Title,
		Body:         req.Body,
		OccurredAt:   occurredAt,
		CreatorID:    &userCtx.UserID,
		CreatorName:  userCtx.DisplayName,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	// Activity on a prospect bumps its last-activity marker so staleness
	// detection stays accurate
	if targetType == domain.ActivityTargetProspect {
		if err := s.prospectRepo.TouchActivity(ctx, targetID, occurredAt); err != nil {
			s.logger.Warn("failed to touch prospect activity timestamp",
				zap.String("prospect_id", targetID.String()), zap.Error(err))
		}
	}

	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) List(ctx context.Context, page, pageSize int, targetType *domain.ActivityTargetType, targetID *uuid.UUID) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	activities, total, err := s.activityRepo.List(ctx, page, pageSize, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	dtos := make([]domain.ActivityDTO, len(activities))
	for i, activity := range activities {
		dtos[i] = mapper.ToActivityDTO(&activity)
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

// ListByTarget returns the most recent activities for one entity
func (s *ActivityService) ListByTarget(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, limit int) ([]domain.ActivityDTO, error) {
	if !targetType.IsValid() {
		return nil, fmt.Errorf("%w: unknown target type", ErrInvalidInput)
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	activities, err := s.activityRepo.ListByTarget(ctx, targetType, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	dtos := make([]domain.ActivityDTO, len(activities))
	for i, activity := range activities {
		dtos[i] = mapper.ToActivityDTO(&activity)
	}
	return dtos, nil
}

func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.activityRepo.Delete(ctx, id)
}
