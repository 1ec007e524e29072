package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

// ActivityRepository handles database operations for activities.
//
// Index recommendations for optimal query performance:
// - CREATE INDEX idx_activities_target ON activities(target_type, target_id);
// - CREATE INDEX idx_activities_occurred_at ON activities(occurred_at);
// - CREATE INDEX idx_activities_tenant_id ON activities(tenant_id);
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// CreateTx creates an activity inside an existing transaction
func (r *ActivityRepository) CreateTx(ctx context.Context, tx *gorm.DB, activity *domain.Activity) error {
	return tx.WithContext(ctx).Create(activity).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// Delete removes an activity by ID
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Verify the activity exists and user has access before deleting
	_, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("activity not found: %w", err)
	}

	return r.db.WithContext(ctx).Delete(&domain.Activity{}, "id = ?", id).Error
}

func (r *ActivityRepository) List(ctx context.Context, page, pageSize int, targetType *domain.ActivityTargetType, targetID *uuid.UUID) ([]domain.Activity, int64, error) {
	var activities []domain.Activity
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Activity{})
	query = ApplyTenantFilter(ctx, query)

	if targetType != nil {
		query = query.Where("target_type = ?", *targetType)
	}

	if targetID != nil {
		query = query.Where("target_id = ?", *targetID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("occurred_at DESC").Find(&activities).Error

	return activities, total, err
}

// ListByTarget returns recent activities for a single entity, newest first
func (r *ActivityRepository) ListByTarget(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("occurred_at DESC").Limit(limit).Find(&activities).Error
	return activities, err
}
