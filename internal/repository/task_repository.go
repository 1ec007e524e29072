package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

// TaskFilters contains filter options for listing tasks
type TaskFilters struct {
	Status     *domain.TaskStatus
	AssignedTo *uuid.UUID
	TargetType *domain.ActivityTargetType
	TargetID   *uuid.UUID
	DueBefore  *time.Time
	DueAfter   *time.Time
	OpenOnly   *bool
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	err := query.First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	return query.Delete(&domain.Task{}).Error
}

func (r *TaskRepository) List(ctx context.Context, page, pageSize int, filters *TaskFilters) ([]domain.Task, int64, error) {
	var tasks []domain.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Task{})
	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("due_date ASC NULLS LAST, created_at DESC").Find(&tasks).Error

	return tasks, total, err
}

// FindOverdue returns open or in-progress tasks whose due date has passed.
// Used by the overdue task sweep.
func (r *TaskRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]domain.Task, error) {
	var tasks []domain.Task
	query := r.db.WithContext(ctx).
		Where("status IN ?", []domain.TaskStatus{domain.TaskStatusOpen, domain.TaskStatusInProgress}).
		Where("due_date IS NOT NULL AND due_date < ?", asOf)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("due_date ASC").Find(&tasks).Error
	return tasks, err
}

// ListTenantIDs returns the distinct tenants that own tasks
func (r *TaskRepository) ListTenantIDs(ctx context.Context) ([]domain.TenantID, error) {
	var ids []domain.TenantID
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

func (r *TaskRepository) applyFilters(query *gorm.DB, filters *TaskFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}

	if filters.TargetType != nil {
		query = query.Where("target_type = ?", *filters.TargetType)
	}

	if filters.TargetID != nil {
		query = query.Where("target_id = ?", *filters.TargetID)
	}

	if filters.DueBefore != nil {
		query = query.Where("due_date < ?", *filters.DueBefore)
	}

	if filters.DueAfter != nil {
		query = query.Where("due_date >= ?", *filters.DueAfter)
	}

	if filters.OpenOnly != nil && *filters.OpenOnly {
		query = query.Where("status IN ?", []domain.TaskStatus{domain.TaskStatusOpen, domain.TaskStatusInProgress})
	}

	return query
}
