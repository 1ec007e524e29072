package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
)

// OverdueTaskJob sweeps every tenant for open tasks past their due date
// and notifies the assignees.
type OverdueTaskJob struct {
	taskRepo         *repository.TaskRepository
	notificationRepo *repository.NotificationRepository
	notifications    *service.NotificationService
	logger           *zap.Logger
}

func NewOverdueTaskJob(
	taskRepo *repository.TaskRepository,
	notificationRepo *repository.NotificationRepository,
	notifications *service.NotificationService,
	logger *zap.Logger,
) *OverdueTaskJob {
	return &OverdueTaskJob{
		taskRepo:         taskRepo,
		notificationRepo: notificationRepo,
		notifications:    notifications,
		logger:           logger,
	}
}

// Run executes one sweep across all tenants.
func (j *OverdueTaskJob) Run(ctx context.Context) {
	tenants, err := j.taskRepo.ListTenantIDs(ctx)
	if err != nil {
		j.logger.Error("overdue task sweep: failed to list tenants", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	// A task overdue since yesterday should not re-notify today.
	dedupWindow := now.AddDate(0, 0, -1)
	var notified int

	for _, tenantID := range tenants {
		tenantCtx := auth.WithTenantScope(ctx, &auth.TenantScope{TenantID: tenantID})

		tasks, err := j.taskRepo.FindOverdue(tenantCtx, now)
		if err != nil {
			j.logger.Error("overdue task sweep: query failed",
				zap.String("tenant_id", string(tenantID)),
				zap.Error(err))
			continue
		}

		for i := range tasks {
			task := &tasks[i]
			if task.AssignedTo == nil {
				continue
			}

			already, err := j.notificationRepo.ExistsSince(tenantCtx, *task.AssignedTo,
				string(domain.NotificationTypeTaskOverdue), task.ID, dedupWindow)
			if err != nil {
				j.logger.Warn("overdue task sweep: dedup check failed",
					zap.String("task_id", task.ID.String()),
					zap.Error(err))
				continue
			}
			if already {
				continue
			}

			entityID := task.ID
			notification := &domain.Notification{
				TenantID:   tenantID,
				UserID:     *task.AssignedTo,
				Type:       string(domain.NotificationTypeTaskOverdue),
				Title:      "Task overdue",
				Message:    fmt.Sprintf("'%s' was due %s", task.Title, task.DueDate.Format("2006-01-02")),
				EntityID:   &entityID,
				EntityType: "task",
			}
			if err := j.notifications.Notify(tenantCtx, notification); err != nil {
				j.logger.Warn("overdue task sweep: failed to notify",
					zap.String("task_id", task.ID.String()),
					zap.Error(err))
				continue
			}
			notified++
		}
	}

	j.logger.Info("overdue task sweep completed",
		zap.Int("tenants", len(tenants)),
		zap.Int("notified", notified))
}
