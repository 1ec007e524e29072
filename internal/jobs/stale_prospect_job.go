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

// StaleProspectJob sweeps every tenant for assigned prospects with no
// activity inside the configured window and notifies their owners.
type StaleProspectJob struct {
	prospectRepo     *repository.ProspectRepository
	notificationRepo *repository.NotificationRepository
	notifications    *service.NotificationService
	staleDays        int
	logger           *zap.Logger
}

func NewStaleProspectJob(
	prospectRepo *repository.ProspectRepository,
	notificationRepo *repository.NotificationRepository,
	notifications *service.NotificationService,
	staleDays int,
	logger *zap.Logger,
) *StaleProspectJob {
	if staleDays <= 0 {
		staleDays = 14
	}
	return &StaleProspectJob{
		prospectRepo:     prospectRepo,
		notificationRepo: notificationRepo,
		notifications:    notifications,
		staleDays:        staleDays,
		logger:           logger,
	}
}

// Run executes one sweep across all tenants.
func (j *StaleProspectJob) Run(ctx context.Context) {
	tenants, err := j.prospectRepo.ListTenantIDs(ctx)
	if err != nil {
		j.logger.Error("stale prospect sweep: failed to list tenants", zap.Error(err))
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.staleDays)
	var notified int

	for _, tenantID := range tenants {
		tenantCtx := auth.WithTenantScope(ctx, &auth.TenantScope{TenantID: tenantID})

		prospects, err := j.prospectRepo.FindStale(tenantCtx, cutoff)
		if err != nil {
			j.logger.Error("stale prospect sweep: query failed",
				zap.String("tenant_id", string(tenantID)),
				zap.Error(err))
			continue
		}

		for i := range prospects {
			prospect := &prospects[i]
			if prospect.AssignedTo == nil {
				continue
			}

			// One reminder per prospect per window, not one per run.
			already, err := j.notificationRepo.ExistsSince(tenantCtx, *prospect.AssignedTo,
				string(domain.NotificationTypeProspectStale), prospect.ID, cutoff)
			if err != nil {
				j.logger.Warn("stale prospect sweep: dedup check failed",
					zap.String("prospect_id", prospect.ID.String()),
					zap.Error(err))
				continue
			}
			if already {
				continue
			}

			entityID := prospect.ID
			notification := &domain.Notification{
				TenantID:   tenantID,
				UserID:     *prospect.AssignedTo,
				Type:       string(domain.NotificationTypeProspectStale),
				Title:      "Prospect going stale",
				Message:    fmt.Sprintf("No activity on '%s' for %d days", prospect.Name, j.staleDays),
				EntityID:   &entityID,
				EntityType: "prospect",
			}
			if err := j.notifications.Notify(tenantCtx, notification); err != nil {
				j.logger.Warn("stale prospect sweep: failed to notify",
					zap.String("prospect_id", prospect.ID.String()),
					zap.Error(err))
				continue
			}
			notified++
		}
	}

	j.logger.Info("stale prospect sweep completed",
		zap.Int("tenants", len(tenants)),
		zap.Int("notified", notified))
}
