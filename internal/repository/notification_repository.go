package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

// NotificationCursor is a keyset position in the created_at DESC, id DESC
// ordering. The id breaks ties between rows created in the same instant.
type NotificationCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// CreateTx creates a notification inside an existing transaction
func (r *NotificationRepository) CreateTx(ctx context.Context, tx *gorm.DB, notification *domain.Notification) error {
	return tx.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notification domain.Notification
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	err := query.First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByUserCursor fetches up to limit+1 notifications for a user, newest
// first, starting strictly after the cursor position. The caller uses the
// extra row to decide whether more pages exist.
func (r *NotificationRepository) ListByUserCursor(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool, after *NotificationCursor) ([]domain.Notification, error) {
	var notifications []domain.Notification

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	query = ApplyTenantFilter(ctx, query)

	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	if after != nil {
		query = query.Where("(created_at, id) < (?, ?)", after.CreatedAt, after.ID)
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&notifications).Error
	return notifications, err
}

// MarkAsRead stamps read_at on a single notification. A notification is
// unread exactly when read_at is null, so marking twice is harmless.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Where("read_at IS NULL"))
	return query.Update("read_at", time.Now()).Error
}

// MarkAllAsRead stamps read_at on every unread notification for the user
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ?", userID).
		Where("read_at IS NULL"))
	result := query.Update("read_at", time.Now())
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ?", userID).
		Where("read_at IS NULL"))
	err := query.Count(&count).Error
	return int(count), err
}

// ExistsSince reports whether the user already got a notification of the
// given type for the entity after the cutoff. Sweep jobs use this to avoid
// re-notifying on every run.
func (r *NotificationRepository) ExistsSince(ctx context.Context, userID uuid.UUID, notificationType string, entityID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND type = ? AND entity_id = ? AND created_at >= ?", userID, notificationType, entityID, since)
	query = ApplyTenantFilter(ctx, query)
	err := query.Count(&count).Error
	return count > 0, err
}

// DeleteOlderThan prunes notifications created before the cutoff
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.Notification{})
	return result.RowsAffected, result.Error
}
