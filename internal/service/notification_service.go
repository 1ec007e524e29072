package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

// NotificationPublisher pushes a notification to any live connections the
// recipient has open. Delivery is best effort.
type NotificationPublisher interface {
	Publish(tenantID domain.TenantID, userID uuid.UUID, notification *domain.NotificationDTO)
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	publisher        NotificationPublisher
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	publisher NotificationPublisher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// EncodeCursor turns a keyset position into an opaque page token
func EncodeCursor(cursor repository.NotificationCursor) string {
	raw := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque page token back into a keyset position
func DecodeCursor(token string) (*repository.NotificationCursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, ErrInvalidCursor
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &repository.NotificationCursor{CreatedAt: createdAt, ID: id}, nil
}

// List returns one cursor page of the caller's notifications, newest first
func (s *NotificationService) List(ctx context.Context, limit int, unreadOnly bool, cursorToken string) (*domain.NotificationPageDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if limit < 1 || limit > 100 {
		limit = 20
	}

	var after *repository.NotificationCursor
	if cursorToken != "" {
		decoded, err := DecodeCursor(cursorToken)
		if err != nil {
			return nil, err
		}
		after = decoded
	}

	notifications, err := s.notificationRepo.ListByUserCursor(ctx, userCtx.UserID, limit, unreadOnly, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &domain.NotificationPageDTO{
		Items: make([]domain.NotificationDTO, 0, limit),
	}

	hasMore := len(notifications) > limit
	if hasMore {
		notifications = notifications[:limit]
	}
	for i := range notifications {
		page.Items = append(page.Items, mapper.ToNotificationDTO(&notifications[i]))
	}
	page.HasMore = hasMore

	if hasMore {
		last := notifications[len(notifications)-1]
		token := EncodeCursor(repository.NotificationCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		page.NextCursor = &token
	}

	return page, nil
}

// CountUnread returns the caller's unread notification count
func (s *NotificationService) CountUnread(ctx context.Context) (int, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUnauthorized
	}
	return s.notificationRepo.CountUnread(ctx, userCtx.UserID)
}

// MarkAsRead marks one of the caller's notifications as read. Marking an
// already-read notification is a no-op.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	return s.notificationRepo.MarkAsRead(ctx, id, userCtx.UserID)
}

// MarkAllAsRead marks all of the caller's unread notifications as read and
// returns how many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUnauthorized
	}
	return s.notificationRepo.MarkAllAsRead(ctx, userCtx.UserID)
}

// Notify persists a notification and pushes it to the recipient's live
// connections. Push failures never fail the write.
func (s *NotificationService) Notify(ctx context.Context, notification *domain.Notification) error {
	if notification.TenantID == "" {
		tenantID := auth.GetEffectiveTenant(ctx)
		if tenantID == nil {
			return ErrUnauthorized
		}
		notification.TenantID = *tenantID
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.publisher != nil {
		dto := mapper.ToNotificationDTO(notification)
		s.publisher.Publish(notification.TenantID, notification.UserID, &dto)
	}

	return nil
}

// Create handles the admin endpoint for injecting a notification directly
func (s *NotificationService) Create(ctx context.Context, req *domain.CreateNotificationRequest) (*domain.NotificationDTO, error) {
	notification := &domain.Notification{
		UserID:     req.UserID,
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
	}

	if err := s.Notify(ctx, notification); err != nil {
		return nil, err
	}

	dto := mapper.ToNotificationDTO(notification)
	return &dto, nil
}

// PruneOlderThan deletes notifications created before the cutoff
func (s *NotificationService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("pruned old notifications", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
