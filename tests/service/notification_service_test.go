package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
	"github.com/summitcrm/pipeline-api/tests/testutil"
)

// capturingPublisher records pushed notifications for assertions
type capturingPublisher struct {
	published []*domain.NotificationDTO
}

func (p *capturingPublisher) Publish(tenantID domain.TenantID, userID uuid.UUID, notification *domain.NotificationDTO) {
	p.published = append(p.published, notification)
}

func userContext(userID uuid.UUID) context.Context {
	userCtx := &auth.UserContext{
		UserID:      userID,
		DisplayName: "Test User",
		Email:       "test@example.com",
		TenantID:    testutil.TestTenant,
		Roles:       []domain.UserRoleType{domain.RoleRep},
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := repository.NotificationCursor{
		CreatedAt: time.Date(2026, 8, 1, 12, 30, 45, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	token := service.EncodeCursor(cursor)
	decoded, err := service.DecodeCursor(token)

	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.Equal(cursor.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)
}

func TestDecodeCursor_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!not-base64!!"},
		{"no separator", "bm8tc2VwYXJhdG9y"},
		{"bad timestamp", "bm90LWEtdGltZXxub3QtYW4taWQ="},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := service.DecodeCursor(tt.token)
			assert.ErrorIs(t, err, service.ErrInvalidCursor)
			assert.Nil(t, decoded)
		})
	}
}

func TestNotificationService_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, nil, zap.NewNop())

	userID := uuid.New()
	ctx := userContext(userID)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		n := &domain.Notification{
			TenantID: testutil.TestTenant,
			UserID:   userID,
			Type:     string(domain.NotificationTypeTaskAssigned),
			Title:    "Page Notification",
			Message:  "message",
		}
		require.NoError(t, db.Create(n).Error)
		require.NoError(t, db.Model(n).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	t.Run("first page has more", func(t *testing.T) {
		page, err := svc.List(ctx, 2, false, "")
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)
		require.NotNil(t, page.NextCursor)
	})

	t.Run("cursor walks the whole feed without duplicates", func(t *testing.T) {
		seen := map[uuid.UUID]bool{}
		cursor := ""
		for {
			page, err := svc.List(ctx, 2, false, cursor)
			require.NoError(t, err)
			for _, item := range page.Items {
				assert.False(t, seen[item.ID], "duplicate item in feed")
				seen[item.ID] = true
			}
			if !page.HasMore {
				break
			}
			require.NotNil(t, page.NextCursor)
			cursor = *page.NextCursor
		}
		assert.Len(t, seen, 5)
	})

	t.Run("malformed cursor", func(t *testing.T) {
		page, err := svc.List(ctx, 2, false, "!!bad!!")
		assert.ErrorIs(t, err, service.ErrInvalidCursor)
		assert.Nil(t, page)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		page, err := svc.List(context.Background(), 2, false, "")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
		assert.Nil(t, page)
	})

	t.Run("out of range limit falls back to default", func(t *testing.T) {
		page, err := svc.List(ctx, 0, false, "")
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)
	})
}

func TestNotificationService_Notify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	publisher := &capturingPublisher{}
	svc := service.NewNotificationService(repo, publisher, zap.NewNop())

	userID := uuid.New()
	ctx := userContext(userID)

	notification := &domain.Notification{
		UserID:  userID,
		Type:    string(domain.NotificationTypeStageChanged),
		Title:   "Stage changed",
		Message: "An opportunity moved stages",
	}

	err := svc.Notify(ctx, notification)
	require.NoError(t, err)

	// Tenant is stamped from the caller's context
	assert.Equal(t, testutil.TestTenant, notification.TenantID)
	assert.NotEqual(t, uuid.Nil, notification.ID)

	// Pushed to live connections
	require.Len(t, publisher.published, 1)
	assert.Equal(t, notification.ID, publisher.published[0].ID)
	assert.True(t, publisher.published[0].Unread)
}

func TestNotificationService_Notify_NoTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, nil, zap.NewNop())

	notification := &domain.Notification{
		UserID:  uuid.New(),
		Type:    string(domain.NotificationTypeStageChanged),
		Title:   "Stage changed",
		Message: "message",
	}

	err := svc.Notify(context.Background(), notification)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestNotificationService_MarkAsReadFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, nil, zap.NewNop())

	userID := uuid.New()
	ctx := userContext(userID)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&domain.Notification{
			TenantID: testutil.TestTenant,
			UserID:   userID,
			Type:     string(domain.NotificationTypeTaskAssigned),
			Title:    "Unread",
			Message:  "message",
		}).Error)
	}

	count, err := svc.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	page, err := svc.List(ctx, 10, true, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	err = svc.MarkAsRead(ctx, page.Items[0].ID)
	require.NoError(t, err)

	count, err = svc.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	updated, err := svc.MarkAllAsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err = svc.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNotificationService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	publisher := &capturingPublisher{}
	svc := service.NewNotificationService(repo, publisher, zap.NewNop())

	recipient := uuid.New()
	ctx := userContext(uuid.New())
	entityID := uuid.New()

	dto, err := svc.Create(ctx, &domain.CreateNotificationRequest{
		UserID:     recipient,
		Type:       string(domain.NotificationTypeOpportunityWon),
		Title:      "Opportunity won",
		Message:    "The bid was accepted",
		EntityID:   &entityID,
		EntityType: "opportunity",
	})

	require.NoError(t, err)
	assert.Equal(t, recipient, dto.UserID)
	assert.True(t, dto.Unread)
	assert.Len(t, publisher.published, 1)
}

func TestNotificationService_PruneOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, nil, zap.NewNop())

	userID := uuid.New()
	ctx := userContext(userID)

	old := &domain.Notification{
		TenantID: testutil.TestTenant,
		UserID:   userID,
		Type:     string(domain.NotificationTypeTaskAssigned),
		Title:    "Old",
		Message:  "message",
	}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-72*time.Hour)).Error)

	deleted, err := svc.PruneOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))
}
