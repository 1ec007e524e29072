package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/tests/testutil"
)

func createTestActivity(t *testing.T, db *gorm.DB, target *domain.Prospect, activityType domain.ActivityType) *domain.Activity {
	activity := &domain.Activity{
		TenantID:     testutil.TestTenant,
		TargetType:   domain.ActivityTargetProspect,
		TargetID:     target.ID,
		ActivityType: activityType,
		Title:        "Test Activity",
		Body:         "Test activity body",
		OccurredAt:   time.Now(),
		CreatorName:  "Test User",
	}
	err := db.Create(activity).Error
	require.NoError(t, err)
	return activity
}

func TestActivityRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewActivityRepository(db)
	prospect := testutil.CreateTestProspect(t, db, "Activity Test Prospect")
	ctx := testutil.TenantContext()

	t.Run("create activity with minimal fields", func(t *testing.T) {
		activity := &domain.Activity{
			TenantID:     testutil.TestTenant,
			TargetType:   domain.ActivityTargetProspect,
			TargetID:     prospect.ID,
			ActivityType: domain.ActivityTypeNote,
			Title:        "New Activity",
			OccurredAt:   time.Now(),
		}

		err := repo.Create(ctx, activity)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, activity.ID)
	})

	t.Run("create activity with all fields", func(t *testing.T) {
		creatorID := uuid.New()
		activity := &domain.Activity{
			TenantID:     testutil.TestTenant,
			TargetType:   domain.ActivityTargetProspect,
			TargetID:     prospect.ID,
			ActivityType: domain.ActivityTypeCall,
			Title:        "Full Activity",
			Body:         "Activity with all fields",
			OccurredAt:   time.Now(),
			CreatorID:    &creatorID,
			CreatorName:  "Full User",
		}

		err := repo.Create(ctx, activity)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, activity.ID)
	})
}

func TestActivityRepository_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewActivityRepository(db)
	prospect := testutil.CreateTestProspect(t, db, "Activity GetByID Prospect")
	ctx := testutil.TenantContext()

	t.Run("get existing activity", func(t *testing.T) {
		activity := createTestActivity(t, db, prospect, domain.ActivityTypeEmail)

		found, err := repo.GetByID(ctx, activity.ID)
		assert.NoError(t, err)
		assert.NotNil(t, found)
		assert.Equal(t, activity.Title, found.Title)
		assert.Equal(t, activity.TargetType, found.TargetType)
		assert.Equal(t, activity.TargetID, found.TargetID)
		assert.Equal(t, activity.ActivityType, found.ActivityType)
	})

	t.Run("get non-existent activity", func(t *testing.T) {
		found, err := repo.GetByID(ctx, uuid.New())
		assert.Error(t, err)
		assert.Nil(t, found)
	})

	t.Run("other tenant cannot read the activity", func(t *testing.T) {
		activity := createTestActivity(t, db, prospect, domain.ActivityTypeNote)

		otherCtx := testutil.TenantContextFor("some-other-tenant")
		found, err := repo.GetByID(otherCtx, activity.ID)
		assert.Error(t, err)
		assert.Nil(t, found)
	})
}

func TestActivityRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewActivityRepository(db)
	prospect := testutil.CreateTestProspect(t, db, "Activity Delete Prospect")
	ctx := testutil.TenantContext()

	t.Run("delete existing activity", func(t *testing.T) {
		activity := createTestActivity(t, db, prospect, domain.ActivityTypeNote)

		err := repo.Delete(ctx, activity.ID)
		assert.NoError(t, err)

		found, err := repo.GetByID(ctx, activity.ID)
		assert.Error(t, err)
		assert.Nil(t, found)
	})

	t.Run("delete non-existent activity", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "activity not found")
	})
}

func TestActivityRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewActivityRepository(db)
	prospect := testutil.CreateTestProspect(t, db, "Activity List Prospect")
	ctx := testutil.TenantContext()

	activities := []*domain.Activity{
		{TenantID: testutil.TestTenant, TargetType: domain.ActivityTargetProspect, TargetID: prospect.ID, Title: "Activity 1", OccurredAt: time.Now(), ActivityType: domain.ActivityTypeNote},
		{TenantID: testutil.TestTenant, TargetType: domain.ActivityTargetProspect, TargetID: prospect.ID, Title: "Activity 2", OccurredAt: time.Now(), ActivityType: domain.ActivityTypeCall},
		{TenantID: testutil.TestTenant, TargetType: domain.ActivityTargetProspect, TargetID: prospect.ID, Title: "Activity 3", OccurredAt: time.Now(), ActivityType: domain.ActivityTypeEmail},
	}
	for _, a := range activities {
		err := db.Create(a).Error
		require.NoError(t, err)
	}

	t.Run("list by target", func(t *testing.T) {
		// Filter by prospect ID to isolate test data from other tests
		targetType := domain.ActivityTargetProspect
		result, total, err := repo.List(ctx, 1, 10, &targetType, &prospect.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, result, 3)
	})

	t.Run("pagination", func(t *testing.T) {
		targetType := domain.ActivityTargetProspect
		result, total, err := repo.List(ctx, 1, 2, &targetType, &prospect.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, result, 2)

		result, total, err = repo.List(ctx, 2, 2, &targetType, &prospect.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, result, 1)
	})
}

func TestActivityRepository_ListByTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewActivityRepository(db)
	prospect1 := testutil.CreateTestProspect(t, db, "ListByTarget First")
	prospect2 := testutil.CreateTestProspect(t, db, "ListByTarget Second")
	ctx := testutil.TenantContext()

	for i := 0; i < 3; i++ {
		err := db.Create(&domain.Activity{
			TenantID:     testutil.TestTenant,
			TargetType:   domain.ActivityTargetProspect,
			TargetID:     prospect1.ID,
			Title:        "Prospect 1 Activity",
			OccurredAt:   time.Now().Add(time.Duration(-i) * time.Hour),
			ActivityType: domain.ActivityTypeNote,
		}).Error
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		err := db.Create(&domain.Activity{
			TenantID:     testutil.TestTenant,
			TargetType:   domain.ActivityTargetProspect,
			TargetID:     prospect2.ID,
			Title:        "Prospect 2 Activity",
			OccurredAt:   time.Now(),
			ActivityType: domain.ActivityTypeNote,
		}).Error
		require.NoError(t, err)
	}

	t.Run("list activities by target", func(t *testing.T) {
		result, err := repo.ListByTarget(ctx, domain.ActivityTargetProspect, prospect1.ID, 10)
		assert.NoError(t, err)
		assert.Len(t, result, 3)

		for _, activity := range result {
			assert.Equal(t, prospect1.ID, activity.TargetID)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		result, err := repo.ListByTarget(ctx, domain.ActivityTargetProspect, prospect1.ID, 10)
		require.NoError(t, err)
		require.Len(t, result, 3)
		for i := 1; i < len(result); i++ {
			assert.True(t, !result[i].OccurredAt.After(result[i-1].OccurredAt))
		}
	})

	t.Run("list with limit", func(t *testing.T) {
		result, err := repo.ListByTarget(ctx, domain.ActivityTargetProspect, prospect1.ID, 2)
		assert.NoError(t, err)
		assert.Len(t, result, 2)
	})
}
