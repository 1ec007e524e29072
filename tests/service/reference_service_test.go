package service_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
	"github.com/summitcrm/pipeline-api/internal/service"
	"github.com/summitcrm/pipeline-api/tests/testutil"
)

func newReferenceService(db *gorm.DB) *service.ReferenceService {
	return service.NewReferenceService(
		repository.NewAccountRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewUserRepository(db),
		zap.NewNop(),
	)
}

func TestReferenceService_GetReferenceData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReferenceService(db)
	ctx := testutil.TenantContext()

	account := testutil.CreateTestAccount(t, db, "Reference Fixture "+uuid.NewString()[:8])

	property := &domain.Property{
		TenantID:  testutil.TestTenant,
		AccountID: &account.ID,
		Address:   "742 Evergreen Terrace " + uuid.NewString()[:8],
		City:      "Springfield",
	}
	require.NoError(t, db.Omit(clause.Associations).Create(property).Error)

	user := &domain.User{
		TenantID:    testutil.TestTenant,
		Email:       fmt.Sprintf("ref-%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Reference Rep",
		Roles:       pq.StringArray{"rep"},
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)

	data, err := svc.GetReferenceData(ctx)
	require.NoError(t, err)

	accountsByID := make(map[uuid.UUID]domain.AccountRefDTO, len(data.Accounts))
	for _, a := range data.Accounts {
		accountsByID[a.ID] = a
	}
	require.Contains(t, accountsByID, account.ID)
	assert.Equal(t, account.Name, accountsByID[account.ID].Name)

	propertiesByID := make(map[uuid.UUID]domain.PropertyRefDTO, len(data.Properties))
	for _, p := range data.Properties {
		propertiesByID[p.ID] = p
	}
	require.Contains(t, propertiesByID, property.ID)
	assert.Equal(t, property.Address, propertiesByID[property.ID].Address)

	var foundUser bool
	for _, u := range data.Users {
		if u.ID == user.ID {
			foundUser = true
			assert.Equal(t, "Reference Rep", u.DisplayName)
		}
	}
	assert.True(t, foundUser, "seeded user should appear in the team list")

	assert.NotEmpty(t, data.ProspectStatuses)
	assert.NotEmpty(t, data.AccountStages)
	assert.NotEmpty(t, data.OpportunityStages)
	assert.NotEmpty(t, data.OpportunityTypes)
	assert.NotEmpty(t, data.TaskStatuses)
}

func TestReferenceService_ScopedToTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReferenceService(db)

	account := testutil.CreateTestAccount(t, db, "Tenant Scoped "+uuid.NewString()[:8])

	data, err := svc.GetReferenceData(testutil.TenantContextFor("other-tenant"))
	require.NoError(t, err)

	for _, a := range data.Accounts {
		assert.NotEqual(t, account.ID, a.ID, "accounts from another tenant must not leak")
	}
}
