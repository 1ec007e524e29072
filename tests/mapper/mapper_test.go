package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitcrm/pipeline-api/internal/conversion"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
)

func TestToProspectDTO(t *testing.T) {
	now := time.Now()
	lastActivity := now.Add(-time.Hour)
	assignee := uuid.New()
	employees := 120

	prospect := &domain.Prospect{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:           "Summit Holdings",
		Phone:          "555-0100",
		Website:        "https://summit.example.com",
		Domain:         "summit.example.com",
		Address:        "123 Main St",
		City:           "Denver",
		State:          "CO",
		Zip:            "80202",
		CompanyType:    "property_manager",
		EmployeeCount:  &employees,
		BuildingTypes:  pq.StringArray{"office", "retail"},
		ICPFitScore:    82,
		Status:         domain.ProspectStatusContacted,
		AssignedTo:     &assignee,
		Source:         "import",
		Tags:           pq.StringArray{"priority"},
		Notes:          "Met at trade show",
		LastActivityAt: &lastActivity,
	}

	dto := mapper.ToProspectDTO(prospect, "Jordan Smith")

	assert.Equal(t, prospect.ID, dto.ID)
	assert.Equal(t, prospect.Name, dto.Name)
	assert.Equal(t, prospect.Domain, dto.Domain)
	assert.Equal(t, prospect.City, dto.City)
	assert.Equal(t, prospect.EmployeeCount, dto.EmployeeCount)
	assert.EqualValues(t, prospect.BuildingTypes, dto.BuildingTypes)
	assert.Equal(t, 82, dto.ICPFitScore)
	assert.Equal(t, domain.ProspectStatusContacted, dto.Status)
	assert.Equal(t, &assignee, dto.AssignedTo)
	assert.Equal(t, "Jordan Smith", dto.AssignedToName)
	require.NotNil(t, dto.LastActivityAt)
	assert.NotEmpty(t, dto.CreatedAt)
	assert.NotEmpty(t, dto.UpdatedAt)
}

func TestToProspectDTO_UnassignedWithoutActivity(t *testing.T) {
	prospect := &domain.Prospect{
		BaseModel: domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:      "Quiet Prospect",
		Status:    domain.ProspectStatusUncontacted,
	}

	dto := mapper.ToProspectDTO(prospect, "")

	assert.Nil(t, dto.AssignedTo)
	assert.Empty(t, dto.AssignedToName)
	assert.Nil(t, dto.LastActivityAt)
	assert.Nil(t, dto.ConvertedAccountID)
}

func TestToAccountDTO(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	accountID := uuid.New()

	account := &domain.Account{
		BaseModel:   domain.BaseModel{ID: accountID, CreatedAt: now, UpdatedAt: now},
		Name:        "Summit Account",
		CompanyType: "owner_operator",
		Stage:       domain.AccountStageActive,
		City:        "Austin",
		IsActive:    true,
		Assignments: []domain.AccountAssignment{
			{
				ID:         uuid.New(),
				AccountID:  accountID,
				UserID:     userID,
				Role:       "owner",
				AssignedAt: now,
				User:       &domain.User{ID: userID, DisplayName: "Casey Lee"},
			},
		},
	}

	dto := mapper.ToAccountDTO(account)

	assert.Equal(t, account.ID, dto.ID)
	assert.Equal(t, account.Name, dto.Name)
	assert.Equal(t, domain.AccountStageActive, dto.Stage)
	assert.True(t, dto.IsActive)
	require.Len(t, dto.Assignments, 1)
	assert.Equal(t, userID, dto.Assignments[0].UserID)
	assert.Equal(t, "owner", dto.Assignments[0].Role)
	assert.Equal(t, "Casey Lee", dto.Assignments[0].UserName)
}

func TestToOpportunityDTO(t *testing.T) {
	now := time.Now()
	bid := 250000.0
	closeDate := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	opp := &domain.Opportunity{
		BaseModel:         domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:              "Roof replacement",
		OpportunityType:   domain.OpportunityTypeNewBusiness,
		Stage:             domain.OpportunityStageProposalSent,
		BidValue:          &bid,
		Currency:          "USD",
		Probability:       40,
		ExpectedCloseDate: &closeDate,
		AccountID:         &accountID,
		Account:           &domain.Account{BaseModel: domain.BaseModel{ID: accountID}, Name: "Summit Account"},
	}

	dto := mapper.ToOpportunityDTO(opp, "Jordan Smith")

	assert.Equal(t, opp.ID, dto.ID)
	assert.Equal(t, &bid, dto.BidValue)
	assert.Equal(t, 40, dto.Probability)
	assert.InDelta(t, 100000.0, dto.WeightedValue, 0.001)
	require.NotNil(t, dto.ExpectedCloseDate)
	assert.Equal(t, "2026-10-15", *dto.ExpectedCloseDate)
	assert.Equal(t, "Summit Account", dto.AccountName)
	assert.Equal(t, "Jordan Smith", dto.AssignedToName)
}

func TestToOpportunityDTO_NoBidValue(t *testing.T) {
	opp := &domain.Opportunity{
		BaseModel:   domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:        "Early stage",
		Stage:       domain.OpportunityStageIdentified,
		Probability: 10,
	}

	dto := mapper.ToOpportunityDTO(opp, "")

	assert.Nil(t, dto.BidValue)
	assert.Zero(t, dto.WeightedValue)
	assert.Nil(t, dto.ExpectedCloseDate)
	assert.Empty(t, dto.AccountName)
}

func TestToPropertyDTO(t *testing.T) {
	now := time.Now()
	accountID := uuid.New()
	sqft := 45000

	property := &domain.Property{
		BaseModel:    domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		AccountID:    &accountID,
		Address:      "456 Warehouse Rd",
		City:         "Phoenix",
		State:        "AZ",
		Zip:          "85001",
		BuildingType: "industrial",
		Sqft:         &sqft,
		Account:      &domain.Account{BaseModel: domain.BaseModel{ID: accountID}, Name: "Summit Account"},
	}

	dto := mapper.ToPropertyDTO(property)

	assert.Equal(t, property.ID, dto.ID)
	assert.Equal(t, &accountID, dto.AccountID)
	assert.Equal(t, "industrial", dto.BuildingType)
	assert.Equal(t, &sqft, dto.Sqft)
	assert.Equal(t, "Summit Account", dto.AccountName)
}

func TestToTaskDTO(t *testing.T) {
	now := time.Now()
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	targetID := uuid.New()
	assignee := uuid.New()

	task := &domain.Task{
		BaseModel:  domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Title:      "Follow up call",
		Status:     domain.TaskStatusOpen,
		DueDate:    &due,
		TargetType: domain.ActivityTargetProspect,
		TargetID:   &targetID,
		AssignedTo: &assignee,
		Notes:      "Discuss pricing",
	}

	dto := mapper.ToTaskDTO(task, "Jordan Smith")

	assert.Equal(t, task.ID, dto.ID)
	assert.Equal(t, domain.TaskStatusOpen, dto.Status)
	require.NotNil(t, dto.DueDate)
	assert.Equal(t, "2026-09-10", *dto.DueDate)
	assert.Equal(t, "Jordan Smith", dto.AssignedToName)
}

func TestToNotificationDTO(t *testing.T) {
	now := time.Now()
	entityID := uuid.New()

	t.Run("unread", func(t *testing.T) {
		notification := &domain.Notification{
			BaseModel:  domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			UserID:     uuid.New(),
			Type:       string(domain.NotificationTypeTaskAssigned),
			Title:      "Task assigned",
			Message:    "A task was assigned to you",
			EntityID:   &entityID,
			EntityType: "task",
		}

		dto := mapper.ToNotificationDTO(notification)

		assert.True(t, dto.Unread)
		assert.Nil(t, dto.ReadAt)
		assert.Equal(t, &entityID, dto.EntityID)
	})

	t.Run("read", func(t *testing.T) {
		readAt := now.Add(-time.Minute)
		notification := &domain.Notification{
			BaseModel: domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			UserID:    uuid.New(),
			Type:      string(domain.NotificationTypeProspectConverted),
			Title:     "Prospect converted",
			Message:   "message",
			ReadAt:    &readAt,
		}

		dto := mapper.ToNotificationDTO(notification)

		assert.False(t, dto.Unread)
		require.NotNil(t, dto.ReadAt)
	})
}

func TestToUserDTO(t *testing.T) {
	now := time.Now()
	lastLogin := now.Add(-24 * time.Hour)

	user := &domain.User{
		ID:          uuid.New(),
		Email:       "rep@summitcrm.io",
		DisplayName: "Jordan Smith",
		Roles:       pq.StringArray{"rep"},
		IsActive:    true,
		LastLoginAt: &lastLogin,
		CreatedAt:   now,
	}

	dto := mapper.ToUserDTO(user)

	assert.Equal(t, user.ID, dto.ID)
	assert.Equal(t, user.Email, dto.Email)
	assert.EqualValues(t, user.Roles, dto.Roles)
	assert.True(t, dto.IsActive)
	require.NotNil(t, dto.LastLoginAt)
}

func TestToConversionStateDTO(t *testing.T) {
	session := conversion.NewSession("test-tenant", uuid.New(), uuid.New())

	bid := 50000.0
	closeDate := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	session.Form = &conversion.Form{
		AccountName: "Summit Account",
		CompanyType: "property_manager",
		Stage:       domain.AccountStageActive,
		Notes:       "from wizard",
		Opportunity: &conversion.OpportunityDraft{
			Name:              "Initial deal",
			OpportunityType:   domain.OpportunityTypeNewBusiness,
			BidValue:          &bid,
			Probability:       30,
			ExpectedCloseDate: &closeDate,
		},
		Properties: []conversion.PropertyDraft{
			{Address: "456 Warehouse Rd", City: "Phoenix", State: "AZ", Zip: "85001", BuildingType: "industrial"},
		},
	}

	dto := mapper.ToConversionStateDTO(session)

	assert.Equal(t, session.ProspectID, dto.ProspectID)
	assert.Equal(t, string(session.Step), dto.Step)
	require.NotNil(t, dto.Form)
	assert.Equal(t, "Summit Account", dto.Form.AccountName)
	require.NotNil(t, dto.Form.Opportunity)
	assert.Equal(t, &bid, dto.Form.Opportunity.BidValue)
	require.NotNil(t, dto.Form.Opportunity.ExpectedCloseDate)
	assert.Equal(t, "2026-12-01", *dto.Form.Opportunity.ExpectedCloseDate)
	require.Len(t, dto.Form.PropertyRows, 1)
	assert.Equal(t, "456 Warehouse Rd", dto.Form.PropertyRows[0].Address)
	assert.NotEmpty(t, dto.StartedAt)
}

func TestToConversionResultDTO(t *testing.T) {
	prospectID := uuid.New()
	oppID := uuid.New()
	result := &conversion.Result{
		AccountID:     uuid.New(),
		OpportunityID: &oppID,
		PropertyIDs:   []uuid.UUID{uuid.New(), uuid.New()},
		Merged:        false,
	}

	dto := mapper.ToConversionResultDTO(prospectID, result)

	assert.Equal(t, prospectID, dto.ProspectID)
	assert.Equal(t, result.AccountID, dto.AccountID)
	assert.Equal(t, &oppID, dto.OpportunityID)
	assert.Len(t, dto.PropertyIDs, 2)
	assert.False(t, dto.Merged)
}
