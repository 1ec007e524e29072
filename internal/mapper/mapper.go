package mapper

import (
	"time"

	"github.com/google/uuid"

	"github.com/summitcrm/pipeline-api/internal/conversion"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeLayout)
	return &s
}

// ToProspectDTO converts Prospect to ProspectDTO. assignedToName may be empty
// when the assignee is unknown or the prospect is unassigned.
func ToProspectDTO(prospect *domain.Prospect, assignedToName string) domain.ProspectDTO {
	return domain.ProspectDTO{
		ID:                    prospect.ID,
		Name:                  prospect.Name,
		Phone:                 prospect.Phone,
		Website:               prospect.Website,
		Domain:                prospect.Domain,
		Address:               prospect.Address,
		City:                  prospect.City,
		State:                 prospect.State,
		Zip:                   prospect.Zip,
		CompanyType:           prospect.CompanyType,
		EmployeeCount:         prospect.EmployeeCount,
		PropertyCountEstimate: prospect.PropertyCountEstimate,
		SqftEstimate:          prospect.SqftEstimate,
		BuildingTypes:         prospect.BuildingTypes,
		ICPFitScore:           prospect.ICPFitScore,
		Status:                prospect.Status,
		AssignedTo:            prospect.AssignedTo,
		AssignedToName:        assignedToName,
		Source:                prospect.Source,
		Tags:                  prospect.Tags,
		Notes:                 prospect.Notes,
		ConvertedAccountID:    prospect.ConvertedAccountID,
		LastActivityAt:        formatTimePtr(prospect.LastActivityAt),
		CreatedAt:             prospect.CreatedAt.Format(timeLayout),
		UpdatedAt:             prospect.UpdatedAt.Format(timeLayout),
	}
}

// ToAccountDTO converts Account to AccountDTO
func ToAccountDTO(account *domain.Account) domain.AccountDTO {
	assignments := make([]domain.AccountAssignmentDTO, len(account.Assignments))
	for i, assignment := range account.Assignments {
		assignments[i] = ToAccountAssignmentDTO(&assignment)
	}

	return domain.AccountDTO{
		ID:          account.ID,
		Name:        account.Name,
		CompanyType: account.CompanyType,
		Stage:       account.Stage,
		Phone:       account.Phone,
		Website:     account.Website,
		Domain:      account.Domain,
		Address:     account.Address,
		City:        account.City,
		State:       account.State,
		Zip:         account.Zip,
		IsActive:    account.IsActive,
		Notes:       account.Notes,
		Assignments: assignments,
		CreatedAt:   account.CreatedAt.Format(timeLayout),
		UpdatedAt:   account.UpdatedAt.Format(timeLayout),
	}
}

// ToAccountAssignmentDTO converts AccountAssignment to AccountAssignmentDTO
func ToAccountAssignmentDTO(assignment *domain.AccountAssignment) domain.AccountAssignmentDTO {
	dto := domain.AccountAssignmentDTO{
		ID:         assignment.ID,
		AccountID:  assignment.AccountID,
		UserID:     assignment.UserID,
		Role:       assignment.Role,
		AssignedAt: assignment.AssignedAt.Format(timeLayout),
	}
	if assignment.User != nil {
		dto.UserName = assignment.User.DisplayName
	}
	return dto
}

// ToOpportunityDTO converts Opportunity to OpportunityDTO. assignedToName may
// be empty when the assignee is unknown.
func ToOpportunityDTO(opp *domain.Opportunity, assignedToName string) domain.OpportunityDTO {
	dto := domain.OpportunityDTO{
		ID:              opp.ID,
		Name:            opp.Name,
		OpportunityType: opp.OpportunityType,
		Stage:           opp.Stage,
		BidValue:        opp.BidValue,
		Currency:        opp.Currency,
		Probability:     opp.Probability,
		WeightedValue:   opp.WeightedValue(),
		AccountID:       opp.AccountID,
		PropertyID:      opp.PropertyID,
		AssignedTo:      opp.AssignedTo,
		AssignedToName:  assignedToName,
		Notes:           opp.Notes,
		CreatedAt:       opp.CreatedAt.Format(timeLayout),
		UpdatedAt:       opp.UpdatedAt.Format(timeLayout),
	}

	if opp.ExpectedCloseDate != nil {
		closeDate := opp.ExpectedCloseDate.Format("2006-01-02")
		dto.ExpectedCloseDate = &closeDate
	}
	if opp.Account != nil {
		dto.AccountName = opp.Account.Name
	}
	if opp.Property != nil {
		dto.PropertyAddress = opp.Property.Address
	}

	return dto
}

// ToStageHistoryDTO converts OpportunityStageHistory to its DTO
func ToStageHistoryDTO(entry *domain.OpportunityStageHistory) domain.OpportunityStageHistoryDTO {
	return domain.OpportunityStageHistoryDTO{
		ID:            entry.ID,
		OpportunityID: entry.OpportunityID,
		FromStage:     entry.FromStage,
		ToStage:       entry.ToStage,
		ChangedByID:   entry.ChangedByID,
		ChangedByName: entry.ChangedByName,
		Notes:         entry.Notes,
		ChangedAt:     entry.ChangedAt.Format(timeLayout),
	}
}

// ToPropertyDTO converts Property to PropertyDTO
func ToPropertyDTO(property *domain.Property) domain.PropertyDTO {
	dto := domain.PropertyDTO{
		ID:           property.ID,
		AccountID:    property.AccountID,
		Address:      property.Address,
		City:         property.City,
		State:        property.State,
		Zip:          property.Zip,
		BuildingType: property.BuildingType,
		Sqft:         property.Sqft,
		CreatedAt:    property.CreatedAt.Format(timeLayout),
		UpdatedAt:    property.UpdatedAt.Format(timeLayout),
	}
	if property.Account != nil {
		dto.AccountName = property.Account.Name
	}
	return dto
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:           activity.ID,
		TargetType:   activity.TargetType,
		TargetID:     activity.TargetID,
		ActivityType: activity.ActivityType,
		Title:        activity.Title,
		Body:         activity.Body,
		OccurredAt:   activity.OccurredAt.Format(timeLayout),
		CreatorID:    activity.CreatorID,
		CreatorName:  activity.CreatorName,
		CreatedAt:    activity.CreatedAt.Format(timeLayout),
	}
}

// ToTaskDTO converts Task to TaskDTO. assignedToName may be empty.
func ToTaskDTO(task *domain.Task, assignedToName string) domain.TaskDTO {
	dto := domain.TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Status:         task.Status,
		TargetType:     task.TargetType,
		TargetID:       task.TargetID,
		AssignedTo:     task.AssignedTo,
		AssignedToName: assignedToName,
		Notes:          task.Notes,
		CreatedAt:      task.CreatedAt.Format(timeLayout),
		UpdatedAt:      task.UpdatedAt.Format(timeLayout),
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format("2006-01-02")
		dto.DueDate = &dueDate
	}
	return dto
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:         notification.ID,
		UserID:     notification.UserID,
		Type:       notification.Type,
		Title:      notification.Title,
		Message:    notification.Message,
		ReadAt:     formatTimePtr(notification.ReadAt),
		Unread:     notification.IsUnread(),
		EntityID:   notification.EntityID,
		EntityType: notification.EntityType,
		CreatedAt:  notification.CreatedAt.Format(timeLayout),
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       user.Roles,
		IsActive:    user.IsActive,
		LastLoginAt: formatTimePtr(user.LastLoginAt),
		CreatedAt:   user.CreatedAt.Format(timeLayout),
	}
}

// ToConversionStateDTO converts a wizard session to its wire form
func ToConversionStateDTO(session *conversion.Session) domain.ConversionStateDTO {
	dto := domain.ConversionStateDTO{
		ProspectID:      session.ProspectID,
		Step:            string(session.Step),
		Duplicates:      session.Duplicates,
		ChosenAccountID: session.ChosenAccountID,
		StartedAt:       session.StartedAt.UTC().Format(timeLayout),
		UpdatedAt:       session.UpdatedAt.UTC().Format(timeLayout),
	}

	if session.Form != nil {
		dto.Form = toConversionFormDTO(session.Form)
	}
	if session.Result != nil {
		dto.AccountID = &session.Result.AccountID
		dto.Merged = session.Result.Merged
	}

	return dto
}

func toConversionFormDTO(form *conversion.Form) *domain.ConversionFormDTO {
	dto := &domain.ConversionFormDTO{
		AccountName: form.AccountName,
		CompanyType: form.CompanyType,
		Stage:       form.Stage,
		AssigneeIDs: form.AssigneeIDs,
		Notes:       form.Notes,
	}

	if form.Opportunity != nil {
		opp := &domain.ConversionOppDTO{
			Name:            form.Opportunity.Name,
			OpportunityType: form.Opportunity.OpportunityType,
			BidValue:        form.Opportunity.BidValue,
			Probability:     form.Opportunity.Probability,
		}
		if form.Opportunity.ExpectedCloseDate != nil {
			closeDate := form.Opportunity.ExpectedCloseDate.Format("2006-01-02")
			opp.ExpectedCloseDate = &closeDate
		}
		dto.Opportunity = opp
	}

	for _, row := range form.Properties {
		dto.PropertyRows = append(dto.PropertyRows, domain.ConversionPropertyDTO{
			Address:      row.Address,
			City:         row.City,
			State:        row.State,
			Zip:          row.Zip,
			BuildingType: row.BuildingType,
			Sqft:         row.Sqft,
		})
	}

	return dto
}

// ToConversionResultDTO converts a confirmed conversion outcome
func ToConversionResultDTO(prospectID uuid.UUID, result *conversion.Result) domain.ConversionResultDTO {
	return domain.ConversionResultDTO{
		ProspectID:    prospectID,
		AccountID:     result.AccountID,
		OpportunityID: result.OpportunityID,
		Merged:        result.Merged,
		PropertyIDs:   result.PropertyIDs,
	}
}
