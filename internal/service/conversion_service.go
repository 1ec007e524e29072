package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/conversion"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/dupmatch"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

// ConversionService drives the prospect-to-account conversion wizard.
// Wizard state lives in memory per (tenant, user, prospect); the database
// write happens only at the confirmation step, inside one transaction.
type ConversionService struct {
	sessions        *conversion.Store
	prospectRepo    *repository.ProspectRepository
	accountRepo     *repository.AccountRepository
	opportunityRepo *repository.OpportunityRepository
	historyRepo     *repository.StageHistoryRepository
	propertyRepo    *repository.PropertyRepository
	activityRepo    *repository.ActivityRepository
	notifications   *NotificationService
	logger          *zap.Logger
}

func NewConversionService(
	sessions *conversion.Store,
	prospectRepo *repository.ProspectRepository,
	accountRepo *repository.AccountRepository,
	opportunityRepo *repository.OpportunityRepository,
	historyRepo *repository.StageHistoryRepository,
	propertyRepo *repository.PropertyRepository,
	activityRepo *repository.ActivityRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *ConversionService {
	return &ConversionService{
		sessions:        sessions,
		prospectRepo:    prospectRepo,
		accountRepo:     accountRepo,
		opportunityRepo: opportunityRepo,
		historyRepo:     historyRepo,
		propertyRepo:    propertyRepo,
		activityRepo:    activityRepo,
		notifications:   notifications,
		logger:          logger,
	}
}

// Start opens (or resumes) a conversion session for a prospect. The form is
// pre-filled from the prospect record.
func (s *ConversionService) Start(ctx context.Context, prospectID uuid.UUID) (*domain.ConversionStateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	prospect, err := s.prospectRepo.GetByID(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return nil, ErrProspectConverted
	}

	session := s.sessions.GetOrCreate(userCtx.TenantID, userCtx.UserID, prospectID)
	dto := mapper.ToConversionStateDTO(session)
	if dto.Form == nil {
		dto.Form = &domain.ConversionFormDTO{
			AccountName: prospect.Name,
			CompanyType: prospect.CompanyType,
			Stage:       domain.AccountStageUnqualified,
		}
	}
	return &dto, nil
}

// GetState returns the current wizard state for a prospect
func (s *ConversionService) GetState(ctx context.Context, prospectID uuid.UUID) (*domain.ConversionStateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.Get(userCtx.TenantID, userCtx.UserID, prospectID)
	if err != nil {
		return nil, ErrNotFound
	}
	dto := mapper.ToConversionStateDTO(session)
	return &dto, nil
}

// SubmitForm records the account details and runs the duplicate scan. When
// no candidate accounts match, the duplicates step is skipped.
func (s *ConversionService) SubmitForm(ctx context.Context, prospectID uuid.UUID, req *domain.SubmitConversionFormRequest) (*domain.ConversionStateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	prospect, err := s.prospectRepo.GetByID(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return nil, ErrProspectConverted
	}

	form, err := buildConversionForm(req)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for duplicate scan: %w", err)
	}
	duplicates := dupmatch.FindMatches(dupmatch.FromProspect(prospect), accounts)

	s.sessions.GetOrCreate(userCtx.TenantID, userCtx.UserID, prospectID)
	session, err := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
		return sess.SubmitForm(*form, duplicates)
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToConversionStateDTO(session)
	return &dto, nil
}

// ChooseDuplicate records the rep's decision on the duplicates step. A nil
// account ID means create a new account.
func (s *ConversionService) ChooseDuplicate(ctx context.Context, prospectID uuid.UUID, req *domain.ChooseDuplicateRequest) (*domain.ConversionStateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
		return sess.ChooseAccount(req.AccountID)
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToConversionStateDTO(session)
	return &dto, nil
}

// Back steps the wizard back one step
func (s *ConversionService) Back(ctx context.Context, prospectID uuid.UUID) (*domain.ConversionStateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
		return sess.Back()
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToConversionStateDTO(session)
	return &dto, nil
}

// Cancel abandons the wizard
func (s *ConversionService) Cancel(ctx context.Context, prospectID uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	_, err := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
		return sess.Cancel()
	})
	return err
}

// Confirm executes the conversion in one transaction: create or merge the
// account, attach assignments and properties, open the initial opportunity,
// and mark the prospect converted. A second confirm for the same session
// while one is in flight fails fast.
func (s *ConversionService) Confirm(ctx context.Context, prospectID uuid.UUID) (*domain.ConversionResultDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.Get(userCtx.TenantID, userCtx.UserID, prospectID)
	if err != nil {
		return nil, ErrNotFound
	}

	if _, err := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
		return sess.BeginConfirm()
	}); err != nil {
		return nil, err
	}

	result, err := s.executeConversion(ctx, userCtx, session)
	if err != nil {
		if _, mErr := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
			sess.FailConfirm()
			return nil
		}); mErr != nil {
			s.logger.Warn("failed to reset conversion session after error", zap.Error(mErr))
		}
		return nil, err
	}

	if _, err := s.sessions.Mutate(userCtx.TenantID, userCtx.UserID, prospectID, func(sess *conversion.Session) error {
		sess.CompleteConfirm(*result)
		return nil
	}); err != nil {
		s.logger.Warn("failed to finalize conversion session", zap.Error(err))
	}

	dto := mapper.ToConversionResultDTO(prospectID, result)
	return &dto, nil
}

// ConvertDirect converts a prospect in a single call, bypassing the wizard.
// The account is seeded from the prospect's research fields, or merged into
// the given account. Used by API integrations that already know the answer
// to the duplicate question.
func (s *ConversionService) ConvertDirect(ctx context.Context, prospectID uuid.UUID, req *domain.ConvertProspectRequest) (*domain.ConversionResultDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	prospect, err := s.prospectRepo.GetByID(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return nil, ErrProspectConverted
	}

	form := conversion.Form{
		AccountName: prospect.Name,
		CompanyType: prospect.CompanyType,
		Stage:       domain.AccountStageUnqualified,
	}
	if prospect.AssignedTo != nil {
		form.AssigneeIDs = []uuid.UUID{*prospect.AssignedTo}
	}

	// A transient session drives executeConversion without touching the store
	session := conversion.NewSession(userCtx.TenantID, userCtx.UserID, prospectID)

	var duplicates []domain.DuplicateMatchDTO
	if req != nil && req.LinkAccountID != nil {
		target, err := s.accountRepo.GetByID(ctx, *req.LinkAccountID)
		if err != nil {
			return nil, fmt.Errorf("link target not found: %w", err)
		}
		duplicates = []domain.DuplicateMatchDTO{{AccountID: target.ID, Name: target.Name}}
	}
	if err := session.SubmitForm(form, duplicates); err != nil {
		return nil, err
	}
	if req != nil && req.LinkAccountID != nil {
		if err := session.ChooseAccount(req.LinkAccountID); err != nil {
			return nil, err
		}
	}
	if err := session.BeginConfirm(); err != nil {
		return nil, err
	}

	result, err := s.executeConversion(ctx, userCtx, session)
	if err != nil {
		return nil, err
	}
	session.CompleteConfirm(*result)

	dto := mapper.ToConversionResultDTO(prospectID, result)
	return &dto, nil
}

func (s *ConversionService) executeConversion(ctx context.Context, userCtx *auth.UserContext, session *conversion.Session) (*conversion.Result, error) {
	// Re-check under the database: another session may have converted this
	// prospect while ours sat on the confirmation step
	prospect, err := s.prospectRepo.GetByID(ctx, session.ProspectID)
	if err != nil {
		return nil, err
	}
	if prospect.Status == domain.ProspectStatusConverted {
		return nil, ErrProspectConverted
	}

	form := session.Form
	if form == nil {
		return nil, conversion.ErrInvalidTransition
	}

	mergeTarget, merge := session.MergeTarget()
	result := &conversion.Result{Merged: merge}

	err = s.prospectRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var account *domain.Account
		if merge {
			existing, err := s.accountRepo.GetByID(ctx, mergeTarget)
			if err != nil {
				return fmt.Errorf("merge target not found: %w", err)
			}
			account = existing
			mergeAccountFields(account, prospect)
			if err := tx.WithContext(ctx).Omit("Assignments").Save(account).Error; err != nil {
				return err
			}
		} else {
			account = &domain.Account{
				TenantID:    prospect.TenantID,
				Name:        form.AccountName,
				CompanyType: form.CompanyType,
				Stage:       form.Stage,
				Phone:       prospect.Phone,
				Website:     prospect.Website,
				Domain:      prospect.Domain,
				Address:     prospect.Address,
				City:        prospect.City,
				State:       prospect.State,
				Zip:         prospect.Zip,
				IsActive:    true,
				Notes:       form.Notes,
			}
			if err := s.accountRepo.CreateTx(ctx, tx, account); err != nil {
				return err
			}
		}
		result.AccountID = account.ID

		for _, assigneeID := range form.AssigneeIDs {
			assignment := &domain.AccountAssignment{
				AccountID: account.ID,
				UserID:    assigneeID,
			}
			if err := s.accountRepo.AddAssignmentTx(ctx, tx, assignment); err != nil {
				// Merging into an account the rep already covers is fine
				if merge {
					continue
				}
				return err
			}
		}

		for _, draft := range form.Properties {
			property := &domain.Property{
				TenantID:     prospect.TenantID,
				AccountID:    &account.ID,
				Address:      draft.Address,
				City:         draft.City,
				State:        draft.State,
				Zip:          draft.Zip,
				BuildingType: draft.BuildingType,
				Sqft:         draft.Sqft,
			}
			if err := s.propertyRepo.CreateTx(ctx, tx, property); err != nil {
				return err
			}
			result.PropertyIDs = append(result.PropertyIDs, property.ID)
		}

		if form.Opportunity != nil {
			opp := &domain.Opportunity{
				TenantID:          prospect.TenantID,
				Name:              form.Opportunity.Name,
				OpportunityType:   form.Opportunity.OpportunityType,
				Stage:             domain.OpportunityStageIdentified,
				BidValue:          form.Opportunity.BidValue,
				Currency:          "USD",
				Probability:       form.Opportunity.Probability,
				ExpectedCloseDate: form.Opportunity.ExpectedCloseDate,
				AccountID:         &account.ID,
				AssignedTo:        prospect.AssignedTo,
			}
			if err := s.opportunityRepo.CreateTx(ctx, tx, opp); err != nil {
				return err
			}
			entry := &domain.OpportunityStageHistory{
				OpportunityID: opp.ID,
				ToStage:       opp.Stage,
				ChangedByID:   &userCtx.UserID,
				ChangedByName: userCtx.DisplayName,
			}
			if err := s.historyRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
			result.OpportunityID = &opp.ID
		}

		if err := s.prospectRepo.MarkConverted(ctx, tx, prospect.ID, account.ID); err != nil {
			return err
		}

		activity := &domain.Activity{
			TenantID:     prospect.TenantID,
			TargetType:   domain.ActivityTargetAccount,
			TargetID:     account.ID,
			ActivityType: domain.ActivityTypeSystem,
			Title:        "Prospect converted",
			Body:         fmt.Sprintf("Converted from prospect '%s'", prospect.Name),
			OccurredAt:   time.Now(),
			CreatorID:    &userCtx.UserID,
			CreatorName:  userCtx.DisplayName,
		}
		return s.activityRepo.CreateTx(ctx, tx, activity)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	s.notifyConverted(ctx, prospect, result)

	return result, nil
}

func (s *ConversionService) notifyConverted(ctx context.Context, prospect *domain.Prospect, result *conversion.Result) {
	if s.notifications == nil || prospect.AssignedTo == nil {
		return
	}
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx.UserID == *prospect.AssignedTo {
		return
	}

	notification := &domain.Notification{
		TenantID:   prospect.TenantID,
		UserID:     *prospect.AssignedTo,
		Type:       string(domain.NotificationTypeProspectConverted),
		Title:      "Prospect converted",
		Message:    fmt.Sprintf("'%s' was converted to an account", prospect.Name),
		EntityID:   &result.AccountID,
		EntityType: "account",
	}
	if err := s.notifications.Notify(ctx, notification); err != nil {
		s.logger.Warn("failed to send conversion notification", zap.Error(err))
	}
}

// mergeAccountFields fills blank fields on the merge target from the
// prospect. Existing account data always wins.
func mergeAccountFields(account *domain.Account, prospect *domain.Prospect) {
	if account.Phone == "" {
		account.Phone = prospect.Phone
	}
	if account.Website == "" {
		account.Website = prospect.Website
	}
	if account.Domain == "" {
		account.Domain = prospect.Domain
	}
	if account.Address == "" {
		account.Address = prospect.Address
	}
	if account.City == "" {
		account.City = prospect.City
	}
	if account.State == "" {
		account.State = prospect.State
	}
	if account.Zip == "" {
		account.Zip = prospect.Zip
	}
	if account.CompanyType == "" {
		account.CompanyType = prospect.CompanyType
	}
}

func buildConversionForm(req *domain.SubmitConversionFormRequest) (*conversion.Form, error) {
	stage := domain.AccountStageUnqualified
	if req.Stage != "" {
		stage = domain.AccountStage(req.Stage)
		if !stage.IsValid() {
			return nil, ErrInvalidStage
		}
	}

	form := &conversion.Form{
		AccountName: req.AccountName,
		CompanyType: req.CompanyType,
		Stage:       stage,
		Notes:       req.Notes,
	}

	for _, rawID := range req.AssigneeIDs {
		assigneeID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
		}
		form.AssigneeIDs = append(form.AssigneeIDs, assigneeID)
	}

	if req.Opportunity != nil {
		oppType := domain.OpportunityTypeNewBusiness
		if req.Opportunity.OpportunityType != "" {
			oppType = domain.OpportunityType(req.Opportunity.OpportunityType)
			if !oppType.IsValid() {
				return nil, fmt.Errorf("%w: unknown opportunity type", ErrInvalidInput)
			}
		}
		draft := &conversion.OpportunityDraft{
			Name:            req.Opportunity.Name,
			OpportunityType: oppType,
			BidValue:        req.Opportunity.BidValue,
			Probability:     req.Opportunity.Probability,
		}
		if req.Opportunity.ExpectedCloseDate != nil {
			closeDate, err := time.Parse("2006-01-02", *req.Opportunity.ExpectedCloseDate)
			if err != nil {
				return nil, fmt.Errorf("%w: expected close date must be YYYY-MM-DD", ErrInvalidInput)
			}
			draft.ExpectedCloseDate = &closeDate
		}
		form.Opportunity = draft
	}

	for _, row := range req.Properties {
		form.Properties = append(form.Properties, conversion.PropertyDraft{
			Address:      row.Address,
			City:         row.City,
			State:        row.State,
			Zip:          row.Zip,
			BuildingType: row.BuildingType,
			Sqft:         row.Sqft,
		})
	}

	return form, nil
}
