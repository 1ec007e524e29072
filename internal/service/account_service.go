package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/dupmatch"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

type AccountService struct {
	accountRepo     *repository.AccountRepository
	opportunityRepo *repository.OpportunityRepository
	propertyRepo    *repository.PropertyRepository
	activityRepo    *repository.ActivityRepository
	userRepo        *repository.UserRepository
	logger          *zap.Logger
}

func NewAccountService(
	accountRepo *repository.AccountRepository,
	opportunityRepo *repository.OpportunityRepository,
	propertyRepo *repository.PropertyRepository,
	activityRepo *repository.ActivityRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		opportunityRepo: opportunityRepo,
		propertyRepo:    propertyRepo,
		activityRepo:    activityRepo,
		userRepo:        userRepo,
		logger:          logger,
	}
}

func (s *AccountService) Create(ctx context.Context, req *domain.CreateAccountRequest) (*domain.AccountDTO, error) {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID == nil {
		return nil, ErrUnauthorized
	}

	stage := domain.AccountStageUnqualified
	if req.Stage != "" {
		stage = domain.AccountStage(req.Stage)
		if !stage.IsValid() {
			return nil, ErrInvalidStage
		}
	}

	account := &domain.Account{
		TenantID:    *tenantID,
		Name:        req.Name,
		CompanyType: req.CompanyType,
		Stage:       stage,
		Phone:       req.Phone,
		Website:     req.Website,
		Domain:      dupmatch.NormalizeDomain(req.Website),
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		IsActive:    true,
		Notes:       req.Notes,
	}

	err := s.accountRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.accountRepo.CreateTx(ctx, tx, account); err != nil {
			return err
		}
		for _, rawID := range req.AssigneeIDs {
			userID, err := uuid.Parse(rawID)
			if err != nil {
				return fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
			}
			assignment := &domain.AccountAssignment{
				AccountID: account.ID,
				UserID:    userID,
			}
			if err := s.accountRepo.AddAssignmentTx(ctx, tx, assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logActivity(ctx, account.ID, "Account created",
		fmt.Sprintf("Account '%s' was created", account.Name))

	created, err := s.accountRepo.GetByID(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToAccountDTO(created)
	return &dto, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

// GetWithDetails returns an account together with its stats, properties,
// open opportunities, and recent activity for the detail page.
func (s *AccountService) GetWithDetails(ctx context.Context, id uuid.UUID) (*domain.AccountWithDetailsDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &domain.AccountWithDetailsDTO{
		AccountDTO: mapper.ToAccountDTO(account),
	}

	stats, err := s.accountRepo.GetStats(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load account stats", zap.String("account_id", id.String()), zap.Error(err))
	} else {
		details.Stats = stats
	}

	properties, err := s.propertyRepo.GetByAccount(ctx, id)
	if err == nil {
		details.Properties = make([]domain.PropertyDTO, len(properties))
		for i, property := range properties {
			details.Properties[i] = mapper.ToPropertyDTO(&property)
		}
	}

	opportunities, err := s.opportunityRepo.GetOpenByAccount(ctx, id)
	if err == nil {
		details.OpenOpportunities = make([]domain.OpportunityDTO, len(opportunities))
		for i, opp := range opportunities {
			details.OpenOpportunities[i] = mapper.ToOpportunityDTO(&opp, "")
		}
	}

	activities, err := s.activityRepo.ListByTarget(ctx, domain.ActivityTargetAccount, id, 10)
	if err == nil {
		details.RecentActivity = make([]domain.ActivityDTO, len(activities))
		for i, activity := range activities {
			details.RecentActivity[i] = mapper.ToActivityDTO(&activity)
		}
	}

	return details, nil
}

func (s *AccountService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateAccountRequest) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.CompanyType != nil {
		account.CompanyType = *req.CompanyType
	}
	if req.Stage != nil {
		stage := domain.AccountStage(*req.Stage)
		if !stage.IsValid() {
			return nil, ErrInvalidStage
		}
		if stage != account.Stage {
			s.logActivity(ctx, account.ID, "Stage changed",
				fmt.Sprintf("Stage changed from %s to %s", account.Stage, stage))
		}
		account.Stage = stage
	}
	if req.Phone != nil {
		account.Phone = *req.Phone
	}
	if req.Website != nil {
		account.Website = *req.Website
		account.Domain = dupmatch.NormalizeDomain(*req.Website)
	}
	if req.Address != nil {
		account.Address = *req.Address
	}
	if req.City != nil {
		account.City = *req.City
	}
	if req.State != nil {
		account.State = *req.State
	}
	if req.Zip != nil {
		account.Zip = *req.Zip
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		account.Notes = *req.Notes
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	open, err := s.opportunityRepo.GetOpenByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check open opportunities: %w", err)
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: account has open opportunities", ErrConflict)
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *AccountService) List(ctx context.Context, page, pageSize int, filters *repository.AccountFilters, sortBy repository.AccountSortOption) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	accounts, total, err := s.accountRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i, account := range accounts {
		dtos[i] = mapper.ToAccountDTO(&account)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Items:      dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *AccountService) Search(ctx context.Context, query string, limit int) ([]domain.AccountDTO, error) {
	if limit < 1 || limit > 50 {
		limit = 20
	}

	accounts, err := s.accountRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i, account := range accounts {
		dtos[i] = mapper.ToAccountDTO(&account)
	}
	return dtos, nil
}

// FindDuplicates scores the given company details against every active
// account in the tenant and returns the matches, strongest first
func (s *AccountService) FindDuplicates(ctx context.Context, req *domain.FindDuplicatesRequest) ([]domain.DuplicateMatchDTO, error) {
	accounts, err := s.accountRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for duplicate scan: %w", err)
	}

	candidate := dupmatch.Candidate{
		Name:    req.Name,
		Domain:  req.Domain,
		Website: req.Website,
		Phone:   req.Phone,
		City:    req.City,
		State:   req.State,
	}
	return dupmatch.FindMatches(candidate, accounts), nil
}

// AddAssignment links a rep to an account
func (s *AccountService) AddAssignment(ctx context.Context, accountID, userID uuid.UUID, role string) (*domain.AccountDTO, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	assignment := &domain.AccountAssignment{
		AccountID: accountID,
		UserID:    userID,
		Role:      role,
	}
	if err := s.accountRepo.AddAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to add assignment: %w", err)
	}

	s.logActivity(ctx, accountID, "Rep assigned",
		fmt.Sprintf("%s was assigned to the account", user.DisplayName))

	return s.GetByID(ctx, accountID)
}

// RemoveAssignment unlinks a rep from an account
func (s *AccountService) RemoveAssignment(ctx context.Context, accountID, userID uuid.UUID) error {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return err
	}
	if err := s.accountRepo.RemoveAssignment(ctx, accountID, userID); err != nil {
		return fmt.Errorf("failed to remove assignment: %w", err)
	}
	return nil
}

func (s *AccountService) logActivity(ctx context.Context, accountID uuid.UUID, title, body string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return
	}

	activity := &domain.Activity{
		TenantID:     userCtx.TenantID,
		TargetType:   domain.ActivityTargetAccount,
		TargetID:     accountID,
		ActivityType: domain.ActivityTypeSystem,
		Title:        title,
		Body:         body,
		CreatorID:    &userCtx.UserID,
		CreatorName:  userCtx.DisplayName,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record account activity", zap.Error(err))
	}
}
