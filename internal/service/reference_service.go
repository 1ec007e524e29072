package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

// ReferenceService serves the lookup data clients need to render forms and
// pickers. Enum lists are static; accounts, properties, and team members are
// fetched from the database in one concurrent fan-out.
type ReferenceService struct {
	accountRepo  *repository.AccountRepository
	propertyRepo *repository.PropertyRepository
	userRepo     *repository.UserRepository
	logger       *zap.Logger
}

func NewReferenceService(
	accountRepo *repository.AccountRepository,
	propertyRepo *repository.PropertyRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *ReferenceService {
	return &ReferenceService{
		accountRepo:  accountRepo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// GetReferenceData loads every lookup list in one response so clients make a
// single call on startup instead of one per list. The three database reads
// run concurrently; any failing read fails the whole call.
func (s *ReferenceService) GetReferenceData(ctx context.Context) (*domain.ReferenceDataDTO, error) {
	data := &domain.ReferenceDataDTO{
		ProspectStatuses: []domain.ProspectStatus{
			domain.ProspectStatusUncontacted,
			domain.ProspectStatusResearching,
			domain.ProspectStatusAttempted,
			domain.ProspectStatusContacted,
			domain.ProspectStatusDisqualified,
			domain.ProspectStatusConverted,
		},
		AccountStages: []domain.AccountStage{
			domain.AccountStageUnqualified,
			domain.AccountStageQualified,
			domain.AccountStageActive,
			domain.AccountStageDormant,
			domain.AccountStageClosed,
		},
		OpportunityStages: []domain.OpportunityStage{
			domain.OpportunityStageIdentified,
			domain.OpportunityStageQualified,
			domain.OpportunityStageProposalSent,
			domain.OpportunityStageNegotiation,
			domain.OpportunityStageWon,
			domain.OpportunityStageLost,
		},
		OpportunityTypes: []domain.OpportunityType{
			domain.OpportunityTypeNewBusiness,
			domain.OpportunityTypeExpansion,
			domain.OpportunityTypeRenewal,
			domain.OpportunityTypeUpsell,
		},
		TaskStatuses: []domain.TaskStatus{
			domain.TaskStatusOpen,
			domain.TaskStatusInProgress,
			domain.TaskStatusDone,
			domain.TaskStatusCancelled,
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := s.accountRepo.ListActive(gctx)
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}
		data.Accounts = make([]domain.AccountRefDTO, len(accounts))
		for i, acct := range accounts {
			data.Accounts[i] = domain.AccountRefDTO{ID: acct.ID, Name: acct.Name}
		}
		return nil
	})

	g.Go(func() error {
		properties, err := s.propertyRepo.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load properties: %w", err)
		}
		data.Properties = make([]domain.PropertyRefDTO, len(properties))
		for i, prop := range properties {
			data.Properties[i] = domain.PropertyRefDTO{ID: prop.ID, Address: prop.Address}
		}
		return nil
	})

	g.Go(func() error {
		users, err := s.userRepo.ListActive(gctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		data.Users = make([]domain.UserDTO, len(users))
		for i, user := range users {
			data.Users[i] = mapper.ToUserDTO(&user)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return data, nil
}
