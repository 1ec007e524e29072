package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountFilters contains all filter options for listing accounts
type AccountFilters struct {
	Stage         *domain.AccountStage
	Stages        []domain.AccountStage
	CompanyType   *string
	City          *string
	State         *string
	AssignedTo    *uuid.UUID
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SearchQuery   *string
}

// AccountSortOption represents available sort options
type AccountSortOption string

const (
	AccountSortByCreatedDesc AccountSortOption = "created_desc"
	AccountSortByCreatedAsc  AccountSortOption = "created_asc"
	AccountSortByNameAsc     AccountSortOption = "name_asc"
	AccountSortByNameDesc    AccountSortOption = "name_desc"
	AccountSortByUpdatedDesc AccountSortOption = "updated_desc"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	// Omit associations to avoid GORM trying to validate related records
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(account).Error
}

// CreateTx creates an account inside an existing transaction
func (r *AccountRepository) CreateTx(ctx context.Context, tx *gorm.DB, account *domain.Account) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	query := r.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Assignments.User").
		Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(account).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	return query.Delete(&domain.Account{}).Error
}

func (r *AccountRepository) List(ctx context.Context, page, pageSize int, filters *AccountFilters, sortBy AccountSortOption) ([]domain.Account, int64, error) {
	var accounts []domain.Account
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Account{}).
		Preload("Assignments").
		Preload("Assignments.User")

	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(ctx, query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&accounts).Error

	return accounts, total, err
}

// ListAll returns every account matching the filters, capped at maxRows.
// Used by CSV exports.
func (r *AccountRepository) ListAll(ctx context.Context, filters *AccountFilters, sortBy AccountSortOption, maxRows int) ([]domain.Account, error) {
	var accounts []domain.Account
	query := r.db.WithContext(ctx).Model(&domain.Account{})
	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(ctx, query, filters)
	query = r.applySorting(query, sortBy)
	err := query.Limit(maxRows).Find(&accounts).Error
	return accounts, err
}

// Search performs a name/domain search for quick lookups
func (r *AccountRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Account, error) {
	var accounts []domain.Account
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	query := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ?", searchPattern, searchPattern)
	query = ApplyTenantFilter(ctx, query)
	err := query.Limit(limit).Order("updated_at DESC").Find(&accounts).Error
	return accounts, err
}

// ListActive returns all active accounts for the tenant. The duplicate
// finder scores a prospect against this set.
func (r *AccountRepository) ListActive(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	query = ApplyTenantFilter(ctx, query)
	err := query.Find(&accounts).Error
	return accounts, err
}

// UpdateStage updates only the stage field
func (r *AccountRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.AccountStage) error {
	updates := map[string]interface{}{
		"stage":      stage,
		"updated_at": time.Now(),
	}
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id))
	return query.Updates(updates).Error
}

// AddAssignment links a user to an account
func (r *AccountRepository) AddAssignment(ctx context.Context, assignment *domain.AccountAssignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

// AddAssignmentTx links a user to an account inside an existing transaction
func (r *AccountRepository) AddAssignmentTx(ctx context.Context, tx *gorm.DB, assignment *domain.AccountAssignment) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

// RemoveAssignment removes a user assignment from an account
func (r *AccountRepository) RemoveAssignment(ctx context.Context, accountID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Delete(&domain.AccountAssignment{}).Error
}

// GetStats returns aggregated pipeline statistics for a single account
func (r *AccountRepository) GetStats(ctx context.Context, accountID uuid.UUID) (*domain.AccountStatsDTO, error) {
	stats := &domain.AccountStatsDTO{}

	openStages := []domain.OpportunityStage{
		domain.OpportunityStageIdentified,
		domain.OpportunityStageQualified,
		domain.OpportunityStageProposalSent,
		domain.OpportunityStageNegotiation,
	}

	var open struct {
		Count    int64
		Total    float64
		Weighted float64
	}
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select("COUNT(*) as count, COALESCE(SUM(bid_value), 0) as total, COALESCE(SUM(COALESCE(bid_value, 0) * probability / 100.0), 0) as weighted").
		Where("account_id = ?", accountID).
		Where("stage IN ?", openStages).
		Scan(&open).Error
	if err != nil {
		return nil, err
	}
	stats.OpenOpportunities = int(open.Count)
	stats.TotalPipelineValue = open.Total
	stats.WeightedPipeline = open.Weighted

	var won int64
	if err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Where("account_id = ? AND stage = ?", accountID, domain.OpportunityStageWon).
		Count(&won).Error; err != nil {
		return nil, err
	}
	stats.WonOpportunities = int(won)

	var props int64
	if err := r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("account_id = ?", accountID).
		Count(&props).Error; err != nil {
		return nil, err
	}
	stats.PropertyCount = int(props)

	return stats, nil
}

// WithTransaction executes operations within a transaction
func (r *AccountRepository) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// applyFilters applies all filter criteria to the query
func (r *AccountRepository) applyFilters(ctx context.Context, query *gorm.DB, filters *AccountFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}

	if len(filters.Stages) > 0 {
		query = query.Where("stage IN ?", filters.Stages)
	}

	if filters.CompanyType != nil {
		query = query.Where("company_type = ?", *filters.CompanyType)
	}

	if filters.City != nil {
		query = query.Where("LOWER(city) = ?", strings.ToLower(*filters.City))
	}

	if filters.State != nil {
		query = query.Where("LOWER(state) = ?", strings.ToLower(*filters.State))
	}

	if filters.AssignedTo != nil {
		sub := r.db.Model(&domain.AccountAssignment{}).
			Select("account_id").
			Where("user_id = ?", *filters.AssignedTo)
		query = query.Where("id IN (?)", sub)
	}

	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}

	if filters.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filters.CreatedAfter)
	}

	if filters.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filters.CreatedBefore)
	}

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ? OR LOWER(city) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	return query
}

// applySorting applies the sorting option to the query
func (r *AccountRepository) applySorting(query *gorm.DB, sortBy AccountSortOption) *gorm.DB {
	switch sortBy {
	case AccountSortByCreatedAsc:
		return query.Order("created_at ASC")
	case AccountSortByNameAsc:
		return query.Order("LOWER(name) ASC")
	case AccountSortByNameDesc:
		return query.Order("LOWER(name) DESC")
	case AccountSortByUpdatedDesc:
		return query.Order("updated_at DESC")
	default: // AccountSortByCreatedDesc
		return query.Order("created_at DESC")
	}
}
