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

// OpenOpportunityStages are the stages that count toward the active pipeline
var OpenOpportunityStages = []domain.OpportunityStage{
	domain.OpportunityStageIdentified,
	domain.OpportunityStageQualified,
	domain.OpportunityStageProposalSent,
	domain.OpportunityStageNegotiation,
}

// OpportunityFilters contains all filter options for listing opportunities
type OpportunityFilters struct {
	Stage           *domain.OpportunityStage
	Stages          []domain.OpportunityStage
	OpportunityType *domain.OpportunityType
	AccountID       *uuid.UUID
	PropertyID      *uuid.UUID
	AssignedTo      *uuid.UUID
	MinValue        *float64
	MaxValue        *float64
	MinProb         *int
	MaxProb         *int
	CloseAfter      *time.Time
	CloseBefore     *time.Time
	OpenOnly        *bool
	SearchQuery     *string
}

// OpportunitySortOption represents available sort options
type OpportunitySortOption string

const (
	OpportunitySortByCreatedDesc   OpportunitySortOption = "created_desc"
	OpportunitySortByCreatedAsc    OpportunitySortOption = "created_asc"
	OpportunitySortByValueDesc     OpportunitySortOption = "value_desc"
	OpportunitySortByValueAsc      OpportunitySortOption = "value_asc"
	OpportunitySortByCloseDateDesc OpportunitySortOption = "close_date_desc"
	OpportunitySortByCloseDateAsc  OpportunitySortOption = "close_date_asc"
	OpportunitySortByProbDesc      OpportunitySortOption = "probability_desc"
	OpportunitySortByProbAsc       OpportunitySortOption = "probability_asc"
)

type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *domain.Opportunity) error {
	// Omit associations to avoid GORM trying to validate related records
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(opp).Error
}

// CreateTx creates an opportunity inside an existing transaction
func (r *OpportunityRepository) CreateTx(ctx context.Context, tx *gorm.DB, opp *domain.Opportunity) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(opp).Error
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	query := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Property").
		Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&opp).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(opp).Error
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	return query.Delete(&domain.Opportunity{}).Error
}

func (r *OpportunityRepository) List(ctx context.Context, page, pageSize int, filters *OpportunityFilters, sortBy OpportunitySortOption) ([]domain.Opportunity, int64, error) {
	var opps []domain.Opportunity
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Preload("Account").
		Preload("Property")

	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&opps).Error

	return opps, total, err
}

// ListAll returns every opportunity matching the filters, capped at maxRows.
// Used by CSV exports.
func (r *OpportunityRepository) ListAll(ctx context.Context, filters *OpportunityFilters, sortBy OpportunitySortOption, maxRows int) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	query := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Preload("Account")
	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(query, filters)
	query = r.applySorting(query, sortBy)
	err := query.Limit(maxRows).Find(&opps).Error
	return opps, err
}

// GetByAccount returns all opportunities for a specific account
func (r *OpportunityRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	query := r.db.WithContext(ctx).
		Preload("Property").
		Where("account_id = ?", accountID)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("created_at DESC").Find(&opps).Error
	return opps, err
}

// GetOpenByAccount returns open opportunities for an account
func (r *OpportunityRepository) GetOpenByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("stage IN ?", OpenOpportunityStages)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("expected_close_date ASC NULLS LAST").Find(&opps).Error
	return opps, err
}

// UpdateStage updates only the stage field (used with stage history tracking)
func (r *OpportunityRepository) UpdateStage(ctx context.Context, tx *gorm.DB, id uuid.UUID, stage domain.OpportunityStage) error {
	updates := map[string]interface{}{
		"stage":      stage,
		"updated_at": time.Now(),
	}
	if stage == domain.OpportunityStageWon {
		updates["probability"] = 100
	}
	if stage == domain.OpportunityStageLost {
		updates["probability"] = 0
	}
	return tx.WithContext(ctx).Model(&domain.Opportunity{}).Where("id = ?", id).Updates(updates).Error
}

// GetPipelineStats returns aggregated statistics for open opportunities
func (r *OpportunityRepository) GetPipelineStats(ctx context.Context) (*PipelineStats, error) {
	stats := &PipelineStats{
		ByStage: make(map[domain.OpportunityStage]StageStats),
	}

	type stageResult struct {
		Stage         domain.OpportunityStage
		Count         int64
		TotalValue    float64
		WeightedValue float64
	}

	var results []stageResult
	query := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select("stage, COUNT(*) as count, COALESCE(SUM(bid_value), 0) as total_value, COALESCE(SUM(COALESCE(bid_value, 0) * probability / 100.0), 0) as weighted_value").
		Where("stage IN ?", OpenOpportunityStages).
		Group("stage")
	query = ApplyTenantFilter(ctx, query)
	if err := query.Scan(&results).Error; err != nil {
		return nil, err
	}

	for _, r := range results {
		stats.ByStage[r.Stage] = StageStats{
			Count:         r.Count,
			TotalValue:    r.TotalValue,
			WeightedValue: r.WeightedValue,
		}
		stats.TotalCount += r.Count
		stats.TotalValue += r.TotalValue
		stats.WeightedValue += r.WeightedValue
	}

	return stats, nil
}

// PipelineStats holds aggregated pipeline statistics
type PipelineStats struct {
	TotalCount    int64
	TotalValue    float64
	WeightedValue float64
	ByStage       map[domain.OpportunityStage]StageStats
}

// StageStats holds statistics for a single stage
type StageStats struct {
	Count         int64
	TotalValue    float64
	WeightedValue float64
}

// CountClosedSince counts opportunities that entered a terminal stage since
// the given time, based on stage history
func (r *OpportunityRepository) CountClosedSince(ctx context.Context, stage domain.OpportunityStage, since time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Table("opportunity_stage_history").
		Joins("JOIN opportunities ON opportunity_stage_history.opportunity_id = opportunities.id").
		Where("opportunity_stage_history.to_stage = ?", stage).
		Where("opportunity_stage_history.changed_at >= ?", since)
	query = ApplyTenantFilterWithAlias(ctx, query, "opportunities")
	err := query.Count(&count).Error
	return count, err
}

// WithTransaction executes operations within a transaction
func (r *OpportunityRepository) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// applyFilters applies all filter criteria to the query
func (r *OpportunityRepository) applyFilters(query *gorm.DB, filters *OpportunityFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}

	if len(filters.Stages) > 0 {
		query = query.Where("stage IN ?", filters.Stages)
	}

	if filters.OpportunityType != nil {
		query = query.Where("opportunity_type = ?", *filters.OpportunityType)
	}

	if filters.AccountID != nil {
		query = query.Where("account_id = ?", *filters.AccountID)
	}

	if filters.PropertyID != nil {
		query = query.Where("property_id = ?", *filters.PropertyID)
	}

	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}

	if filters.MinValue != nil {
		query = query.Where("bid_value >= ?", *filters.MinValue)
	}

	if filters.MaxValue != nil {
		query = query.Where("bid_value <= ?", *filters.MaxValue)
	}

	if filters.MinProb != nil {
		query = query.Where("probability >= ?", *filters.MinProb)
	}

	if filters.MaxProb != nil {
		query = query.Where("probability <= ?", *filters.MaxProb)
	}

	if filters.CloseAfter != nil {
		query = query.Where("expected_close_date >= ?", *filters.CloseAfter)
	}

	if filters.CloseBefore != nil {
		query = query.Where("expected_close_date <= ?", *filters.CloseBefore)
	}

	if filters.OpenOnly != nil && *filters.OpenOnly {
		query = query.Where("stage IN ?", OpenOpportunityStages)
	}

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where("LOWER(name) LIKE ?", searchPattern)
	}

	return query
}

// applySorting applies the sorting option to the query
func (r *OpportunityRepository) applySorting(query *gorm.DB, sortBy OpportunitySortOption) *gorm.DB {
	switch sortBy {
	case OpportunitySortByCreatedAsc:
		return query.Order("created_at ASC")
	case OpportunitySortByValueDesc:
		return query.Order("bid_value DESC NULLS LAST")
	case OpportunitySortByValueAsc:
		return query.Order("bid_value ASC NULLS LAST")
	case OpportunitySortByCloseDateDesc:
		return query.Order("expected_close_date DESC NULLS LAST")
	case OpportunitySortByCloseDateAsc:
		return query.Order("expected_close_date ASC NULLS LAST")
	case OpportunitySortByProbDesc:
		return query.Order("probability DESC")
	case OpportunitySortByProbAsc:
		return query.Order("probability ASC")
	default: // OpportunitySortByCreatedDesc
		return query.Order("created_at DESC")
	}
}
