package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

// ProspectFilters contains all filter options for listing prospects
type ProspectFilters struct {
	Status         *domain.ProspectStatus
	Statuses       []domain.ProspectStatus
	AssignedTo     *uuid.UUID
	Unassigned     *bool
	CompanyType    *string
	City           *string
	State          *string
	MinICPScore    *int
	MaxICPScore    *int
	Source         *string
	Tag            *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	InactiveSince  *time.Time
	SearchQuery    *string
}

// ProspectSortOption represents available sort options
type ProspectSortOption string

const (
	ProspectSortByCreatedDesc  ProspectSortOption = "created_desc"
	ProspectSortByCreatedAsc   ProspectSortOption = "created_asc"
	ProspectSortByNameAsc      ProspectSortOption = "name_asc"
	ProspectSortByNameDesc     ProspectSortOption = "name_desc"
	ProspectSortByICPScoreDesc ProspectSortOption = "icp_score_desc"
	ProspectSortByICPScoreAsc  ProspectSortOption = "icp_score_asc"
	ProspectSortByActivityDesc ProspectSortOption = "activity_desc"
	ProspectSortByActivityAsc  ProspectSortOption = "activity_asc"
)

type ProspectRepository struct {
	db *gorm.DB
}

func NewProspectRepository(db *gorm.DB) *ProspectRepository {
	return &ProspectRepository{db: db}
}

func (r *ProspectRepository) Create(ctx context.Context, prospect *domain.Prospect) error {
	return r.db.WithContext(ctx).Create(prospect).Error
}

func (r *ProspectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prospect, error) {
	var prospect domain.Prospect
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&prospect).Error
	if err != nil {
		return nil, err
	}
	return &prospect, nil
}

func (r *ProspectRepository) Update(ctx context.Context, prospect *domain.Prospect) error {
	return r.db.WithContext(ctx).Save(prospect).Error
}

func (r *ProspectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	return query.Delete(&domain.Prospect{}).Error
}

func (r *ProspectRepository) List(ctx context.Context, page, pageSize int, filters *ProspectFilters, sortBy ProspectSortOption) ([]domain.Prospect, int64, error) {
	var prospects []domain.Prospect
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Prospect{})

	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&prospects).Error

	return prospects, total, err
}

// ListAll returns every prospect matching the filters without pagination,
// capped at maxRows. Used by CSV exports.
func (r *ProspectRepository) ListAll(ctx context.Context, filters *ProspectFilters, sortBy ProspectSortOption, maxRows int) ([]domain.Prospect, error) {
	var prospects []domain.Prospect
	query := r.db.WithContext(ctx).Model(&domain.Prospect{})
	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(query, filters)
	query = r.applySorting(query, sortBy)
	err := query.Limit(maxRows).Find(&prospects).Error
	return prospects, err
}

// Search performs a name/domain/city search for quick lookups
func (r *ProspectRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Prospect, error) {
	var prospects []domain.Prospect
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	query := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ? OR LOWER(city) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	query = ApplyTenantFilter(ctx, query)
	err := query.Limit(limit).Order("icp_fit_score DESC").Find(&prospects).Error
	return prospects, err
}

// UpdateStatus updates only the status field
func (r *ProspectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ProspectStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Prospect{}).Where("id = ?", id))
	return query.Updates(updates).Error
}

// BulkUpdateStatus updates the status of a set of prospects in one statement.
// Returns the number of rows actually updated.
func (r *ProspectRepository) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.ProspectStatus) (int64, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Prospect{}).Where("id IN ?", ids))
	// Converted prospects are immutable through bulk operations
	query = query.Where("status <> ?", domain.ProspectStatusConverted)
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

// BulkAssign assigns a set of prospects to a user (nil clears the assignment)
func (r *ProspectRepository) BulkAssign(ctx context.Context, ids []uuid.UUID, assignedTo *uuid.UUID) (int64, error) {
	updates := map[string]interface{}{
		"assigned_to": assignedTo,
		"updated_at":  time.Now(),
	}
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Prospect{}).Where("id IN ?", ids))
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

// MarkConverted records the conversion result on the prospect row.
// Runs inside the conversion transaction via tx.
func (r *ProspectRepository) MarkConverted(ctx context.Context, tx *gorm.DB, id uuid.UUID, accountID uuid.UUID) error {
	updates := map[string]interface{}{
		"status":               domain.ProspectStatusConverted,
		"converted_account_id": accountID,
		"updated_at":           time.Now(),
	}
	return tx.WithContext(ctx).Model(&domain.Prospect{}).Where("id = ?", id).Updates(updates).Error
}

// TouchActivity bumps last_activity_at to now
func (r *ProspectRepository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Model(&domain.Prospect{}).Where("id = ?", id))
	return query.Update("last_activity_at", at).Error
}

// FindStale returns assigned, unconverted prospects with no recorded activity
// since the cutoff. Used by the stale prospect sweep.
func (r *ProspectRepository) FindStale(ctx context.Context, cutoff time.Time) ([]domain.Prospect, error) {
	var prospects []domain.Prospect
	query := r.db.WithContext(ctx).
		Where("status NOT IN ?", []domain.ProspectStatus{domain.ProspectStatusConverted, domain.ProspectStatusDisqualified}).
		Where("assigned_to IS NOT NULL").
		Where("(last_activity_at IS NULL AND created_at < ?) OR last_activity_at < ?", cutoff, cutoff)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("last_activity_at ASC NULLS FIRST").Find(&prospects).Error
	return prospects, err
}

// GetFunnelCounts returns prospect counts grouped by status
func (r *ProspectRepository) GetFunnelCounts(ctx context.Context) (map[domain.ProspectStatus]int64, error) {
	type row struct {
		Status domain.ProspectStatus
		Count  int64
	}
	var rows []row
	query := r.db.WithContext(ctx).Model(&domain.Prospect{}).
		Select("status, COUNT(*) as count").
		Group("status")
	query = ApplyTenantFilter(ctx, query)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.ProspectStatus]int64)
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// ListTenantIDs returns the distinct tenants that own prospects.
// Background sweeps iterate these to scope their work per tenant.
func (r *ProspectRepository) ListTenantIDs(ctx context.Context) ([]domain.TenantID, error) {
	var ids []domain.TenantID
	err := r.db.WithContext(ctx).Model(&domain.Prospect{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// WithTransaction executes operations within a transaction
func (r *ProspectRepository) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// applyFilters applies all filter criteria to the query
func (r *ProspectRepository) applyFilters(query *gorm.DB, filters *ProspectFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}

	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}

	if filters.Unassigned != nil && *filters.Unassigned {
		query = query.Where("assigned_to IS NULL")
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

	if filters.MinICPScore != nil {
		query = query.Where("icp_fit_score >= ?", *filters.MinICPScore)
	}

	if filters.MaxICPScore != nil {
		query = query.Where("icp_fit_score <= ?", *filters.MaxICPScore)
	}

	if filters.Source != nil {
		query = query.Where("source = ?", *filters.Source)
	}

	if filters.Tag != nil {
		query = query.Where("? = ANY(tags)", *filters.Tag)
	}

	if filters.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filters.CreatedAfter)
	}

	if filters.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filters.CreatedBefore)
	}

	if filters.InactiveSince != nil {
		query = query.Where("last_activity_at IS NULL OR last_activity_at < ?", *filters.InactiveSince)
	}

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ? OR LOWER(city) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	return query
}

// applySorting applies the sorting option to the query
func (r *ProspectRepository) applySorting(query *gorm.DB, sortBy ProspectSortOption) *gorm.DB {
	switch sortBy {
	case ProspectSortByCreatedAsc:
		return query.Order("created_at ASC")
	case ProspectSortByNameAsc:
		return query.Order("LOWER(name) ASC")
	case ProspectSortByNameDesc:
		return query.Order("LOWER(name) DESC")
	case ProspectSortByICPScoreDesc:
		return query.Order("icp_fit_score DESC")
	case ProspectSortByICPScoreAsc:
		return query.Order("icp_fit_score ASC")
	case ProspectSortByActivityDesc:
		return query.Order("last_activity_at DESC NULLS LAST")
	case ProspectSortByActivityAsc:
		return query.Order("last_activity_at ASC NULLS FIRST")
	default: // ProspectSortByCreatedDesc
		return query.Order("created_at DESC")
	}
}
