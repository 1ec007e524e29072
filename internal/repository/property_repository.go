package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyFilters contains filter options for listing properties
type PropertyFilters struct {
	AccountID    *uuid.UUID
	BuildingType *string
	City         *string
	State        *string
	MinSqft      *int
	MaxSqft      *int
	SearchQuery  *string
}

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(property).Error
}

// CreateTx creates a property inside an existing transaction
func (r *PropertyRepository) CreateTx(ctx context.Context, tx *gorm.DB, property *domain.Property) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(property).Error
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	var property domain.Property
	query := r.db.WithContext(ctx).Preload("Account").Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepository) Update(ctx context.Context, property *domain.Property) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(property).Error
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	return query.Delete(&domain.Property{}).Error
}

func (r *PropertyRepository) List(ctx context.Context, page, pageSize int, filters *PropertyFilters) ([]domain.Property, int64, error) {
	var properties []domain.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Property{}).Preload("Account")
	query = ApplyTenantFilter(ctx, query)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&properties).Error

	return properties, total, err
}

// ListAll returns every property for the tenant, ordered by address.
// Feeds the reference-data fan-out, which wants the whole set.
func (r *PropertyRepository) ListAll(ctx context.Context) ([]domain.Property, error) {
	var properties []domain.Property
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx))
	err := query.Order("address ASC").Find(&properties).Error
	return properties, err
}

// GetByAccount returns all properties for an account
func (r *PropertyRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Property, error) {
	var properties []domain.Property
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("address ASC").Find(&properties).Error
	return properties, err
}

func (r *PropertyRepository) applyFilters(query *gorm.DB, filters *PropertyFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.AccountID != nil {
		query = query.Where("account_id = ?", *filters.AccountID)
	}

	if filters.BuildingType != nil {
		query = query.Where("building_type = ?", *filters.BuildingType)
	}

	if filters.City != nil {
		query = query.Where("LOWER(city) = ?", strings.ToLower(*filters.City))
	}

	if filters.State != nil {
		query = query.Where("LOWER(state) = ?", strings.ToLower(*filters.State))
	}

	if filters.MinSqft != nil {
		query = query.Where("sqft >= ?", *filters.MinSqft)
	}

	if filters.MaxSqft != nil {
		query = query.Where("sqft <= ?", *filters.MaxSqft)
	}

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where("LOWER(address) LIKE ? OR LOWER(city) LIKE ?", searchPattern, searchPattern)
	}

	return query
}
