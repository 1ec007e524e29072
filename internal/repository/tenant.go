package repository

import (
	"context"
	"strings"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // The field to sort by (API field name)
	Order SortOrder // asc or desc
}

// DefaultSortConfig returns a default sort configuration (updated_at DESC)
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "updatedAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from field mapping and sort config
// fieldMap maps API field names to database column names
// Returns the default sort if field is not in whitelist
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// ApplyTenantFilter applies the multi-tenant filter to a GORM query.
// Every repository query over tenant-owned tables must go through this.
// Queries without a resolved tenant match nothing rather than everything.
func ApplyTenantFilter(ctx context.Context, query *gorm.DB) *gorm.DB {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID != nil {
		return query.Where("tenant_id = ?", *tenantID)
	}
	return query.Where("1 = 0")
}

// ApplyTenantFilterWithAlias applies the tenant filter using a table alias.
// Use this when joining multiple tables and you need to specify which
// table's tenant_id to filter on.
func ApplyTenantFilterWithAlias(ctx context.Context, query *gorm.DB, tableAlias string) *gorm.DB {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID != nil {
		return query.Where(tableAlias+".tenant_id = ?", *tenantID)
	}
	return query.Where("1 = 0")
}

// MustHaveTenantAccess checks if the caller may touch a record owned by the
// given tenant. Useful for single-record operations loaded outside a filtered
// query.
func MustHaveTenantAccess(ctx context.Context, recordTenantID string) bool {
	tenantID := auth.GetEffectiveTenant(ctx)
	if tenantID == nil {
		return false
	}
	return string(*tenantID) == recordTenantID
}
