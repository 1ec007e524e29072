package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

// TestTenant is the tenant every DB test scopes its data to
const TestTenant = domain.TenantID("test-tenant")

// TenantContext returns a context scoped to the shared test tenant. Repository
// queries filter on the effective tenant, so DB tests must use this context.
func TenantContext() context.Context {
	return auth.WithTenantScope(context.Background(), &auth.TenantScope{TenantID: TestTenant})
}

// TenantContextFor returns a context scoped to an arbitrary tenant. Useful
// for asserting cross-tenant isolation.
func TenantContextFor(tenant domain.TenantID) context.Context {
	return auth.WithTenantScope(context.Background(), &auth.TenantScope{TenantID: tenant})
}

// SetupTestDB connects to the test PostgreSQL database, skipping the test
// when no database is reachable. It uses environment variables or falls
// back to docker-compose defaults.
func SetupTestDB(t *testing.T) *gorm.DB {
	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "pipeline_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "pipeline_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "pipeline")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Skipf("Skipping: test database not reachable: %v", err)
	}
	if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		t.Skip("Skipping: test database not reachable")
	}

	err = db.AutoMigrate(
		&domain.Tenant{},
		&domain.User{},
		&domain.Prospect{},
		&domain.Account{},
		&domain.AccountAssignment{},
		&domain.Property{},
		&domain.Opportunity{},
		&domain.OpportunityStageHistory{},
		&domain.Activity{},
		&domain.Task{},
		&domain.Notification{},
	)
	require.NoError(t, err)

	EnsureTestTenant(t, db)

	return db
}

// CleanupTestData removes test data from all tables. Call after tests to
// leave a clean state.
func CleanupTestData(t *testing.T, db *gorm.DB) {
	// Delete in order to respect foreign key constraints
	tables := []string{
		"notifications",
		"tasks",
		"activities",
		"opportunity_stage_history",
		"opportunities",
		"properties",
		"account_assignments",
		"accounts",
		"prospects",
	}

	for _, table := range tables {
		err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IS NOT NULL", table)).Error
		if err != nil {
			// Table might not exist, that's ok
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// EnsureTestTenant creates the shared test tenant if it does not exist
func EnsureTestTenant(t *testing.T, db *gorm.DB) {
	err := db.Exec(`
		INSERT INTO tenants (id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, true, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`, string(TestTenant), "Test Tenant").Error
	if err != nil {
		t.Logf("Note: Could not insert test tenant: %v", err)
	}
}

// CreateTestProspect creates a prospect owned by the test tenant
func CreateTestProspect(t *testing.T, db *gorm.DB, name string) *domain.Prospect {
	prospect := &domain.Prospect{
		TenantID: TestTenant,
		Name:     name,
		Domain:   fmt.Sprintf("prospect-%d.example.com", uniqueInt()),
		Status:   domain.ProspectStatusUncontacted,
	}
	err := db.Omit(clause.Associations).Create(prospect).Error
	require.NoError(t, err)
	return prospect
}

// CreateTestAccount creates an account owned by the test tenant
func CreateTestAccount(t *testing.T, db *gorm.DB, name string) *domain.Account {
	account := &domain.Account{
		TenantID: TestTenant,
		Name:     name,
		Stage:    domain.AccountStageUnqualified,
		IsActive: true,
	}
	err := db.Omit(clause.Associations).Create(account).Error
	require.NoError(t, err)
	return account
}

// uniqueInt returns a unique integer for test data
func uniqueInt() int64 {
	return time.Now().UnixNano()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
