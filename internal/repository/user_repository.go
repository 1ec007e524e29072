package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id))
	err := query.First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("email = ?", email))
	err := query.First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActive returns active users for the tenant, ordered by display name
func (r *UserRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("is_active = ?", true))
	err := query.Order("LOWER(display_name) ASC").Find(&users).Error
	return users, err
}

// GetManyByID loads a set of users keyed by ID for DTO enrichment
func (r *UserRepository) GetManyByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.User, error) {
	result := make(map[uuid.UUID]domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []domain.User
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx).Where("id IN ?", ids))
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// Upsert creates or refreshes a user profile at login time.
// Roles assigned in the admin UI are preserved on update.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	var existing domain.User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(user).Error
	}

	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"last_login_at": time.Now(),
	}
	if user.DisplayName != "" {
		updates["display_name"] = user.DisplayName
	}

	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", existing.ID).Updates(updates).Error
}
