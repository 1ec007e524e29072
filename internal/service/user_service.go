package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

// validRoles are the roles an admin can grant
var validRoles = map[domain.UserRoleType]struct{}{
	domain.RoleAdmin:      {},
	domain.RoleManager:    {},
	domain.RoleRep:        {},
	domain.RoleViewer:     {},
	domain.RoleAPIService: {},
}

type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// GetMe returns the caller's profile, creating it on first login
func (s *UserService) GetMe(ctx context.Context) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	profile := &domain.User{
		ID:          userCtx.UserID,
		TenantID:    userCtx.TenantID,
		Email:       userCtx.Email,
		DisplayName: userCtx.DisplayName,
		Roles:       []string{string(domain.RoleRep)},
		IsActive:    true,
	}
	if err := s.userRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to sync user profile: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns all active users in the caller's tenant
func (s *UserService) List(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i, user := range users {
		dtos[i] = mapper.ToUserDTO(&user)
	}
	return dtos, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// UpdateRoles replaces a user's role set. At least one role is required and
// every role must be known.
func (s *UserService) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) (*domain.UserDTO, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", ErrInvalidInput)
	}
	for _, role := range roles {
		if _, ok := validRoles[domain.UserRoleType(role)]; !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
		}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user.Roles = roles
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update roles: %w", err)
	}

	s.logger.Info("user roles updated",
		zap.String("user_id", id.String()),
		zap.Strings("roles", roles))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}
