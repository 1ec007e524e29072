package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/mapper"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

type TaskService struct {
	taskRepo      *repository.TaskRepository
	userRepo      *repository.UserRepository
	notifications *NotificationService
	logger        *zap.Logger
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *TaskService) Create(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	task := &domain.Task{
		TenantID:  userCtx.TenantID,
		Title:     req.Title,
		Status:    domain.TaskStatusOpen,
		Notes:     req.Notes,
		CreatedBy: &userCtx.UserID,
	}

	if req.DueDate != nil {
		dueDate, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrInvalidInput)
		}
		task.DueDate = &dueDate
	}
	if req.TargetType != "" {
		targetType := domain.ActivityTargetType(req.TargetType)
		if !targetType.IsValid() {
			return nil, fmt.Errorf("%w: unknown target type", ErrInvalidInput)
		}
		task.TargetType = targetType
	}
	if req.TargetID != nil {
		targetID, err := uuid.Parse(*req.TargetID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid target id", ErrInvalidInput)
		}
		task.TargetID = &targetID
	}
	if req.AssignedTo != nil {
		assigneeID, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
		}
		if _, err := s.userRepo.GetByID(ctx, assigneeID); err != nil {
			return nil, ErrUserNotFound
		}
		task.AssignedTo = &assigneeID
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.notifyAssignment(ctx, task, userCtx.UserID)

	dto := s.toDTO(ctx, task)
	return &dto, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(ctx, task)
	return &dto, nil
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTaskRequest) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousAssignee := task.AssignedTo

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown task status", ErrInvalidInput)
		}
		task.Status = status
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			task.DueDate = nil
		} else {
			dueDate, err := time.Parse("2006-01-02", *req.DueDate)
			if err != nil {
				return nil, fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrInvalidInput)
			}
			task.DueDate = &dueDate
		}
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			task.AssignedTo = nil
		} else {
			assigneeID, err := uuid.Parse(*req.AssignedTo)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
			}
			if _, err := s.userRepo.GetByID(ctx, assigneeID); err != nil {
				return nil, ErrUserNotFound
			}
			task.AssignedTo = &assigneeID
		}
	}
	if req.Notes != nil {
		task.Notes = *req.Notes
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	reassigned := task.AssignedTo != nil &&
		(previousAssignee == nil || *previousAssignee != *task.AssignedTo)
	if reassigned {
		if userCtx, ok := auth.FromContext(ctx); ok {
			s.notifyAssignment(ctx, task, userCtx.UserID)
		}
	}

	dto := s.toDTO(ctx, task)
	return &dto, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, page, pageSize int, filters *repository.TaskFilters) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	tasks, total, err := s.taskRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	assignees := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		if task.AssignedTo != nil {
			assignees = append(assignees, *task.AssignedTo)
		}
	}
	names := lookupUserNames(ctx, s.userRepo, assignees)

	dtos := make([]domain.TaskDTO, len(tasks))
	for i, task := range tasks {
		name := ""
		if task.AssignedTo != nil {
			name = names[*task.AssignedTo]
		}
		dtos[i] = mapper.ToTaskDTO(&task, name)
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

func (s *TaskService) notifyAssignment(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	if task.AssignedTo == nil || s.notifications == nil {
		return
	}
	if *task.AssignedTo == actorID {
		return
	}

	notification := &domain.Notification{
		TenantID:   task.TenantID,
		UserID:     *task.AssignedTo,
		Type:       string(domain.NotificationTypeTaskAssigned),
		Title:      "Task assigned to you",
		Message:    task.Title,
		EntityID:   &task.ID,
		EntityType: "task",
	}
	if err := s.notifications.Notify(ctx, notification); err != nil {
		s.logger.Warn("failed to send task assignment notification", zap.Error(err))
	}
}

func (s *TaskService) toDTO(ctx context.Context, task *domain.Task) domain.TaskDTO {
	name := ""
	if task.AssignedTo != nil {
		names := lookupUserNames(ctx, s.userRepo, []uuid.UUID{*task.AssignedTo})
		name = names[*task.AssignedTo]
	}
	return mapper.ToTaskDTO(task, name)
}
