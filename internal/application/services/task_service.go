package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// TaskService handles task-related operations. Task access derives entirely
// from access to the containing board.
type TaskService struct {
	taskRepo    ports.TaskRepository
	permissions *PermissionService
	coordinator *TaskStateCoordinator
	logger      *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, permissions *PermissionService, coordinator *TaskStateCoordinator, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		permissions: permissions,
		coordinator: coordinator,
		logger:      logger,
	}
}

// CreateTask creates a task on a board the principal can write to
func (s *TaskService) CreateTask(ctx context.Context, principal *entities.Principal, boardID string, req ports.CreateTaskRequest) (*entities.Task, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.requireBoardWrite(ctx, principal, boardID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Create(ctx, ports.CreateTaskInput{
		BoardID:       boardID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Status:        req.Status,
		CreatedBy:     principal.UserID,
		CreatedByName: principal.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created successfully", "task_id", task.ID, "board_id", boardID)
	return task, nil
}

// BoardView loads the column view of a board
func (s *TaskService) BoardView(ctx context.Context, principal *entities.Principal, boardID string) (*ports.BoardView, error) {
	state, err := s.coordinator.Open(ctx, principal, boardID)
	if err != nil {
		return nil, err
	}
	return &ports.BoardView{
		Board:   state.Board(),
		Access:  state.Access(),
		CanDrag: state.CanDrag(),
		Columns: state.Columns(),
	}, nil
}

// UpdateTask changes a task on a board the principal can write to
func (s *TaskService) UpdateTask(ctx context.Context, principal *entities.Principal, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	current, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := s.requireBoardWrite(ctx, principal, current.BoardID); err != nil {
		return nil, err
	}

	patch := ports.TaskPatch{
		Title:           req.Title,
		Description:     req.Description,
		Status:          req.Status,
		Order:           req.Order,
		AssignedTo:      req.AssignedTo,
		AssignedToName:  req.AssignedToName,
		AssignedToEmail: req.AssignedToEmail,
	}
	if patch.IsEmpty() {
		return current, nil
	}

	task, err := s.taskRepo.Update(ctx, id, patch, current)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated successfully", "task_id", id)
	return task, nil
}

// DeleteTask removes a task from a board the principal can write to
func (s *TaskService) DeleteTask(ctx context.Context, principal *entities.Principal, id string) error {
	if err := requireUser(principal); err != nil {
		return err
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if err := s.requireBoardWrite(ctx, principal, task.BoardID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Infow("Task deleted successfully", "task_id", id)
	return nil
}

// MoveTask applies a drag-end on a board and returns the resulting columns
func (s *TaskService) MoveTask(ctx context.Context, principal *entities.Principal, boardID string, req ports.DragRequest) (*ports.DragResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	state, err := s.coordinator.Open(ctx, principal, boardID)
	if err != nil {
		return nil, err
	}

	result, err := state.DragEnd(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ports.DragResponse{
		Moved:   result.Moved,
		Task:    result.Task,
		Columns: state.Columns(),
	}, nil
}

func (s *TaskService) requireBoardWrite(ctx context.Context, principal *entities.Principal, boardID string) error {
	_, access, err := s.permissions.boardAccess(ctx, boardID, principal)
	if err != nil {
		return fmt.Errorf("get board: %w", err)
	}
	if !access.CanWrite() {
		return entities.ErrPermissionDenied
	}
	return nil
}
