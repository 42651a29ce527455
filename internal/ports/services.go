package ports

import (
	"github.com/scrumban/core/internal/domain/entities"
)

// Request/Response Types

// Auth related types
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Session *entities.Session   `json:"session"`
	User    *entities.Principal `json:"user"`
}

// Project related types
type CreateProjectRequest struct {
	Name         string `json:"name" validate:"required,max=128"`
	Description  string `json:"description" validate:"max=1000"`
	RequiresAuth bool   `json:"requires_auth"`
}

type UpdateProjectRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	RequiresAuth *bool   `json:"requires_auth"`
}

// Board related types
type CreateBoardRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdateBoardRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required,max=256"`
	Description string              `json:"description" validate:"max=2000"`
	Status      entities.TaskStatus `json:"status" validate:"omitempty,oneof=todo in-progress done"`
}

type UpdateTaskRequest struct {
	Title           *string              `json:"title" validate:"omitempty,min=1,max=256"`
	Description     *string              `json:"description" validate:"omitempty,max=2000"`
	Status          *entities.TaskStatus `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Order           *int                 `json:"order" validate:"omitempty,min=0"`
	AssignedTo      *string              `json:"assigned_to"`
	AssignedToName  *string              `json:"assigned_to_name"`
	AssignedToEmail *string              `json:"assigned_to_email" validate:"omitempty,email"`
}

// Share related types
type InviteRequest struct {
	Email      string              `json:"email" validate:"required,email"`
	Permission entities.Permission `json:"permission" validate:"required,oneof=read write"`
}

// Drag related types
type DropTarget struct {
	ID     string              `json:"id"`
	Status entities.TaskStatus `json:"status,omitempty"`
}

type DragRequest struct {
	TaskID string      `json:"task_id" validate:"required"`
	Over   *DropTarget `json:"over"`
}

type DragResponse struct {
	Moved   bool                                     `json:"moved"`
	Task    *entities.Task                           `json:"task,omitempty"`
	Columns map[entities.TaskStatus][]*entities.Task `json:"columns"`
}

type BoardView struct {
	Board   *entities.Board                          `json:"board"`
	Access  entities.AccessResult                    `json:"access"`
	CanDrag bool                                     `json:"can_drag"`
	Columns map[entities.TaskStatus][]*entities.Task `json:"columns"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
