package entities

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrBoardNotFound          = errors.New("board not found")
	ErrTaskNotFound           = errors.New("task not found")
	ErrShareNotFound          = errors.New("share not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrReadOnlyBoard          = errors.New("You only have read access to this board")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidPermission      = errors.New("invalid permission")
	ErrRedundantShare         = errors.New("owner already has write access")
	ErrDragInProgress         = errors.New("task is already being moved")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidSession         = errors.New("invalid session")
	ErrInvalidInput           = errors.New("invalid input")
)

// Enums and types
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Principal is the acting user. A nil *Principal is the anonymous caller.
type Principal struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
}

// ID returns the user id, or "" for the anonymous principal.
func (p *Principal) ID() string {
	if p == nil {
		return ""
	}
	return p.UserID
}

// Session is an authenticated session issued by an identity provider.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User is an account known to the local identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the acting identity of the user.
func (u *User) Principal() *Principal {
	return &Principal{UserID: u.ID, DisplayName: u.Name, Email: u.Email}
}

// Project represents a top-level container owned by a single user
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	RequiresAuth bool      `json:"requires_auth"`
	OwnerID      string    `json:"owner_id"`
	LegacyUserID string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Board represents a task container within a project
type Board struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	OwnerID      string    `json:"owner_id"`
	LegacyUserID string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Task represents a unit of work on a board
type Task struct {
	ID              string     `json:"id"`
	BoardID         string     `json:"board_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          TaskStatus `json:"status"`
	Order           int        `json:"order"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedByName   string     `json:"created_by_name,omitempty"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
	AssignedTo      string     `json:"assigned_to,omitempty"`
	AssignedToName  string     `json:"assigned_to_name,omitempty"`
	AssignedToEmail string     `json:"assigned_to_email,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ProjectShare grants a user access to a project
type ProjectShare struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	UserID     string     `json:"user_id,omitempty"`
	UserEmail  string     `json:"user_email"`
	UserName   string     `json:"user_name,omitempty"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BoardShare grants a user access to a board
type BoardShare struct {
	ID         string     `json:"id"`
	BoardID    string     `json:"board_id"`
	UserID     string     `json:"user_id,omitempty"`
	UserEmail  string     `json:"user_email"`
	UserName   string     `json:"user_name,omitempty"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Business logic methods for Project
func (p *Project) IsOwnedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return p.OwnerID == userID || p.LegacyUserID == userID
}

// Business logic methods for Board
func (b *Board) IsOwnedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return b.OwnerID == userID || b.LegacyUserID == userID
}

// Business logic methods for Task
func (t *Task) Clone() Task {
	c := *t
	if t.StatusChangedAt != nil {
		ts := *t.StatusChangedAt
		c.StatusChangedAt = &ts
	}
	return c
}

// MoveTo returns a copy of the task placed in status at the given order.
func (t *Task) MoveTo(status TaskStatus, order int) Task {
	moved := t.Clone()
	moved.Status = status
	moved.Order = order
	return moved
}

// NextOrder returns max(order)+1 over the tasks in status, or 0 when the column is empty.
func NextOrder(tasks []Task, status TaskStatus) int {
	next := 0
	for _, t := range tasks {
		if t.Status == status && t.Order+1 > next {
			next = t.Order + 1
		}
	}
	return next
}

// Utility methods
func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

func (p Permission) IsValid() bool {
	switch p {
	case PermissionRead, PermissionWrite:
		return true
	default:
		return false
	}
}

// Stronger reports whether p grants more than other.
func (p Permission) Stronger(other Permission) bool {
	return p == PermissionWrite && other != PermissionWrite
}
