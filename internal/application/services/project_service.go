package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// ProjectService handles project-related operations
type ProjectService struct {
	projectRepo ports.ProjectRepository
	permissions *PermissionService
	logger      *logger.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ports.ProjectRepository, permissions *PermissionService, logger *logger.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		permissions: permissions,
		logger:      logger,
	}
}

// CreateProject creates a new project owned by principal
func (s *ProjectService) CreateProject(ctx context.Context, principal *entities.Principal, req ports.CreateProjectRequest) (*entities.Project, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	project := &entities.Project{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		RequiresAuth: req.RequiresAuth,
		OwnerID:      principal.UserID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Infow("Project created successfully", "project_id", project.ID, "owner_id", project.OwnerID)
	return project, nil
}

// GetProject retrieves a project the principal can read
func (s *ProjectService) GetProject(ctx context.Context, principal *entities.Principal, id string) (*entities.Project, entities.AccessResult, error) {
	project, access, err := s.permissions.projectAccess(ctx, id, principal)
	if err != nil {
		return nil, access, fmt.Errorf("get project: %w", err)
	}
	if !access.CanRead() {
		return nil, access, denied(principal)
	}
	return project, access, nil
}

// ListProjects returns the projects owned by or shared with principal.
// The anonymous principal owns nothing and gets an empty list.
func (s *ProjectService) ListProjects(ctx context.Context, principal *entities.Principal) ([]*entities.Project, error) {
	if principal.ID() == "" {
		return []*entities.Project{}, nil
	}

	projects, err := s.projectRepo.ListForUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject changes a project. Only the owner may update it.
func (s *ProjectService) UpdateProject(ctx context.Context, principal *entities.Principal, id string, req ports.UpdateProjectRequest) (*entities.Project, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, principal, id); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.Update(ctx, id, ports.ProjectPatch{
		Name:         req.Name,
		Description:  req.Description,
		RequiresAuth: req.RequiresAuth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.logger.Infow("Project updated successfully", "project_id", id)
	return project, nil
}

// DeleteProject removes a project. Boards and tasks below it are left in
// place and become unreachable through listings.
func (s *ProjectService) DeleteProject(ctx context.Context, principal *entities.Principal, id string) error {
	if err := requireUser(principal); err != nil {
		return err
	}
	if err := s.requireOwner(ctx, principal, id); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Infow("Project deleted successfully", "project_id", id)
	return nil
}

// CheckPermission resolves the principal's access to a project
func (s *ProjectService) CheckPermission(ctx context.Context, principal *entities.Principal, id string) entities.AccessResult {
	return s.permissions.CheckProjectPermission(ctx, id, principal)
}

func (s *ProjectService) requireOwner(ctx context.Context, principal *entities.Principal, id string) error {
	_, access, err := s.permissions.projectAccess(ctx, id, principal)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if !access.IsOwner {
		return entities.ErrPermissionDenied
	}
	return nil
}
