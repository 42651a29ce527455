package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

var validate = validator.New()

func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidInput, err)
	}
	return nil
}

// PermissionService resolves project and board access for a principal
type PermissionService struct {
	projectRepo ports.ProjectRepository
	boardRepo   ports.BoardRepository
	shareRepo   ports.ShareRepository
	logger      *logger.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(projectRepo ports.ProjectRepository, boardRepo ports.BoardRepository, shareRepo ports.ShareRepository, logger *logger.Logger) *PermissionService {
	return &PermissionService{
		projectRepo: projectRepo,
		boardRepo:   boardRepo,
		shareRepo:   shareRepo,
		logger:      logger.WithComponent("permissions"),
	}
}

// CheckProjectPermission resolves the principal's access to a project.
// Any failure while resolving yields no access.
func (s *PermissionService) CheckProjectPermission(ctx context.Context, projectID string, principal *entities.Principal) entities.AccessResult {
	_, access, err := s.projectAccess(ctx, projectID, principal)
	if err != nil {
		s.logger.Warnw("Project permission check failed closed", "project_id", projectID, "user_id", principal.ID(), "error", err)
		return entities.NoAccess()
	}
	return access
}

// CheckBoardPermission resolves the principal's access to a board, falling
// back to the parent project when no board-level grant exists.
func (s *PermissionService) CheckBoardPermission(ctx context.Context, boardID string, principal *entities.Principal) entities.AccessResult {
	_, access, err := s.boardAccess(ctx, boardID, principal)
	if err != nil {
		s.logger.Warnw("Board permission check failed closed", "board_id", boardID, "user_id", principal.ID(), "error", err)
		return entities.NoAccess()
	}
	return access
}

// projectAccess loads the project and resolves access to it. Load failures
// are returned so callers can tell a missing project from a denied one.
func (s *PermissionService) projectAccess(ctx context.Context, projectID string, principal *entities.Principal) (*entities.Project, entities.AccessResult, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, entities.NoAccess(), err
	}

	var shares []entities.ProjectShare
	if userID := principal.ID(); userID != "" && !project.IsOwnedBy(userID) {
		found, err := s.shareRepo.ProjectGrants(ctx, projectID, userID)
		if err != nil {
			return project, entities.NoAccess(), fmt.Errorf("resolve project shares: %w", err)
		}
		for _, share := range found {
			shares = append(shares, *share)
		}
	}

	return project, entities.ResolveProjectAccess(principal, project, shares), nil
}

func (s *PermissionService) boardAccess(ctx context.Context, boardID string, principal *entities.Principal) (*entities.Board, entities.AccessResult, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, entities.NoAccess(), err
	}

	var shares []entities.BoardShare
	if userID := principal.ID(); userID != "" && !board.IsOwnedBy(userID) {
		found, err := s.shareRepo.BoardGrants(ctx, boardID, userID)
		if err != nil {
			return board, entities.NoAccess(), fmt.Errorf("resolve board shares: %w", err)
		}
		for _, share := range found {
			shares = append(shares, *share)
		}
	}

	return board, s.resolveBoard(ctx, principal, board, shares), nil
}

// resolveBoard applies the board rules to already loaded shares.
func (s *PermissionService) resolveBoard(ctx context.Context, principal *entities.Principal, board *entities.Board, shares []entities.BoardShare) entities.AccessResult {
	return entities.ResolveBoardAccess(principal, board, shares, func() entities.AccessResult {
		_, parent, err := s.projectAccess(ctx, board.ProjectID, principal)
		if err != nil {
			s.logger.Warnw("Inherited project access unavailable", "board_id", board.ID, "project_id", board.ProjectID, "error", err)
			return entities.NoAccess()
		}
		return parent
	})
}

// denied picks the error for a refused action: anonymous callers are asked to
// authenticate, signed in callers are refused.
func denied(principal *entities.Principal) error {
	if principal.ID() == "" {
		return entities.ErrAuthenticationRequired
	}
	return entities.ErrPermissionDenied
}

func requireUser(principal *entities.Principal) error {
	if principal.ID() == "" {
		return entities.ErrAuthenticationRequired
	}
	return nil
}
