package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// BoardService handles board-related operations
type BoardService struct {
	boardRepo   ports.BoardRepository
	shareRepo   ports.ShareRepository
	permissions *PermissionService
	logger      *logger.Logger
}

// NewBoardService creates a new board service
func NewBoardService(boardRepo ports.BoardRepository, shareRepo ports.ShareRepository, permissions *PermissionService, logger *logger.Logger) *BoardService {
	return &BoardService{
		boardRepo:   boardRepo,
		shareRepo:   shareRepo,
		permissions: permissions,
		logger:      logger,
	}
}

// CreateBoard creates a board in a project the principal can write to
func (s *BoardService) CreateBoard(ctx context.Context, principal *entities.Principal, projectID string, req ports.CreateBoardRequest) (*entities.Board, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	_, access, err := s.permissions.projectAccess(ctx, projectID, principal)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if !access.CanWrite() {
		return nil, entities.ErrPermissionDenied
	}

	board := &entities.Board{
		ProjectID:   projectID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     principal.UserID,
	}
	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	s.logger.Infow("Board created successfully", "board_id", board.ID, "project_id", projectID)
	return board, nil
}

// GetBoard retrieves a board the principal can read
func (s *BoardService) GetBoard(ctx context.Context, principal *entities.Principal, id string) (*entities.Board, entities.AccessResult, error) {
	board, access, err := s.permissions.boardAccess(ctx, id, principal)
	if err != nil {
		return nil, access, fmt.Errorf("get board: %w", err)
	}
	if !access.CanRead() {
		return nil, access, denied(principal)
	}
	return board, access, nil
}

// ListBoards returns the boards of a project visible to principal: every
// board when the project grants access, otherwise only boards shared directly.
func (s *BoardService) ListBoards(ctx context.Context, principal *entities.Principal, projectID string) ([]*entities.Board, error) {
	_, parent, err := s.permissions.projectAccess(ctx, projectID, principal)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	boards, err := s.boardRepo.ListForProject(ctx, projectID, principal.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	shared, err := s.shareRepo.BoardSharesForUser(ctx, principal.ID())
	if err != nil {
		s.logger.Warnw("Board shares unavailable while listing boards", "project_id", projectID, "error", err)
		shared = nil
	}
	sharesByBoard := make(map[string][]entities.BoardShare, len(shared))
	for _, share := range shared {
		sharesByBoard[share.BoardID] = append(sharesByBoard[share.BoardID], *share)
	}

	inherited := func() entities.AccessResult { return parent }
	visible := make([]*entities.Board, 0, len(boards))
	for _, board := range boards {
		if entities.ResolveBoardAccess(principal, board, sharesByBoard[board.ID], inherited).CanRead() {
			visible = append(visible, board)
		}
	}
	return visible, nil
}

// UpdateBoard changes a board the principal can write to
func (s *BoardService) UpdateBoard(ctx context.Context, principal *entities.Principal, id string, req ports.UpdateBoardRequest) (*entities.Board, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	_, access, err := s.permissions.boardAccess(ctx, id, principal)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	if !access.CanWrite() {
		return nil, entities.ErrPermissionDenied
	}

	board, err := s.boardRepo.Update(ctx, id, ports.BoardPatch{Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	s.logger.Infow("Board updated successfully", "board_id", id)
	return board, nil
}

// DeleteBoard removes a board. Only the board owner may delete it; its tasks
// are left in place.
func (s *BoardService) DeleteBoard(ctx context.Context, principal *entities.Principal, id string) error {
	if err := requireUser(principal); err != nil {
		return err
	}

	_, access, err := s.permissions.boardAccess(ctx, id, principal)
	if err != nil {
		return fmt.Errorf("get board: %w", err)
	}
	if !access.IsOwner {
		return entities.ErrPermissionDenied
	}

	if err := s.boardRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	s.logger.Infow("Board deleted successfully", "board_id", id)
	return nil
}

// CheckPermission resolves the principal's access to a board
func (s *BoardService) CheckPermission(ctx context.Context, principal *entities.Principal, id string) entities.AccessResult {
	return s.permissions.CheckBoardPermission(ctx, id, principal)
}
