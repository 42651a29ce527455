package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// ShareService handles project and board invitations
type ShareService struct {
	shareRepo   ports.ShareRepository
	userRepo    ports.UserRepository
	permissions *PermissionService
	logger      *logger.Logger
}

// NewShareService creates a new share service. userRepo may be nil when the
// identity provider keeps accounts elsewhere; invitations are then bound only
// when the invitee next signs in.
func NewShareService(shareRepo ports.ShareRepository, userRepo ports.UserRepository, permissions *PermissionService, logger *logger.Logger) *ShareService {
	return &ShareService{
		shareRepo:   shareRepo,
		userRepo:    userRepo,
		permissions: permissions,
		logger:      logger,
	}
}

// InviteToProject shares a project with the owner of email
func (s *ShareService) InviteToProject(ctx context.Context, principal *entities.Principal, projectID string, req ports.InviteRequest) (*entities.ProjectShare, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	project, access, err := s.permissions.projectAccess(ctx, projectID, principal)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if !access.IsOwner {
		return nil, entities.ErrPermissionDenied
	}

	invitee, err := s.lookupInvitee(ctx, principal, req.Email)
	if err != nil {
		return nil, err
	}
	if invitee != nil && project.IsOwnedBy(invitee.ID) {
		return nil, entities.ErrRedundantShare
	}

	share, err := s.shareRepo.InviteToProject(ctx, projectID, req.Email, req.Permission, principal.UserID, principal.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to invite to project: %w", err)
	}

	if invitee != nil {
		if err := s.shareRepo.ClaimProjectShare(ctx, share.ID, invitee.ID, invitee.Name); err != nil {
			s.logger.Warnw("Invite left pending", "share_id", share.ID, "error", err)
		} else {
			share.UserID, share.UserName = invitee.ID, invitee.Name
		}
	}
	return share, nil
}

// InviteToBoard shares a board with the owner of email
func (s *ShareService) InviteToBoard(ctx context.Context, principal *entities.Principal, boardID string, req ports.InviteRequest) (*entities.BoardShare, error) {
	if err := requireUser(principal); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	board, access, err := s.permissions.boardAccess(ctx, boardID, principal)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	if !access.IsOwner {
		return nil, entities.ErrPermissionDenied
	}

	invitee, err := s.lookupInvitee(ctx, principal, req.Email)
	if err != nil {
		return nil, err
	}
	if invitee != nil && board.IsOwnedBy(invitee.ID) {
		return nil, entities.ErrRedundantShare
	}

	share, err := s.shareRepo.InviteToBoard(ctx, boardID, req.Email, req.Permission, principal.UserID, principal.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to invite to board: %w", err)
	}

	if invitee != nil {
		if err := s.shareRepo.ClaimBoardShare(ctx, share.ID, invitee.ID, invitee.Name); err != nil {
			s.logger.Warnw("Invite left pending", "share_id", share.ID, "error", err)
		} else {
			share.UserID, share.UserName = invitee.ID, invitee.Name
		}
	}
	return share, nil
}

// lookupInvitee returns the local account behind email, or nil when there is
// none. Inviting oneself is always redundant since only owners invite.
func (s *ShareService) lookupInvitee(ctx context.Context, principal *entities.Principal, email string) (*entities.User, error) {
	if strings.EqualFold(strings.TrimSpace(email), principal.Email) {
		return nil, entities.ErrRedundantShare
	}
	if s.userRepo == nil {
		return nil, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, nil
		}
		s.logger.Warnw("Invitee lookup failed, leaving invite pending", "error", err)
		return nil, nil
	}
	return user, nil
}

// ListProjectShares lists the shares of a project. The owner sees every
// share, other readers only their own.
func (s *ShareService) ListProjectShares(ctx context.Context, principal *entities.Principal, projectID string) ([]*entities.ProjectShare, error) {
	_, access, err := s.permissions.projectAccess(ctx, projectID, principal)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if !access.CanRead() {
		return nil, denied(principal)
	}
	if !access.IsOwner && principal.ID() == "" {
		return []*entities.ProjectShare{}, nil
	}

	userID := ""
	if !access.IsOwner {
		userID = principal.UserID
	}
	shares, err := s.shareRepo.ProjectShares(ctx, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project shares: %w", err)
	}
	return shares, nil
}

// ListBoardShares lists the shares of a board. The owner sees every share,
// other readers only their own.
func (s *ShareService) ListBoardShares(ctx context.Context, principal *entities.Principal, boardID string) ([]*entities.BoardShare, error) {
	_, access, err := s.permissions.boardAccess(ctx, boardID, principal)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	if !access.CanRead() {
		return nil, denied(principal)
	}
	if !access.IsOwner && principal.ID() == "" {
		return []*entities.BoardShare{}, nil
	}

	userID := ""
	if !access.IsOwner {
		userID = principal.UserID
	}
	shares, err := s.shareRepo.BoardShares(ctx, boardID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board shares: %w", err)
	}
	return shares, nil
}

// RemoveProjectShare deletes a project share. Only the project owner may.
func (s *ShareService) RemoveProjectShare(ctx context.Context, principal *entities.Principal, shareID string) error {
	if err := requireUser(principal); err != nil {
		return err
	}

	share, err := s.shareRepo.GetProjectShare(ctx, shareID)
	if err != nil {
		return fmt.Errorf("get project share: %w", err)
	}
	_, access, err := s.permissions.projectAccess(ctx, share.ProjectID, principal)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if !access.IsOwner {
		return entities.ErrPermissionDenied
	}

	if err := s.shareRepo.RemoveProjectShare(ctx, shareID); err != nil {
		return fmt.Errorf("failed to remove project share: %w", err)
	}
	s.logger.LogUserAction(principal.UserID, "remove_project_share", map[string]interface{}{"share_id": shareID})
	return nil
}

// RemoveBoardShare deletes a board share. Only the board owner may.
func (s *ShareService) RemoveBoardShare(ctx context.Context, principal *entities.Principal, shareID string) error {
	if err := requireUser(principal); err != nil {
		return err
	}

	share, err := s.shareRepo.GetBoardShare(ctx, shareID)
	if err != nil {
		return fmt.Errorf("get board share: %w", err)
	}
	_, access, err := s.permissions.boardAccess(ctx, share.BoardID, principal)
	if err != nil {
		return fmt.Errorf("get board: %w", err)
	}
	if !access.IsOwner {
		return entities.ErrPermissionDenied
	}

	if err := s.shareRepo.RemoveBoardShare(ctx, shareID); err != nil {
		return fmt.Errorf("failed to remove board share: %w", err)
	}
	s.logger.LogUserAction(principal.UserID, "remove_board_share", map[string]interface{}{"share_id": shareID})
	return nil
}

// ClaimInvites binds every pending invitation addressed to the principal's
// email. It returns the number of shares claimed.
func (s *ShareService) ClaimInvites(ctx context.Context, principal *entities.Principal) (int, error) {
	if principal.ID() == "" || principal.Email == "" {
		return 0, nil
	}

	projectShares, boardShares, err := s.shareRepo.PendingInvites(ctx, principal.Email)
	if err != nil {
		return 0, fmt.Errorf("list pending invites: %w", err)
	}

	claimed := 0
	for _, share := range projectShares {
		if err := s.shareRepo.ClaimProjectShare(ctx, share.ID, principal.UserID, principal.DisplayName); err != nil {
			return claimed, fmt.Errorf("claim project share %s: %w", share.ID, err)
		}
		claimed++
	}
	for _, share := range boardShares {
		if err := s.shareRepo.ClaimBoardShare(ctx, share.ID, principal.UserID, principal.DisplayName); err != nil {
			return claimed, fmt.Errorf("claim board share %s: %w", share.ID, err)
		}
		claimed++
	}

	if claimed > 0 {
		s.logger.Infow("Pending invites claimed", "user_id", principal.UserID, "count", claimed)
	}
	return claimed, nil
}
