package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// ShareRepositoryImpl implements the ShareRepository interface over the
// projectShares and boardShares collections.
type ShareRepositoryImpl struct {
	store  ports.DocumentStore
	logger *logger.Logger
}

// NewShareRepository creates a new share repository
func NewShareRepository(store ports.DocumentStore, logger *logger.Logger) ports.ShareRepository {
	return &ShareRepositoryImpl{store: store, logger: logger.WithComponent("share_repository")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InviteToProject records an invitation by email. The invitee's user id is
// filled in once they sign in; until then the share grants nothing.
func (r *ShareRepositoryImpl) InviteToProject(ctx context.Context, projectID, email string, permission entities.Permission, inviterID, inviterName string) (*entities.ProjectShare, error) {
	if !permission.IsValid() {
		return nil, entities.ErrInvalidPermission
	}
	doc, err := r.store.Create(ctx, ports.CollectionProjectShares, docstore.NewID(), map[string]interface{}{
		fieldShareProject:   projectID,
		fieldShareUserEmail: normalizeEmail(email),
		fieldPermission:     string(permission),
	})
	if err != nil {
		return nil, writeErr("invite to project", ports.CollectionProjectShares, err)
	}

	r.logger.LogUserAction(inviterID, "invite_to_project", map[string]interface{}{
		"project_id":   projectID,
		"inviter_name": inviterName,
		"permission":   permission,
	})
	return decodeProjectShare(doc), nil
}

// InviteToBoard records a board invitation by email.
func (r *ShareRepositoryImpl) InviteToBoard(ctx context.Context, boardID, email string, permission entities.Permission, inviterID, inviterName string) (*entities.BoardShare, error) {
	if !permission.IsValid() {
		return nil, entities.ErrInvalidPermission
	}
	doc, err := r.store.Create(ctx, ports.CollectionBoardShares, docstore.NewID(), map[string]interface{}{
		fieldShareBoard:     boardID,
		fieldShareUserEmail: normalizeEmail(email),
		fieldPermission:     string(permission),
	})
	if err != nil {
		return nil, writeErr("invite to board", ports.CollectionBoardShares, err)
	}

	r.logger.LogUserAction(inviterID, "invite_to_board", map[string]interface{}{
		"board_id":     boardID,
		"inviter_name": inviterName,
		"permission":   permission,
	})
	return decodeBoardShare(doc), nil
}

func (r *ShareRepositoryImpl) GetProjectShare(ctx context.Context, id string) (*entities.ProjectShare, error) {
	doc, err := r.store.Get(ctx, ports.CollectionProjectShares, id)
	if err != nil {
		return nil, notFound(entities.ErrShareNotFound, "get project share", id, err)
	}
	return decodeProjectShare(doc), nil
}

func (r *ShareRepositoryImpl) GetBoardShare(ctx context.Context, id string) (*entities.BoardShare, error) {
	doc, err := r.store.Get(ctx, ports.CollectionBoardShares, id)
	if err != nil {
		return nil, notFound(entities.ErrShareNotFound, "get board share", id, err)
	}
	return decodeBoardShare(doc), nil
}

// emptyOnDenied turns a missing collection or an unauthorized read into an
// empty listing.
func (r *ShareRepositoryImpl) emptyOnDenied(collection string, err error) bool {
	if ports.IsNotFound(err) || ports.IsUnauthorized(err) {
		r.logger.Warnw("Share listing unavailable, returning no shares", "collection", collection, "error", err)
		return true
	}
	return false
}

// ProjectShares lists the shares of projectID, narrowed to userID when set.
// A missing collection or an unauthorized read lists nothing.
func (r *ShareRepositoryImpl) ProjectShares(ctx context.Context, projectID, userID string) ([]*entities.ProjectShare, error) {
	shares, err := r.ProjectGrants(ctx, projectID, userID)
	if err != nil && r.emptyOnDenied(ports.CollectionProjectShares, err) {
		return []*entities.ProjectShare{}, nil
	}
	return shares, err
}

// ProjectGrants is ProjectShares without the empty fallback: every store
// error is returned, so access checks can fail closed.
func (r *ShareRepositoryImpl) ProjectGrants(ctx context.Context, projectID, userID string) ([]*entities.ProjectShare, error) {
	filters := []ports.Filter{ports.Eq(fieldShareProject, projectID)}
	if userID != "" {
		filters = append(filters, ports.Eq(fieldShareUserID, userID))
	}
	docs, err := r.store.List(ctx, ports.CollectionProjectShares, filters...)
	if err != nil {
		return nil, fmt.Errorf("list project shares: %w", err)
	}
	return decodeProjectShares(docs), nil
}

// BoardShares lists the shares of boardID, narrowed to userID when set.
func (r *ShareRepositoryImpl) BoardShares(ctx context.Context, boardID, userID string) ([]*entities.BoardShare, error) {
	shares, err := r.BoardGrants(ctx, boardID, userID)
	if err != nil && r.emptyOnDenied(ports.CollectionBoardShares, err) {
		return []*entities.BoardShare{}, nil
	}
	return shares, err
}

func (r *ShareRepositoryImpl) BoardGrants(ctx context.Context, boardID, userID string) ([]*entities.BoardShare, error) {
	filters := []ports.Filter{ports.Eq(fieldShareBoard, boardID)}
	if userID != "" {
		filters = append(filters, ports.Eq(fieldShareUserID, userID))
	}
	docs, err := r.store.List(ctx, ports.CollectionBoardShares, filters...)
	if err != nil {
		return nil, fmt.Errorf("list board shares: %w", err)
	}
	return decodeBoardShares(docs), nil
}

func (r *ShareRepositoryImpl) ProjectSharesForUser(ctx context.Context, userID string) ([]*entities.ProjectShare, error) {
	if userID == "" {
		return []*entities.ProjectShare{}, nil
	}
	docs, err := r.store.List(ctx, ports.CollectionProjectShares, ports.Eq(fieldShareUserID, userID))
	if err != nil {
		if r.emptyOnDenied(ports.CollectionProjectShares, err) {
			return []*entities.ProjectShare{}, nil
		}
		return nil, fmt.Errorf("list project shares for user: %w", err)
	}
	return decodeProjectShares(docs), nil
}

func (r *ShareRepositoryImpl) BoardSharesForUser(ctx context.Context, userID string) ([]*entities.BoardShare, error) {
	if userID == "" {
		return []*entities.BoardShare{}, nil
	}
	docs, err := r.store.List(ctx, ports.CollectionBoardShares, ports.Eq(fieldShareUserID, userID))
	if err != nil {
		if r.emptyOnDenied(ports.CollectionBoardShares, err) {
			return []*entities.BoardShare{}, nil
		}
		return nil, fmt.Errorf("list board shares for user: %w", err)
	}
	return decodeBoardShares(docs), nil
}

// PendingInvites returns the shares addressed to email that have no user id yet.
func (r *ShareRepositoryImpl) PendingInvites(ctx context.Context, email string) ([]*entities.ProjectShare, []*entities.BoardShare, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, nil
	}

	var projectShares []*entities.ProjectShare
	docs, err := r.store.List(ctx, ports.CollectionProjectShares, ports.Eq(fieldShareUserEmail, email))
	if err != nil && !r.emptyOnDenied(ports.CollectionProjectShares, err) {
		return nil, nil, fmt.Errorf("list pending project invites: %w", err)
	}
	for _, s := range decodeProjectShares(docs) {
		if s.UserID == "" {
			projectShares = append(projectShares, s)
		}
	}

	var boardShares []*entities.BoardShare
	docs, err = r.store.List(ctx, ports.CollectionBoardShares, ports.Eq(fieldShareUserEmail, email))
	if err != nil && !r.emptyOnDenied(ports.CollectionBoardShares, err) {
		return nil, nil, fmt.Errorf("list pending board invites: %w", err)
	}
	for _, s := range decodeBoardShares(docs) {
		if s.UserID == "" {
			boardShares = append(boardShares, s)
		}
	}

	return projectShares, boardShares, nil
}

// ClaimProjectShare binds a pending project invitation to a user.
func (r *ShareRepositoryImpl) ClaimProjectShare(ctx context.Context, id, userID, userName string) error {
	_, err := r.store.Update(ctx, ports.CollectionProjectShares, id, claimFields(userID, userName))
	if err != nil {
		return notFound(entities.ErrShareNotFound, "claim project share", id, err)
	}
	return nil
}

// ClaimBoardShare binds a pending board invitation to a user.
func (r *ShareRepositoryImpl) ClaimBoardShare(ctx context.Context, id, userID, userName string) error {
	_, err := r.store.Update(ctx, ports.CollectionBoardShares, id, claimFields(userID, userName))
	if err != nil {
		return notFound(entities.ErrShareNotFound, "claim board share", id, err)
	}
	return nil
}

func (r *ShareRepositoryImpl) RemoveProjectShare(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ports.CollectionProjectShares, id); err != nil {
		return notFound(entities.ErrShareNotFound, "remove project share", id, err)
	}
	return nil
}

func (r *ShareRepositoryImpl) RemoveBoardShare(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ports.CollectionBoardShares, id); err != nil {
		return notFound(entities.ErrShareNotFound, "remove board share", id, err)
	}
	return nil
}

func claimFields(userID, userName string) map[string]interface{} {
	fields := map[string]interface{}{fieldShareUserID: userID}
	if userName != "" {
		fields[fieldShareUserName] = userName
	}
	return fields
}

func decodeProjectShares(docs []*ports.Document) []*entities.ProjectShare {
	out := make([]*entities.ProjectShare, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeProjectShare(doc))
	}
	return out
}

func decodeBoardShares(docs []*ports.Document) []*entities.BoardShare {
	out := make([]*entities.BoardShare, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeBoardShare(doc))
	}
	return out
}
