package repository

import (
	"context"
	"fmt"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// BoardRepositoryImpl implements the BoardRepository interface
type BoardRepositoryImpl struct {
	store  ports.DocumentStore
	logger *logger.Logger
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(store ports.DocumentStore, logger *logger.Logger) ports.BoardRepository {
	return &BoardRepositoryImpl{store: store, logger: logger.WithComponent("board_repository")}
}

func (r *BoardRepositoryImpl) Create(ctx context.Context, board *entities.Board) error {
	if board.ID == "" {
		board.ID = docstore.NewID()
	}

	doc, err := r.store.Create(ctx, ports.CollectionBoards, board.ID, boardFields(board))
	if err != nil {
		return writeErr("create board", ports.CollectionBoards, err)
	}

	*board = *decodeBoard(doc)
	return nil
}

func (r *BoardRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Board, error) {
	doc, err := r.store.Get(ctx, ports.CollectionBoards, id)
	if err != nil {
		return nil, notFound(entities.ErrBoardNotFound, "get board", id, err)
	}
	return decodeBoard(doc), nil
}

// Update changes name and description. The parent project never changes.
func (r *BoardRepositoryImpl) Update(ctx context.Context, id string, patch ports.BoardPatch) (*entities.Board, error) {
	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields[fieldName] = *patch.Name
	}
	if patch.Description != nil {
		fields[fieldDescription] = *patch.Description
	}

	doc, err := r.store.Update(ctx, ports.CollectionBoards, id, fields)
	if err != nil {
		return nil, notFound(entities.ErrBoardNotFound, "update board", id, err)
	}
	return decodeBoard(doc), nil
}

func (r *BoardRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ports.CollectionBoards, id); err != nil {
		return notFound(entities.ErrBoardNotFound, "delete board", id, err)
	}
	return nil
}

// ListForProject returns the boards of projectID plus the boards of that
// project shared with userID, deduplicated by id.
func (r *BoardRepositoryImpl) ListForProject(ctx context.Context, projectID, userID string) ([]*entities.Board, error) {
	docs, err := r.store.List(ctx, ports.CollectionBoards, ports.Eq(fieldBoardProject, projectID))
	if err != nil {
		if ports.IsNotFound(err) {
			r.logger.Warnw("Boards collection not found, returning no boards", "error", err)
			return []*entities.Board{}, nil
		}
		return nil, fmt.Errorf("list boards of project %s: %w", projectID, err)
	}

	boards := make([]*entities.Board, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		boards = append(boards, decodeBoard(doc))
	}

	if userID == "" {
		return boards, nil
	}

	shares, err := r.store.List(ctx, ports.CollectionBoardShares, ports.Eq(fieldShareUserID, userID))
	if err != nil {
		r.logger.Warnw("Could not fetch shared boards", "user_id", userID, "error", err)
		return boards, nil
	}

	for _, share := range shares {
		boardID := getString(share.Fields, fieldShareBoard)
		if boardID == "" || seen[boardID] {
			continue
		}
		doc, err := r.store.Get(ctx, ports.CollectionBoards, boardID)
		if err != nil {
			continue
		}
		board := decodeBoard(doc)
		if board.ProjectID != projectID {
			continue
		}
		seen[boardID] = true
		boards = append(boards, board)
	}

	return boards, nil
}
