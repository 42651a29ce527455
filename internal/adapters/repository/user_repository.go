package repository

import (
	"context"
	"fmt"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/ports"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	store ports.DocumentStore
}

// NewUserRepository creates a new user repository
func NewUserRepository(store ports.DocumentStore) ports.UserRepository {
	return &UserRepositoryImpl{store: store}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	if user.ID == "" {
		user.ID = docstore.NewID()
	}

	doc, err := r.store.Create(ctx, ports.CollectionUsers, user.ID, map[string]interface{}{
		fieldEmail:        normalizeEmail(user.Email),
		fieldName:         user.Name,
		fieldPasswordHash: user.PasswordHash,
	})
	if err != nil {
		return writeErr("create user", ports.CollectionUsers, err)
	}

	*user = *decodeUser(doc)
	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.User, error) {
	doc, err := r.store.Get(ctx, ports.CollectionUsers, id)
	if err != nil {
		return nil, notFound(entities.ErrUserNotFound, "get user by id", id, err)
	}
	return decodeUser(doc), nil
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	docs, err := r.store.List(ctx, ports.CollectionUsers, ports.Eq(fieldEmail, normalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, entities.ErrUserNotFound
	}
	return decodeUser(docs[0]), nil
}
