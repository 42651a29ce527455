package repository

import (
	"context"
	"fmt"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// ProjectRepositoryImpl implements the ProjectRepository interface
type ProjectRepositoryImpl struct {
	store  ports.DocumentStore
	logger *logger.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(store ports.DocumentStore, logger *logger.Logger) ports.ProjectRepository {
	return &ProjectRepositoryImpl{store: store, logger: logger.WithComponent("project_repository")}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *entities.Project) error {
	if project.ID == "" {
		project.ID = docstore.NewID()
	}

	doc, err := r.store.Create(ctx, ports.CollectionProjects, project.ID, projectFields(project))
	if err != nil {
		return writeErr("create project", ports.CollectionProjects, err)
	}

	*project = *decodeProject(doc)
	return nil
}

func (r *ProjectRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Project, error) {
	doc, err := r.store.Get(ctx, ports.CollectionProjects, id)
	if err != nil {
		return nil, notFound(entities.ErrProjectNotFound, "get project", id, err)
	}
	return decodeProject(doc), nil
}

func (r *ProjectRepositoryImpl) Update(ctx context.Context, id string, patch ports.ProjectPatch) (*entities.Project, error) {
	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields[fieldName] = *patch.Name
	}
	if patch.Description != nil {
		fields[fieldDescription] = *patch.Description
	}
	if patch.RequiresAuth != nil {
		fields[fieldRequiresAuth] = *patch.RequiresAuth
	}

	doc, err := r.store.Update(ctx, ports.CollectionProjects, id, fields)
	if err != nil {
		return nil, notFound(entities.ErrProjectNotFound, "update project", id, err)
	}
	return decodeProject(doc), nil
}

// Delete removes only the project document. Boards, tasks and shares that
// point at it are left in place and become unreachable through listings.
func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ports.CollectionProjects, id); err != nil {
		return notFound(entities.ErrProjectNotFound, "delete project", id, err)
	}
	return nil
}

// ListForUser returns the projects owned by userID together with the projects
// shared with it, deduplicated by id. Owned projects come first.
func (r *ProjectRepositoryImpl) ListForUser(ctx context.Context, userID string) ([]*entities.Project, error) {
	if userID == "" {
		return []*entities.Project{}, nil
	}

	projects := []*entities.Project{}
	seen := map[string]bool{}
	// Older documents only carry the legacy owner field.
	for _, field := range []string{fieldOwnerID, fieldLegacyUserID} {
		owned, err := r.store.List(ctx, ports.CollectionProjects, ports.Eq(field, userID))
		if err != nil {
			if ports.IsNotFound(err) {
				r.logger.Warnw("Projects collection not found, returning no projects", "error", err)
				return []*entities.Project{}, nil
			}
			return nil, fmt.Errorf("list owned projects: %w", err)
		}
		for _, doc := range owned {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			projects = append(projects, decodeProject(doc))
		}
	}

	shares, err := r.store.List(ctx, ports.CollectionProjectShares, ports.Eq(fieldShareUserID, userID))
	if err != nil {
		r.logger.Warnw("Could not fetch shared projects", "user_id", userID, "error", err)
		return projects, nil
	}

	for _, share := range shares {
		projectID := getString(share.Fields, fieldShareProject)
		if projectID == "" || seen[projectID] {
			continue
		}
		doc, err := r.store.Get(ctx, ports.CollectionProjects, projectID)
		if err != nil {
			// dangling share
			continue
		}
		seen[projectID] = true
		projects = append(projects, decodeProject(doc))
	}

	return projects, nil
}
