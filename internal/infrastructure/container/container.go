// Package container wires the document store, repositories, identity
// provider and services into one object shared by the server and the CLI.
package container

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/adapters/identity"
	"github.com/scrumban/core/internal/adapters/repository"
	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/infrastructure/config"
	"github.com/scrumban/core/internal/infrastructure/database"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// Container holds the wired application
type Container struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry
	Backend  *docstore.Backend

	Provider    ports.IdentityProvider
	Permissions *services.PermissionService
	Coordinator *services.TaskStateCoordinator
	Auth        *services.AuthService
	Projects    *services.ProjectService
	Boards      *services.BoardService
	Tasks       *services.TaskService
	Shares      *services.ShareService

	closers []func() error
}

// New opens the configured backends and builds every service
func New(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   appLogger,
		Registry: prometheus.NewRegistry(),
	}

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = c.Registry
	}

	backend, err := docstore.Open(ctx, cfg, appLogger, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	c.Backend = backend
	c.closers = append(c.closers, backend.Close)

	var blacklist ports.TokenBlacklist = identity.NewMemoryBlacklist()
	if cfg.Redis.Enabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		blacklist = identity.NewRedisBlacklist(client)
		appLogger.Infow("Session blacklist backed by redis", "addr", cfg.Redis.GetAddr())
	}

	store := backend.Store
	projectRepo := repository.NewProjectRepository(store, appLogger)
	boardRepo := repository.NewBoardRepository(store, appLogger)
	taskRepo := repository.NewTaskRepository(store, appLogger)
	shareRepo := repository.NewShareRepository(store, appLogger)
	userRepo := repository.NewUserRepository(store)

	c.Provider = identity.NewLocalProvider(userRepo, blacklist, cfg.JWT, cfg.Security.BcryptCost, appLogger)
	c.Permissions = services.NewPermissionService(projectRepo, boardRepo, shareRepo, appLogger)
	c.Coordinator = services.NewTaskStateCoordinator(taskRepo, c.Permissions, appLogger)
	c.Shares = services.NewShareService(shareRepo, userRepo, c.Permissions, appLogger)
	c.Auth = services.NewAuthService(c.Provider, c.Shares, appLogger)
	c.Projects = services.NewProjectService(projectRepo, c.Permissions, appLogger)
	c.Boards = services.NewBoardService(boardRepo, shareRepo, c.Permissions, appLogger)
	c.Tasks = services.NewTaskService(taskRepo, c.Permissions, c.Coordinator, appLogger)

	return c, nil
}

// NewIdentityContext builds the process-wide identity context of a client
func (c *Container) NewIdentityContext(session string) *services.IdentityContext {
	return services.NewIdentityContext(c.Provider, c.Shares, session, c.Logger)
}

// Close releases the backends in reverse order of opening
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
