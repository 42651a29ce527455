package docstore

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scrumban/core/internal/infrastructure/config"
	"github.com/scrumban/core/internal/infrastructure/database"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// Backend is an opened document store together with its lifecycle hooks.
type Backend struct {
	Store ports.DocumentStore
	Ping  func(ctx context.Context) error
	Close func() error
	Info  map[string]interface{}
}

type schemaStore interface {
	ports.DocumentStore
	EnsureSchema(ctx context.Context, schema Schema) error
	Ping(ctx context.Context) error
}

// Open connects the backend selected by cfg.Store.Backend, bootstraps the
// default schema when configured to, and wraps the store with metrics and
// the circuit breaker. reg may be nil to skip metrics.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*Backend, error) {
	var (
		store   schemaStore
		closeFn = func() error { return nil }
		info    = map[string]interface{}{
			"backend":     cfg.Store.Backend,
			"project_id":  cfg.Store.ProjectID,
			"database_id": cfg.Store.DatabaseID,
		}
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = NewMemoryStore(nil)
	case config.BackendPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		store = NewSQLStore(db, cfg.Store.DatabaseID)
		closeFn = db.Close
		info["pool"] = db.GetConnectionInfo()
	case config.BackendSQLite:
		db, err := database.NewSQLite(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		store = NewSQLStore(db, cfg.Store.DatabaseID)
		closeFn = db.Close
	case config.BackendMongo:
		client, err := database.NewMongoClient(ctx, cfg.Store.Endpoint, cfg.Store.ProjectID, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store = NewMongoStore(client, cfg.Store.DatabaseID)
		closeFn = func() error { return client.Disconnect(context.Background()) }
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.Bootstrap {
		if err := store.EnsureSchema(ctx, DefaultSchema()); err != nil {
			closeFn()
			return nil, fmt.Errorf("failed to bootstrap document store: %w", err)
		}
		log.Infow("Document store schema ensured", "backend", cfg.Store.Backend, "database_id", cfg.Store.DatabaseID)
	}

	var wrapped ports.DocumentStore = store
	if reg != nil {
		wrapped = Instrument(wrapped, NewMetrics(reg), log)
	}
	if cfg.Breaker.Enabled {
		wrapped = WithBreaker(wrapped, BreakerSettings{
			Name:             "docstore-" + cfg.Store.Backend,
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}, log)
	}

	return &Backend{Store: wrapped, Ping: store.Ping, Close: closeFn, Info: info}, nil
}
