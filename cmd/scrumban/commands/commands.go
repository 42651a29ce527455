package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/scrumban/core/internal/infrastructure/config"
	"github.com/scrumban/core/internal/infrastructure/container"
	"github.com/scrumban/core/internal/infrastructure/database"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/infrastructure/server"
	"github.com/scrumban/core/internal/ports"
)

// Set through -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Scrumban API server",
		Long:  "Start the Scrumban API server with all configured routes and middleware",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the postgres document store tables (up, down, version)",
	}
	migrateCmd.PersistentFlags().String("source", "file://migrations", "Migration source URL")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			source, _ := cmd.Flags().GetString("source")
			runMigration(source, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			source, _ := cmd.Flags().GetString("source")
			runMigration(source, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			source, _ := cmd.Flags().GetString("source")
			showMigrationVersion(source)
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create accounts in the configured identity store",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")

			if email == "" || password == "" {
				log.Fatal("Email and password are required")
			}

			createUser(email, password, name)
		},
	}

	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")
	createUserCmd.Flags().String("name", "", "Display name")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Scrumban version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Scrumban %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

// bootstrap loads configuration and wires the application
func bootstrap(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app, err := container.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Close()
		return nil, err
	}
	return app, nil
}

func runServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	appLogger := app.Logger
	defer appLogger.Close()
	defer app.Close()

	srv, err := server.New(app)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting Scrumban API server",
		"port", app.Config.Server.Port,
		"environment", app.Config.App.Environment,
		"store", app.Config.Store.Backend,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("Server failed", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Errorw("Graceful shutdown failed", "error", err)
		}
	}
}

func newMigrator(source string) (*migrate.Migrate, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return m, func() { db.Close() }, nil
}

func runMigration(source, direction string) {
	m, closeFn, err := newMigrator(source)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Printf("Migration %s completed successfully\n", direction)
}

func showMigrationVersion(source string) {
	m, closeFn, err := newMigrator(source)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return
	}
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func createUser(email, password, name string) {
	ctx := context.Background()
	app, err := bootstrap(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Logger.Close()
	defer app.Close()

	if name == "" {
		name = email
	}

	resp, err := app.Auth.Signup(ctx, ports.SignupRequest{Email: email, Password: password, Name: name})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", resp.User.UserID)
	fmt.Printf("  Email: %s\n", resp.User.Email)
	fmt.Printf("  Name: %s\n", resp.User.DisplayName)
}
