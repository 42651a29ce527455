package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/scrumban/core/docs"
	httpHandlers "github.com/scrumban/core/internal/adapters/http"
	"github.com/scrumban/core/internal/infrastructure/config"
	"github.com/scrumban/core/internal/infrastructure/container"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    *logger.Logger
	container *container.Container
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(app *container.Container) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = app.Config.Server.ReadTimeout
	e.Server.WriteTimeout = app.Config.Server.WriteTimeout
	e.Server.IdleTimeout = app.Config.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(app.Logger)

	server := &Server{
		echo:      e,
		config:    app.Config,
		logger:    app.Logger,
		container: app,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics before routes so every route is observed
	if app.Config.Metrics.Enabled {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// Handler exposes the echo instance, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			reqLogger := httpHandlers.RequestLogger(c, s.logger.WithRequestID(values.RequestID))
			reqLogger.LogHTTPRequest(
				values.Method,
				values.URI,
				values.UserAgent,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
				values.Error,
			)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, ports.ErrorResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, ports.ErrorResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Timeout middleware
	if timeout := s.config.Server.RequestTimeout; timeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      timeout,
			ErrorMessage: `{"message":"request timed out"}`,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	app := s.container

	authHandler := httpHandlers.NewAuthHandler(app.Auth, s.logger)
	projectHandler := httpHandlers.NewProjectHandler(app.Projects, s.logger)
	boardHandler := httpHandlers.NewBoardHandler(app.Boards, s.logger)
	taskHandler := httpHandlers.NewTaskHandler(app.Tasks, s.logger)
	shareHandler := httpHandlers.NewShareHandler(app.Shares, s.logger)

	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes; every route resolves the caller, anonymous included
	v1 := s.echo.Group("/api/v1", s.authenticate())

	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout, s.requireAuth())
	authGroup.GET("/me", authHandler.Me, s.requireAuth())

	projectGroup := v1.Group("/projects")
	projectGroup.GET("", projectHandler.ListProjects)
	projectGroup.POST("", projectHandler.CreateProject, s.requireAuth())
	projectGroup.GET("/:id", projectHandler.GetProject)
	projectGroup.PATCH("/:id", projectHandler.UpdateProject, s.requireAuth())
	projectGroup.DELETE("/:id", projectHandler.DeleteProject, s.requireAuth())
	projectGroup.GET("/:id/permission", projectHandler.CheckPermission)
	projectGroup.GET("/:id/boards", boardHandler.ListBoards)
	projectGroup.POST("/:id/boards", boardHandler.CreateBoard, s.requireAuth())
	projectGroup.GET("/:id/shares", shareHandler.ListProjectShares)
	projectGroup.POST("/:id/shares", shareHandler.InviteToProject, s.requireAuth())
	v1.DELETE("/project-shares/:id", shareHandler.RemoveProjectShare, s.requireAuth())

	boardGroup := v1.Group("/boards")
	boardGroup.GET("/:id", boardHandler.GetBoard)
	boardGroup.PATCH("/:id", boardHandler.UpdateBoard, s.requireAuth())
	boardGroup.DELETE("/:id", boardHandler.DeleteBoard, s.requireAuth())
	boardGroup.GET("/:id/permission", boardHandler.CheckPermission)
	boardGroup.GET("/:id/tasks", taskHandler.ListTasks)
	boardGroup.POST("/:id/tasks", taskHandler.CreateTask, s.requireAuth())
	boardGroup.POST("/:id/drag", taskHandler.MoveTask, s.requireAuth())
	boardGroup.GET("/:id/shares", shareHandler.ListBoardShares)
	boardGroup.POST("/:id/shares", shareHandler.InviteToBoard, s.requireAuth())
	v1.DELETE("/board-shares/:id", shareHandler.RemoveBoardShare, s.requireAuth())

	taskGroup := v1.Group("/tasks", s.requireAuth())
	taskGroup.PATCH("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := s.container.Registry

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = httpHandlers.ToHTTPError(err).Code
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())

			return err
		}
	})

	path := s.config.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	s.echo.GET(path, echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	backend := s.container.Backend
	if err := backend.Ping(c.Request().Context()); err != nil {
		status = "error"
		checks["document_store"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["document_store"] = map[string]interface{}{
			"status": "ok",
			"info":   backend.Info,
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.container.Backend.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "document_store_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		he := httpHandlers.ToHTTPError(err)

		if he.Code >= http.StatusInternalServerError {
			httpHandlers.RequestLogger(c, logger).WithError(err).Errorw("Internal server error", "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(he.Code)
			} else {
				err = c.JSON(he.Code, ports.ErrorResponse{Message: fmt.Sprint(he.Message)})
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
