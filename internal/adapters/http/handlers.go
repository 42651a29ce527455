package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

const (
	principalKey = "principal"
	sessionKey   = "session"
	loggerKey    = "request_logger"
)

// SetRequestLogger stores a logger carrying the request's fields
func SetRequestLogger(c echo.Context, l *logger.Logger) {
	c.Set(loggerKey, l)
}

// RequestLogger returns the request-scoped logger, or fallback when none was set
func RequestLogger(c echo.Context, fallback *logger.Logger) *logger.Logger {
	if l, ok := c.Get(loggerKey).(*logger.Logger); ok {
		return l
	}
	return fallback
}

// SetPrincipal stores the authenticated caller on the request context
func SetPrincipal(c echo.Context, principal *entities.Principal, session string) {
	c.Set(principalKey, principal)
	c.Set(sessionKey, session)
}

// PrincipalFrom returns the caller of the request, or nil when anonymous
func PrincipalFrom(c echo.Context) *entities.Principal {
	principal, _ := c.Get(principalKey).(*entities.Principal)
	return principal
}

func sessionFrom(c echo.Context) string {
	session, _ := c.Get(sessionKey).(string)
	return session
}

// BearerToken extracts the token of an "Authorization: Bearer" header. ok is
// false when a header is present but malformed.
func BearerToken(c echo.Context) (token string, ok bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", true
	}
	token = strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", false
	}
	return token, true
}

// ToHTTPError maps domain and store errors onto HTTP statuses
func ToHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	switch {
	case errors.Is(err, entities.ErrAuthenticationRequired),
		errors.Is(err, entities.ErrInvalidCredentials),
		errors.Is(err, entities.ErrInvalidSession):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, entities.ErrPermissionDenied),
		errors.Is(err, entities.ErrReadOnlyBoard):
		status, message = http.StatusForbidden, rootMessage(err)
	case errors.Is(err, entities.ErrProjectNotFound),
		errors.Is(err, entities.ErrBoardNotFound),
		errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrShareNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		status, message = http.StatusNotFound, rootMessage(err)
	case errors.Is(err, entities.ErrInvalidInput),
		errors.Is(err, entities.ErrInvalidStatus),
		errors.Is(err, entities.ErrInvalidPermission):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, entities.ErrEmailTaken),
		errors.Is(err, entities.ErrRedundantShare),
		errors.Is(err, entities.ErrDragInProgress):
		status, message = http.StatusConflict, rootMessage(err)
	default:
		switch code := ports.StoreErrorCode(err); code {
		case http.StatusNotFound:
			status, message = http.StatusNotFound, "resource not found"
		case http.StatusBadRequest, http.StatusConflict:
			status, message = code, err.Error()
		case http.StatusUnauthorized:
			status, message = http.StatusForbidden, "store denied access"
		case http.StatusServiceUnavailable:
			status, message = http.StatusServiceUnavailable, "document store unavailable"
		}
	}

	return echo.NewHTTPError(status, message).SetInternal(err)
}

// rootMessage returns the message of the innermost sentinel, dropping the
// operation prefixes added while the error travelled up.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		entities.ErrPermissionDenied, entities.ErrReadOnlyBoard,
		entities.ErrProjectNotFound, entities.ErrBoardNotFound, entities.ErrTaskNotFound,
		entities.ErrShareNotFound, entities.ErrUserNotFound,
		entities.ErrEmailTaken, entities.ErrRedundantShare, entities.ErrDragInProgress,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// bindAndValidate decodes the request body into req and validates it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Signup godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.SignupRequest true "Account data"
// @Success 201 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req ports.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		RequestLogger(c, h.logger).Warnw("Signup failed", "error", err)
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, response)
}

// Login godoc
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		RequestLogger(c, h.logger).LogSecurityEvent("login_failed", "", c.RealIP(), map[string]interface{}{"error": err.Error()})
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// Logout handles user logout
func (h *AuthHandler) Logout(c echo.Context) error {
	principal := PrincipalFrom(c)
	if principal == nil {
		return ToHTTPError(entities.ErrAuthenticationRequired)
	}

	if err := h.authService.Logout(c.Request().Context(), sessionFrom(c)); err != nil {
		RequestLogger(c, h.logger).Errorw("Logout failed", "error", err)
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Logged out successfully"})
}

// Me returns the authenticated caller
func (h *AuthHandler) Me(c echo.Context) error {
	principal := PrincipalFrom(c)
	if principal == nil {
		return ToHTTPError(entities.ErrAuthenticationRequired)
	}
	return c.JSON(http.StatusOK, principal)
}
