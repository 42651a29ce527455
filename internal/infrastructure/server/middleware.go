package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/scrumban/core/internal/adapters/http"
	"github.com/scrumban/core/internal/domain/entities"
)

// authenticate resolves the bearer session, if any, into the request
// principal. Requests without a header continue anonymously.
func (s *Server) authenticate() echo.MiddlewareFunc {
	authService := s.container.Auth

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLogger := s.logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID))
			httpHandlers.SetRequestLogger(c, reqLogger)

			token, ok := httpHandlers.BearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}
			if token == "" {
				return next(c)
			}

			principal, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, entities.ErrInvalidSession) {
					reqLogger.LogSecurityEvent("invalid_session", "", c.RealIP(), map[string]interface{}{
						"error": err.Error(),
						"path":  c.Path(),
					})
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid session")
				}
				return err
			}

			httpHandlers.SetPrincipal(c, principal, token)
			if principal != nil {
				httpHandlers.SetRequestLogger(c, reqLogger.WithUserID(principal.UserID))
			}
			return next(c)
		}
	}
}

// requireAuth rejects anonymous callers
func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if httpHandlers.PrincipalFrom(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			return next(c)
		}
	}
}
