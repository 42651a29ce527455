package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// ShareHandler handles project and board invitations
type ShareHandler struct {
	shareService *services.ShareService
	logger       *logger.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *services.ShareService, logger *logger.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// InviteToProject godoc
// @Summary Share a project with a user by email
// @Tags shares
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ports.InviteRequest true "Invitation"
// @Success 201 {object} entities.ProjectShare
// @Failure 403 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id}/shares [post]
func (h *ShareHandler) InviteToProject(c echo.Context) error {
	var req ports.InviteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	share, err := h.shareService.InviteToProject(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Warnw("Project invite failed", "error", err, "project_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, share)
}

func (h *ShareHandler) ListProjectShares(c echo.Context) error {
	shares, err := h.shareService.ListProjectShares(c.Request().Context(), PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, shares)
}

func (h *ShareHandler) RemoveProjectShare(c echo.Context) error {
	if err := h.shareService.RemoveProjectShare(c.Request().Context(), PrincipalFrom(c), c.Param("id")); err != nil {
		RequestLogger(c, h.logger).Warnw("Remove project share failed", "error", err, "share_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// InviteToBoard godoc
// @Summary Share a board with a user by email
// @Tags shares
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param request body ports.InviteRequest true "Invitation"
// @Success 201 {object} entities.BoardShare
// @Security BearerAuth
// @Router /boards/{id}/shares [post]
func (h *ShareHandler) InviteToBoard(c echo.Context) error {
	var req ports.InviteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	share, err := h.shareService.InviteToBoard(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Warnw("Board invite failed", "error", err, "board_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, share)
}

func (h *ShareHandler) ListBoardShares(c echo.Context) error {
	shares, err := h.shareService.ListBoardShares(c.Request().Context(), PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, shares)
}

func (h *ShareHandler) RemoveBoardShare(c echo.Context) error {
	if err := h.shareService.RemoveBoardShare(c.Request().Context(), PrincipalFrom(c), c.Param("id")); err != nil {
		RequestLogger(c, h.logger).Warnw("Remove board share failed", "error", err, "share_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
