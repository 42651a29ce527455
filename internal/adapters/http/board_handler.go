package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// BoardHandler handles board-related requests
type BoardHandler struct {
	boardService *services.BoardService
	logger       *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService *services.BoardService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		logger:       logger,
	}
}

// CreateBoard godoc
// @Summary Create a board in a project
// @Tags boards
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ports.CreateBoardRequest true "Board data"
// @Success 201 {object} entities.Board
// @Failure 403 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id}/boards [post]
func (h *BoardHandler) CreateBoard(c echo.Context) error {
	var req ports.CreateBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	board, err := h.boardService.CreateBoard(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Errorw("Create board failed", "error", err, "project_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, board)
}

// ListBoards godoc
// @Summary List the boards of a project visible to the caller
// @Tags boards
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} entities.Board
// @Router /projects/{id}/boards [get]
func (h *BoardHandler) ListBoards(c echo.Context) error {
	boards, err := h.boardService.ListBoards(c.Request().Context(), PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, boards)
}

func (h *BoardHandler) GetBoard(c echo.Context) error {
	board, _, err := h.boardService.GetBoard(c.Request().Context(), PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) UpdateBoard(c echo.Context) error {
	var req ports.UpdateBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	board, err := h.boardService.UpdateBoard(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Errorw("Update board failed", "error", err, "board_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) DeleteBoard(c echo.Context) error {
	if err := h.boardService.DeleteBoard(c.Request().Context(), PrincipalFrom(c), c.Param("id")); err != nil {
		RequestLogger(c, h.logger).Errorw("Delete board failed", "error", err, "board_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CheckPermission resolves the caller's access to a board
func (h *BoardHandler) CheckPermission(c echo.Context) error {
	return c.JSON(http.StatusOK, h.boardService.CheckPermission(c.Request().Context(), PrincipalFrom(c), c.Param("id")))
}
