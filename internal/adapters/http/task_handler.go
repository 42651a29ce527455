package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask godoc
// @Summary Create a task on a board
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 403 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /boards/{id}/tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Errorw("Create task failed", "error", err, "board_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// ListTasks godoc
// @Summary Column view of a board
// @Tags tasks
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} ports.BoardView
// @Router /boards/{id}/tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	view, err := h.taskService.BoardView(c.Request().Context(), PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, view)
}

// MoveTask godoc
// @Summary Drop a task onto a column or another task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param request body ports.DragRequest true "Drag end event"
// @Success 200 {object} ports.DragResponse
// @Failure 403 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /boards/{id}/drag [post]
func (h *TaskHandler) MoveTask(c echo.Context) error {
	var req ports.DragRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.taskService.MoveTask(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Warnw("Move task failed", "error", err, "board_id", c.Param("id"), "task_id", req.TaskID)
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req ports.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Errorw("Update task failed", "error", err, "task_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), PrincipalFrom(c), c.Param("id")); err != nil {
		RequestLogger(c, h.logger).Errorw("Delete task failed", "error", err, "task_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
