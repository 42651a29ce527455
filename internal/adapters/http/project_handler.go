package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// CreateProject godoc
// @Summary Create a new project
// @Description Create a project owned by the caller
// @Tags projects
// @Accept json
// @Produce json
// @Param request body ports.CreateProjectRequest true "Project data"
// @Success 201 {object} entities.Project
// @Failure 400 {object} ports.ErrorResponse
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.CreateProject(c.Request().Context(), PrincipalFrom(c), req)
	if err != nil {
		RequestLogger(c, h.logger).Errorw("Create project failed", "error", err)
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// ListProjects godoc
// @Summary List projects
// @Description Projects owned by or shared with the caller
// @Tags projects
// @Produce json
// @Success 200 {array} entities.Project
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	projects, err := h.projectService.ListProjects(c.Request().Context(), PrincipalFrom(c))
	if err != nil {
		RequestLogger(c, h.logger).Errorw("List projects failed", "error", err)
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, projects)
}

// GetProject godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} entities.Project
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c echo.Context) error {
	project, _, err := h.projectService.GetProject(c.Request().Context(), PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// UpdateProject changes a project owned by the caller
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	var req ports.UpdateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		RequestLogger(c, h.logger).Errorw("Update project failed", "error", err, "project_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject removes a project owned by the caller
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	if err := h.projectService.DeleteProject(c.Request().Context(), PrincipalFrom(c), c.Param("id")); err != nil {
		RequestLogger(c, h.logger).Errorw("Delete project failed", "error", err, "project_id", c.Param("id"))
		return ToHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CheckPermission godoc
// @Summary Resolve the caller's access to a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} entities.AccessResult
// @Router /projects/{id}/permission [get]
func (h *ProjectHandler) CheckPermission(c echo.Context) error {
	return c.JSON(http.StatusOK, h.projectService.CheckPermission(c.Request().Context(), PrincipalFrom(c), c.Param("id")))
}
