package handler

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/pagination"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/projects")
	group.Use(middleware.RequireAuth())
	{
		group.GET("", middleware.RequirePermission("view_projects"), h.ListProjects)
		group.GET("/:id", middleware.RequirePermission("view_projects"), h.GetProject)
		group.POST("", middleware.RequirePermission("manage_projects"), h.CreateProject)
		group.PUT("/:id", middleware.RequirePermission("manage_projects"), h.UpdateProject)
		group.DELETE("/:id", middleware.RequirePermission("manage_projects"), h.DeleteProject)

		group.POST("/:id/invoices", middleware.RequirePermission("manage_projects"), h.CreateProjectInvoice)
	}

	invoices := router.Group("/project-invoices")
	invoices.Use(middleware.RequireAuth())
	{
		invoices.PATCH("/:id/paid", middleware.RequirePermission("manage_projects"), h.SetInvoicePaid)
	}
}

// ListProjects handles GET /projects with an optional status filter
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (ACTIVE, ON_HOLD, COMPLETED)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	p := pagination.Parse(c)

	projects, total, err := h.projectService.ListProjects(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch projects"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, projects, total, p.Page, p.Limit))
}

// GetProject handles GET /projects/:id returning the project with its
// invoices and billing totals
// @Summary      Get project detail
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  response.Response{data=service.ProjectSummaryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	summary, err := h.projectService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

// UpdateProject handles PUT /projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req service.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// DeleteProject handles DELETE /projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectService.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Project deleted successfully"))
}

// CreateProjectInvoice handles POST /projects/:id/invoices
// @Summary      Create project invoice
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                               true  "Project ID"
// @Param        payload  body      service.CreateProjectInvoiceRequest  true  "Invoice Payload"
// @Success      201      {object}  response.Response{data=model.ProjectInvoice}
// @Failure      400      {object}  response.Response
// @Router       /api/projects/{id}/invoices [post]
func (h *ProjectHandler) CreateProjectInvoice(c *gin.Context) {
	var req service.CreateProjectInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.projectService.CreateProjectInvoice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// SetInvoicePaid handles PATCH /project-invoices/:id/paid
func (h *ProjectHandler) SetInvoicePaid(c *gin.Context) {
	var req struct {
		Paid bool `json:"paid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.projectService.SetInvoicePaid(c.Request.Context(), c.Param("id"), req.Paid)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
