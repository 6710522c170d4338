package handler

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type IdeaHandler struct {
	ideaService service.IdeaService
}

func NewIdeaHandler(ideaService service.IdeaService) *IdeaHandler {
	return &IdeaHandler{ideaService: ideaService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *IdeaHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/ideas")
	group.Use(middleware.RequireAuth())
	{
		group.GET("", middleware.RequirePermission("view_ideas"), h.ListIdeas)
		group.POST("", middleware.RequirePermission("submit_idea"), h.CreateIdea)
		group.POST("/:id/vote", middleware.RequirePermission("view_ideas"), h.ToggleVote)
		group.PATCH("/:id/status", middleware.RequirePermission("manage_ideas"), h.UpdateIdeaStatus)
		group.DELETE("/:id", h.DeleteIdea)
	}
}

// ListIdeas handles GET /ideas returning ideas with vote counts and the
// viewer's own vote marked
// @Summary      List ideas
// @Tags         ideas
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (NEW, REVIEWING, ACCEPTED, REJECTED)"
// @Success      200     {object}  response.Response{data=[]service.IdeaResponse}
// @Router       /api/ideas [get]
func (h *IdeaHandler) ListIdeas(c *gin.Context) {
	ideas, err := h.ideaService.ListIdeas(c.Request.Context(), c.GetString("userID"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch ideas"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ideas))
}

// CreateIdea handles POST /ideas
func (h *IdeaHandler) CreateIdea(c *gin.Context) {
	var req service.CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	idea, err := h.ideaService.CreateIdea(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, idea))
}

// ToggleVote handles POST /ideas/:id/vote toggling the caller's vote
// @Summary      Toggle vote on idea
// @Description  Adds the caller's vote if absent, removes it if present
// @Tags         ideas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Idea ID"
// @Success      200  {object}  response.Response{data=service.VoteResult}
// @Failure      400  {object}  response.Response
// @Router       /api/ideas/{id}/vote [post]
func (h *IdeaHandler) ToggleVote(c *gin.Context) {
	result, err := h.ideaService.ToggleVote(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateIdeaStatus handles PATCH /ideas/:id/status
func (h *IdeaHandler) UpdateIdeaStatus(c *gin.Context) {
	var req service.UpdateIdeaStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	idea, err := h.ideaService.UpdateIdeaStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, idea))
}

// DeleteIdea handles DELETE /ideas/:id; only the author or an idea manager
// may delete
func (h *IdeaHandler) DeleteIdea(c *gin.Context) {
	isAdmin := c.GetString("userRole") == "admin"
	if err := h.ideaService.DeleteIdea(c.Request.Context(), c.Param("id"), c.GetString("userID"), isAdmin); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Idea deleted successfully"))
}
