package handler

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/dashboard")
	group.Use(middleware.RequireAuth(), middleware.RequirePermission("view_dashboard"))
	{
		group.GET("", h.GetDashboard)
	}
}

// GetDashboard handles GET /dashboard with pending-work counters
// @Summary      Dashboard summary
// @Description  Returns pending purchase requests, leave requests, open faults, due controls and related counters
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.statisticsService.GetDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build dashboard"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}
