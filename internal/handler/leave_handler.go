package handler

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/pagination"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type LeaveHandler struct {
	leaveService service.LeaveService
}

func NewLeaveHandler(leaveService service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *LeaveHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/leave")
	group.Use(middleware.RequireAuth())
	{
		group.GET("", middleware.RequirePermission("view_leave_request"), h.ListLeaveRequests)
		group.POST("", middleware.RequirePermission("create_leave_request"), h.CreateLeaveRequest)
		group.PUT("/approve/:id", middleware.RequirePermission("approving_leave_request"), h.DecideLeaveRequest)
	}
}

// ListLeaveRequests handles GET /leave with status and user filters
// @Summary      List leave requests
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (PENDING, APPROVED, REJECTED)"
// @Param        userId  query     string  false  "Filter by user UUID"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/leave [get]
func (h *LeaveHandler) ListLeaveRequests(c *gin.Context) {
	p := pagination.Parse(c)

	requests, total, err := h.leaveService.ListLeaveRequests(c.Request.Context(), service.LeaveFilter{
		Status: c.Query("status"),
		UserID: c.Query("userId"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch leave requests"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, p.Page, p.Limit))
}

// CreateLeaveRequest handles POST /leave
// @Summary      Create leave request
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLeaveRequestDTO  true  "Leave Request Payload"
// @Success      201      {object}  response.Response{data=service.LeaveRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/leave [post]
func (h *LeaveHandler) CreateLeaveRequest(c *gin.Context) {
	var req service.CreateLeaveRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.leaveService.CreateLeaveRequest(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// DecideLeaveRequest handles PUT /leave/approve/:id approving or rejecting a
// pending request
// @Summary      Decide leave request
// @Description  Approves or rejects a pending leave request; rejection requires a reason
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Leave Request ID"
// @Param        payload  body      service.DecideLeaveRequestDTO  true  "Decision"
// @Success      200      {object}  response.Response{data=service.LeaveRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/leave/approve/{id} [put]
func (h *LeaveHandler) DecideLeaveRequest(c *gin.Context) {
	var req service.DecideLeaveRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.leaveService.DecideLeaveRequest(c.Request.Context(), c.Param("id"), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
