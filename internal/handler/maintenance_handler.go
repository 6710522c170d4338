package handler

import (
	"net/http"
	"strconv"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
}

func NewMaintenanceHandler(maintenanceService service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/maintenance")
	group.Use(middleware.RequireAuth())

	devices := group.Group("/devices")
	{
		devices.GET("", middleware.RequirePermission("view_maintenance"), h.ListDevices)
		devices.POST("", middleware.RequirePermission("manage_maintenance"), h.CreateDevice)
		devices.PATCH("/:id/status", middleware.RequirePermission("manage_maintenance"), h.UpdateDeviceStatus)
	}

	faults := group.Group("/faults")
	{
		faults.GET("", middleware.RequirePermission("view_maintenance"), h.ListFaultLogs)
		faults.POST("", middleware.RequirePermission("view_maintenance"), h.CreateFaultLog)
		faults.PATCH("/:id/status", middleware.RequirePermission("manage_maintenance"), h.UpdateFaultStatus)
	}

	periodicPlans := group.Group("/periodic-plans")
	{
		periodicPlans.GET("", middleware.RequirePermission("view_maintenance"), h.ListControlPlans)
		periodicPlans.POST("", middleware.RequirePermission("manage_maintenance"), h.CreateControlPlan)
	}

	periodicLogs := group.Group("/periodic-logs")
	{
		periodicLogs.POST("", middleware.RequirePermission("manage_maintenance"), h.CreateControlLog)
	}

	plans := group.Group("/plans")
	{
		plans.GET("", middleware.RequirePermission("view_maintenance"), h.ListMaintenancePlans)
		plans.POST("", middleware.RequirePermission("manage_maintenance"), h.CreateMaintenancePlan)
		plans.PATCH("/:id/status", middleware.RequirePermission("manage_maintenance"), h.UpdateMaintenancePlanStatus)
	}
}

// --- Devices ---

// ListDevices handles GET /maintenance/devices
// @Summary      List devices
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (ACTIVE, INACTIVE, FAULTY)"
// @Success      200     {object}  response.Response{data=[]model.Device}
// @Router       /api/maintenance/devices [get]
func (h *MaintenanceHandler) ListDevices(c *gin.Context) {
	devices, err := h.maintenanceService.ListDevices(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch devices"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, devices))
}

// CreateDevice handles POST /maintenance/devices
func (h *MaintenanceHandler) CreateDevice(c *gin.Context) {
	var req service.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	device, err := h.maintenanceService.CreateDevice(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, device))
}

// UpdateDeviceStatus handles PATCH /maintenance/devices/:id/status
func (h *MaintenanceHandler) UpdateDeviceStatus(c *gin.Context) {
	var req service.UpdateDeviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	device, err := h.maintenanceService.UpdateDeviceStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, device))
}

// --- Fault logs ---

// ListFaultLogs handles GET /maintenance/faults
func (h *MaintenanceHandler) ListFaultLogs(c *gin.Context) {
	logs, err := h.maintenanceService.ListFaultLogs(c.Request.Context(), c.Query("deviceId"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch fault logs"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// CreateFaultLog handles POST /maintenance/faults
// @Summary      Report device fault
// @Description  Records a fault for a device and marks the device faulty until resolved
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateFaultLogRequest  true  "Fault report"
// @Success      201      {object}  response.Response{data=model.FaultLog}
// @Failure      400      {object}  response.Response
// @Router       /api/maintenance/faults [post]
func (h *MaintenanceHandler) CreateFaultLog(c *gin.Context) {
	var req service.CreateFaultLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	log, err := h.maintenanceService.CreateFaultLog(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, log))
}

// UpdateFaultStatus handles PATCH /maintenance/faults/:id/status
func (h *MaintenanceHandler) UpdateFaultStatus(c *gin.Context) {
	var req service.UpdateFaultStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	log, err := h.maintenanceService.UpdateFaultStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, log))
}

// --- Periodic control plans & logs ---

// ListControlPlans handles GET /maintenance/periodic-plans; ?due=true limits
// to plans whose next control date has passed
func (h *MaintenanceHandler) ListControlPlans(c *gin.Context) {
	dueOnly, _ := strconv.ParseBool(c.DefaultQuery("due", "false"))

	plans, err := h.maintenanceService.ListControlPlans(c.Request.Context(), dueOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch control plans"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plans))
}

// CreateControlPlan handles POST /maintenance/periodic-plans
func (h *MaintenanceHandler) CreateControlPlan(c *gin.Context) {
	var req service.CreateControlPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	plan, err := h.maintenanceService.CreateControlPlan(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, plan))
}

// CreateControlLog handles POST /maintenance/periodic-logs recording a
// performed control and rolling the plan's due date forward
func (h *MaintenanceHandler) CreateControlLog(c *gin.Context) {
	var req service.CreateControlLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	log, err := h.maintenanceService.CreateControlLog(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, log))
}

// --- Maintenance plans ---

// ListMaintenancePlans handles GET /maintenance/plans
func (h *MaintenanceHandler) ListMaintenancePlans(c *gin.Context) {
	plans, err := h.maintenanceService.ListMaintenancePlans(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch maintenance plans"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plans))
}

// CreateMaintenancePlan handles POST /maintenance/plans
func (h *MaintenanceHandler) CreateMaintenancePlan(c *gin.Context) {
	var req service.CreateMaintenancePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	plan, err := h.maintenanceService.CreateMaintenancePlan(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, plan))
}

// UpdateMaintenancePlanStatus handles PATCH /maintenance/plans/:id/status
func (h *MaintenanceHandler) UpdateMaintenancePlanStatus(c *gin.Context) {
	var req service.UpdatePlanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	plan, err := h.maintenanceService.UpdateMaintenancePlanStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plan))
}
