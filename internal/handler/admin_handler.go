package handler

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/pagination"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	userService       service.UserService
	roleService       service.RoleService
	permissionService service.PermissionService
}

// NewAdminHandler sets up the routing dependencies for role, permission and
// user administration endpoints
func NewAdminHandler(userService service.UserService, roleService service.RoleService, permissionService service.PermissionService) *AdminHandler {
	return &AdminHandler{
		userService:       userService,
		roleService:       roleService,
		permissionService: permissionService,
	}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.RequireAuth())

	roles := admin.Group("/roles", middleware.RequirePermission("manage_roles"))
	{
		roles.GET("", h.ListRoles)
		roles.POST("", h.CreateRole)
		roles.GET("/:id/permissions", h.GetRolePermissions)
		roles.PUT("/:id/permissions", h.UpdateRolePermissions)
	}

	perms := admin.Group("/permissions", middleware.RequirePermission("manage_roles"))
	{
		perms.GET("", h.ListPermissions)
		perms.POST("", h.CreatePermission)
		perms.DELETE("/:id", h.DeletePermission)
	}

	users := admin.Group("/users", middleware.RequirePermission("manage_users"))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id/permissions", h.GetUserPermissions)
		users.PUT("/:id/permissions", h.UpdateUserPermissions)
		users.DELETE("/:id", h.DeleteUser)
	}

	awaiting := admin.Group("/users-awaiting", middleware.RequirePermission("manage_users"))
	{
		awaiting.GET("", h.ListAwaitingUsers)
		awaiting.POST("/:id/approve", h.ApproveAwaitingUser)
	}
}

// --- Roles ---

// ListRoles handles GET /admin/roles
// @Summary      List roles
// @Description  Retrieves all roles with their permission sets
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/admin/roles [get]
func (h *AdminHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch roles"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// CreateRole handles POST /admin/roles
// @Summary      Create role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Create Role Payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/roles [post]
func (h *AdminHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// GetRolePermissions handles GET /admin/roles/:id/permissions
func (h *AdminHandler) GetRolePermissions(c *gin.Context) {
	perms, err := h.roleService.GetRolePermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// UpdateRolePermissions handles PUT /admin/roles/:id/permissions replacing the
// role's permission set atomically
// @Summary      Replace role permissions
// @Description  Replaces the full permission set of a role and records an audit entry
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/roles/{id}/permissions [put]
func (h *AdminHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.ReplaceRolePermissions(c.Request.Context(), c.Param("id"), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// --- Permissions ---

// ListPermissions handles GET /admin/permissions
func (h *AdminHandler) ListPermissions(c *gin.Context) {
	perms, err := h.permissionService.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch permissions"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// CreatePermission handles POST /admin/permissions
func (h *AdminHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	perm, err := h.permissionService.CreatePermission(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, perm))
}

// DeletePermission handles DELETE /admin/permissions/:id detaching the
// permission from every role and user grant
func (h *AdminHandler) DeletePermission(c *gin.Context) {
	if err := h.permissionService.DeletePermission(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Permission deleted successfully"))
}

// --- Users ---

// ListUsers handles GET /admin/users with an optional roleId filter
// @Summary      List users
// @Description  Retrieves approved users, optionally filtered by role
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        roleId  query     string  false  "Filter by role UUID"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	roleID := c.Query("roleId")

	users, total, err := h.userService.ListUsers(c.Request.Context(), roleID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch users"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, users, total, p.Page, p.Limit))
}

// GetUserPermissions handles GET /admin/users/:id/permissions returning the
// inherited, direct and effective permission sets
func (h *AdminHandler) GetUserPermissions(c *gin.Context) {
	perms, err := h.permissionService.GetUserPermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// UpdateUserPermissions handles PUT /admin/users/:id/permissions replacing the
// user's direct grants atomically
func (h *AdminHandler) UpdateUserPermissions(c *gin.Context) {
	var req service.UpdateUserPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	perms, err := h.permissionService.ReplaceUserPermissions(c.Request.Context(), c.Param("id"), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// DeleteUser handles DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "User deleted successfully"))
}

// --- Awaiting users ---

// ListAwaitingUsers handles GET /admin/users-awaiting
func (h *AdminHandler) ListAwaitingUsers(c *gin.Context) {
	users, err := h.userService.ListAwaitingApproval(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch awaiting users"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, users))
}

// ApproveAwaitingUser handles POST /admin/users-awaiting/:id/approve assigning
// a role and activating the account
// @Summary      Approve awaiting user
// @Description  Approves a registered account and assigns its role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "User ID"
// @Param        payload  body      service.ApproveUserRequest  true  "Role assignment"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/users-awaiting/{id}/approve [post]
func (h *AdminHandler) ApproveAwaitingUser(c *gin.Context) {
	var req service.ApproveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.ApproveAwaitingUser(c.Request.Context(), c.Param("id"), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
