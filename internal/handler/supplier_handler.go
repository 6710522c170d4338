package handler

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/pagination"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/suppliers")
	group.Use(middleware.RequireAuth())
	{
		group.GET("", middleware.RequirePermission("view_suppliers"), h.ListSuppliers)
		group.GET("/:id", middleware.RequirePermission("view_suppliers"), h.GetSupplier)
		group.POST("", middleware.RequirePermission("manage_suppliers"), h.CreateSupplier)
		group.PUT("/:id", middleware.RequirePermission("manage_suppliers"), h.UpdateSupplier)
		group.DELETE("/:id", middleware.RequirePermission("manage_suppliers"), h.DeleteSupplier)
	}
}

// ListSuppliers handles GET /suppliers
// @Summary      List suppliers
// @Description  Retrieves suppliers with their running ratings, ordered by name
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/suppliers [get]
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	p := pagination.Parse(c)

	suppliers, total, err := h.supplierService.ListSuppliers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch suppliers"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, suppliers, total, p.Page, p.Limit))
}

// GetSupplier handles GET /suppliers/:id
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// CreateSupplier handles POST /suppliers
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// UpdateSupplier handles PUT /suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// DeleteSupplier handles DELETE /suppliers/:id
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	if err := h.supplierService.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Supplier deleted successfully"))
}
