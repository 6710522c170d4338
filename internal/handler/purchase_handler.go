package handler

import (
	"net/http"
	"strconv"

	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/pagination"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

// NewPurchaseHandler sets up the routing dependencies for the purchase
// approval workflow endpoints
func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/purchase-request")
	group.Use(middleware.RequireAuth())
	{
		group.POST("", middleware.RequirePermission("create_purchase_request"), h.CreateRequest)
		group.GET("", middleware.RequirePermission("view_purchase_request"), h.ListRequests)
		group.GET("/:id", middleware.RequirePermission("view_purchase_request"), h.GetRequest)

		stages := group.Group("/new")
		{
			stages.PUT("/second-approval", middleware.RequirePermission("first_approval_purchase"), h.SecondApproval)
			stages.PUT("/third-approval", middleware.RequirePermission("second_approval_purchase"), h.ThirdApproval)
			stages.POST("/invoice-stage", middleware.RequirePermission("upload_invoice"), h.InvoiceStage)
			stages.PUT("/invoice-price-check", middleware.RequirePermission("invoice_price_check"), h.InvoicePriceCheck)
			stages.PUT("/accounting-invoice", middleware.RequirePermission("accounting_invoice"), h.AccountingInvoice)
		}
	}
}

// CreateRequest handles POST /purchase-request opening a new request at the
// offer collection stage
// @Summary      Create purchase request
// @Description  Opens a new purchase request that starts collecting supplier offers
// @Tags         purchase
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePurchaseRequestDTO  true  "Purchase Request Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-request [post]
func (h *PurchaseHandler) CreateRequest(c *gin.Context) {
	var req service.CreatePurchaseRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.purchaseService.CreateRequest(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests handles GET /purchase-request with stage and rejected filters
// @Summary      List purchase requests
// @Tags         purchase
// @Produce      json
// @Security     BearerAuth
// @Param        stage     query     string  false  "Filter by workflow stage"
// @Param        rejected  query     bool    false  "Filter by rejection flag"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/purchase-request [get]
func (h *PurchaseHandler) ListRequests(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.PurchaseFilter{
		Stage: c.Query("stage"),
		Page:  p.Page,
		Limit: p.Limit,
	}
	if raw := c.Query("rejected"); raw != "" {
		rejected, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid rejected filter"))
			return
		}
		filter.Rejected = &rejected
	}

	requests, total, err := h.purchaseService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch purchase requests"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, p.Page, p.Limit))
}

// GetRequest handles GET /purchase-request/:id
func (h *PurchaseHandler) GetRequest(c *gin.Context) {
	result, err := h.purchaseService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// SecondApproval handles PUT /purchase-request/new/second-approval acting on
// the offer collection stage
// @Summary      Offer collection stage action
// @Description  Approves, rejects or saves offers while the request collects supplier offers. Supports the Idempotency-Key header.
// @Tags         purchase
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                            false  "Replay protection key"
// @Param        payload          body      service.OfferCollectionActionDTO  true   "Stage action"
// @Success      200              {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Router       /api/purchase-request/new/second-approval [put]
func (h *PurchaseHandler) SecondApproval(c *gin.Context) {
	var req service.OfferCollectionActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.purchaseService.HandleOfferCollection(c.Request.Context(), req, c.GetString("userID"), c.GetHeader("Idempotency-Key"))
	if err != nil {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ThirdApproval handles PUT /purchase-request/new/third-approval acting on the
// offer selection stage
// @Summary      Offer selection stage action
// @Description  Approves with a selected offer, rejects, or reopens offer entry after a rejection. Supports the Idempotency-Key header.
// @Tags         purchase
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                           false  "Replay protection key"
// @Param        payload          body      service.OfferSelectionActionDTO  true   "Stage action"
// @Success      200              {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Router       /api/purchase-request/new/third-approval [put]
func (h *PurchaseHandler) ThirdApproval(c *gin.Context) {
	var req service.OfferSelectionActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.purchaseService.HandleOfferSelection(c.Request.Context(), req, c.GetString("userID"), c.GetHeader("Idempotency-Key"))
	if err != nil {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// InvoiceStage handles POST /purchase-request/new/invoice-stage accepting the
// invoice file as multipart form data
// @Summary      Upload invoice
// @Description  Attaches the supplier invoice file and amount to a request at the upload stage
// @Tags         purchase
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  formData  string  true  "Purchase request ID"
// @Param        amount      formData  string  true  "Invoice amount"
// @Param        file        formData  file    true  "Invoice file (pdf, jpg, jpeg, png; max 10MB)"
// @Success      200         {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400         {object}  response.Response
// @Router       /api/purchase-request/new/invoice-stage [post]
func (h *PurchaseHandler) InvoiceStage(c *gin.Context) {
	requestID := c.PostForm("request_id")
	amount := c.PostForm("amount")
	if requestID == "" || amount == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "request_id ve amount alanları zorunludur"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "fatura dosyası gereklidir"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "fatura dosyası açılamadı"))
		return
	}
	defer file.Close()

	result, err := h.purchaseService.UploadInvoice(c.Request.Context(), service.UploadInvoiceDTO{
		RequestID: requestID,
		Amount:    amount,
		Filename:  fileHeader.Filename,
		Size:      fileHeader.Size,
		File:      file,
	}, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// InvoicePriceCheck handles PUT /purchase-request/new/invoice-price-check
// @Summary      Invoice price check action
// @Description  Approves or rejects the uploaded invoice, or records a supplier rating
// @Tags         purchase
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PriceCheckActionDTO  true  "Price check action"
// @Success      200      {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-request/new/invoice-price-check [put]
func (h *PurchaseHandler) InvoicePriceCheck(c *gin.Context) {
	var req service.PriceCheckActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.purchaseService.HandlePriceCheck(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AccountingInvoice handles PUT /purchase-request/new/accounting-invoice
// @Summary      Accounting KDV edit
// @Description  Edits a KDV field on an approved invoice; finalize completes the request
// @Tags         purchase
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AccountingEditDTO  true  "KDV edit"
// @Success      200      {object}  response.Response{data=service.PurchaseRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-request/new/accounting-invoice [put]
func (h *PurchaseHandler) AccountingInvoice(c *gin.Context) {
	var req service.AccountingEditDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.purchaseService.AccountingEdit(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
