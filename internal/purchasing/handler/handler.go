package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PurchasingHandler struct {
	uc     purchasing.UseCase
	logger logger.ZapLogger
}

func NewPurchasingHandler(uc purchasing.UseCase, log logger.ZapLogger) *PurchasingHandler {
	return &PurchasingHandler{uc: uc, logger: log}
}

func (h *PurchasingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/purchase-orders")
	g.POST("", h.CreatePurchaseOrder)
	g.GET("", h.ListPurchaseOrders)
	g.GET("/:id", h.GetPurchaseOrder)
	g.POST("/:id/send", h.SendPurchaseOrder)
	g.POST("/:id/cancel", h.CancelPurchaseOrder)
	g.POST("/:id/receive", h.ReceivePurchaseOrder)
}

type poItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	VariantID *string         `json:"variant_id"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type createPORequest struct {
	SupplierID   string          `json:"supplier_id" binding:"required"`
	LocationID   string          `json:"location_id"`
	ExpectedDate *time.Time      `json:"expected_date"`
	Notes        string          `json:"notes"`
	Items        []poItemRequest `json:"items" binding:"required,dive"`
}

type receiveRequest struct {
	Items []struct {
		ItemID   string `json:"item_id" binding:"required"`
		Quantity int    `json:"quantity" binding:"required"`
	} `json:"items" binding:"required,dive"`
}

func (h *PurchasingHandler) CreatePurchaseOrder(c *gin.Context) {
	var req createPORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	input := &dto.CreatePurchaseOrderInput{
		MerchantID:   auth.GetMerchantID(ctx),
		UserID:       auth.GetUserID(ctx),
		SupplierID:   req.SupplierID,
		LocationID:   req.LocationID,
		ExpectedDate: req.ExpectedDate,
		Notes:        req.Notes,
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, dto.PurchaseOrderItemInput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}

	po, err := h.uc.CreatePurchaseOrder(ctx, input)
	if err != nil {
		response.Fail(c, h.logger, err, "create purchase order")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"purchase_order": po})
}

func (h *PurchasingHandler) GetPurchaseOrder(c *gin.Context) {
	ctx := c.Request.Context()
	po, err := h.uc.GetPurchaseOrder(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get purchase order")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"purchase_order": po})
}

func (h *PurchasingHandler) ListPurchaseOrders(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	orders, total, err := h.uc.ListPurchaseOrders(ctx, &dto.PurchaseOrderFilters{
		MerchantID: auth.GetMerchantID(ctx),
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list purchase orders")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"purchase_orders": orders, "meta": response.Meta(page, size, total)})
}

func (h *PurchasingHandler) SendPurchaseOrder(c *gin.Context) {
	ctx := c.Request.Context()
	po, err := h.uc.SendPurchaseOrder(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "send purchase order")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"purchase_order": po})
}

func (h *PurchasingHandler) CancelPurchaseOrder(c *gin.Context) {
	ctx := c.Request.Context()
	po, err := h.uc.CancelPurchaseOrder(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "cancel purchase order")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"purchase_order": po})
}

func (h *PurchasingHandler) ReceivePurchaseOrder(c *gin.Context) {
	var req receiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	input := &dto.ReceiveInput{
		MerchantID:      auth.GetMerchantID(ctx),
		PurchaseOrderID: c.Param("id"),
		UserID:          auth.GetUserID(ctx),
	}
	for _, it := range req.Items {
		input.Lines = append(input.Lines, dto.ReceiveLine{ItemID: it.ItemID, Quantity: it.Quantity})
	}

	po, err := h.uc.ReceivePurchaseOrder(ctx, input)
	if err != nil {
		response.Fail(c, h.logger, err, "receive purchase order")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"purchase_order": po})
}
