package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/order"
	"github.com/fekuna/omnipos-backoffice/internal/order/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	g.POST("", h.CreateOrder)
	g.GET("", h.ListOrders)
	g.GET("/:id", h.GetOrder)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.DeleteOrder)
}

type orderItemRequest struct {
	ProductID string              `json:"product_id" binding:"required"`
	VariantID *string             `json:"variant_id"`
	Quantity  int                 `json:"quantity" binding:"required"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
}

type createOrderRequest struct {
	CustomerID   *string            `json:"customer_id"`
	LocationID   string             `json:"location_id"`
	DiscountCode string             `json:"discount_code"`
	Notes        string             `json:"notes"`
	Completed    bool               `json:"completed"`
	Items        []orderItemRequest `json:"items" binding:"required,dive"`
}

type statusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	input := &dto.CreateOrderInput{
		MerchantID:   auth.GetMerchantID(ctx),
		UserID:       auth.GetUserID(ctx),
		CustomerID:   req.CustomerID,
		LocationID:   req.LocationID,
		DiscountCode: req.DiscountCode,
		Notes:        req.Notes,
		Completed:    req.Completed,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, dto.OrderItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	o, err := h.uc.CreateOrder(ctx, input)
	if err != nil {
		response.Fail(c, h.logger, err, "create order")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"order": o})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	o, err := h.uc.GetOrder(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get order")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"order": o})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	orders, total, err := h.uc.ListOrders(ctx, &dto.OrderFilters{
		MerchantID: auth.GetMerchantID(ctx),
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list orders")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"orders": orders, "meta": response.Meta(page, size, total)})
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	o, err := h.uc.UpdateOrderStatus(ctx, &dto.UpdateStatusInput{
		MerchantID: auth.GetMerchantID(ctx),
		OrderID:    c.Param("id"),
		Status:     req.Status,
		UserID:     auth.GetUserID(ctx),
	})
	if err != nil {
		response.Fail(c, h.logger, err, "update order status")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"order": o})
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.uc.DeleteOrder(ctx, auth.GetMerchantID(ctx), c.Param("id")); err != nil {
		response.Fail(c, h.logger, err, "delete order")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "Order deleted"})
}
