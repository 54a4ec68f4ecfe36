package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/inventory"
	"github.com/fekuna/omnipos-backoffice/internal/inventory/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/inventory")
	g.GET("/stock", h.GetStock)
	g.GET("/low-stock", h.ListLowStock)
	g.POST("/adjust", h.AdjustInventory)
	g.PUT("/reorder-point", h.SetReorderPoint)
	g.GET("/movements", h.ListMovements)
}

type adjustRequest struct {
	ProductID      string  `json:"product_id" binding:"required"`
	VariantID      *string `json:"variant_id"`
	LocationID     string  `json:"location_id"`
	QuantityChange int     `json:"quantity_change"`
	Reason         string  `json:"reason" binding:"required"`
}

type reorderPointRequest struct {
	ProductID    string  `json:"product_id" binding:"required"`
	VariantID    *string `json:"variant_id"`
	LocationID   string  `json:"location_id"`
	ReorderPoint int     `json:"reorder_point"`
}

// GetStock handles GET /inventory/stock?product_id=&variant_id=&location_id=.
func (h *InventoryHandler) GetStock(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}

	ctx := c.Request.Context()
	level, err := h.uc.GetStock(ctx, auth.GetMerchantID(ctx), model.StockKey{
		ProductID:  productID,
		VariantID:  response.Optional(c.Query("variant_id")),
		LocationID: c.Query("location_id"),
	})
	if err != nil {
		response.Fail(c, h.logger, err, "get stock")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock": level})
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	items, total, err := h.uc.ListLowStock(ctx, auth.GetMerchantID(ctx), c.Query("location_id"), page, size)
	if err != nil {
		response.Fail(c, h.logger, err, "list low stock")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"items": items, "meta": response.Meta(page, size, total)})
}

func (h *InventoryHandler) AdjustInventory(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	level, err := h.uc.AdjustInventory(ctx, &dto.AdjustInventoryInput{
		MerchantID:     auth.GetMerchantID(ctx),
		LocationID:     req.LocationID,
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		QuantityChange: req.QuantityChange,
		Reason:         req.Reason,
		UserID:         auth.GetUserID(ctx),
	})
	if err != nil {
		response.Fail(c, h.logger, err, "adjust inventory")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock": level})
}

func (h *InventoryHandler) SetReorderPoint(c *gin.Context) {
	var req reorderPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	level, err := h.uc.SetReorderPoint(ctx, &dto.SetReorderPointInput{
		MerchantID:   auth.GetMerchantID(ctx),
		LocationID:   req.LocationID,
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		ReorderPoint: req.ReorderPoint,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "set reorder point")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock": level})
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	filters := &dto.MovementFilters{
		MerchantID:    auth.GetMerchantID(ctx),
		ProductID:     c.Query("product_id"),
		VariantID:     c.Query("variant_id"),
		LocationID:    c.Query("location_id"),
		MovementType:  c.Query("movement_type"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Page:          page,
		PageSize:      size,
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		filters.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		filters.EndDate = &t
	}

	movements, total, err := h.uc.ListMovements(ctx, filters)
	if err != nil {
		response.Fail(c, h.logger, err, "list movements")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"movements": movements, "meta": response.Meta(page, size, total)})
}
