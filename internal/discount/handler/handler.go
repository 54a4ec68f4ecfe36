package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/discount"
	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DiscountHandler struct {
	uc     discount.UseCase
	logger logger.ZapLogger
}

func NewDiscountHandler(uc discount.UseCase, log logger.ZapLogger) *DiscountHandler {
	return &DiscountHandler{uc: uc, logger: log}
}

func (h *DiscountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/discounts")
	g.POST("", h.CreateDiscount)
	g.GET("", h.ListDiscounts)
	g.POST("/validate", h.ValidateDiscount)
	g.GET("/:id", h.GetDiscount)
	g.PUT("/:id", h.UpdateDiscount)
	g.DELETE("/:id", h.DeleteDiscount)
	g.POST("/:id/usage", h.RecordUsage)
}

type discountRequest struct {
	Code             string              `json:"code" binding:"required"`
	Description      string              `json:"description"`
	Type             model.DiscountType  `json:"type" binding:"required"`
	Value            decimal.Decimal     `json:"value"`
	MinOrderAmount   decimal.NullDecimal `json:"min_order_amount"`
	MaxDiscount      decimal.NullDecimal `json:"max_discount"`
	UsageLimit       *int                `json:"usage_limit"`
	PerCustomerLimit *int                `json:"per_customer_limit"`
	StartsAt         *time.Time          `json:"starts_at"`
	EndsAt           *time.Time          `json:"ends_at"`
	IsActive         *bool               `json:"is_active"`
	AppliesTo        []string            `json:"applies_to"`
}

func (r *discountRequest) input(merchantID, id string) *dto.DiscountInput {
	return &dto.DiscountInput{
		ID:               id,
		MerchantID:       merchantID,
		Code:             r.Code,
		Description:      r.Description,
		Type:             r.Type,
		Value:            r.Value,
		MinOrderAmount:   r.MinOrderAmount,
		MaxDiscount:      r.MaxDiscount,
		UsageLimit:       r.UsageLimit,
		PerCustomerLimit: r.PerCustomerLimit,
		StartsAt:         r.StartsAt,
		EndsAt:           r.EndsAt,
		IsActive:         r.IsActive,
		AppliesTo:        r.AppliesTo,
	}
}

type validateRequest struct {
	Code       string          `json:"code" binding:"required"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CustomerID *string         `json:"customer_id"`
	ProductIDs []string        `json:"product_ids"`
}

type usageRequest struct {
	OrderID    string  `json:"order_id" binding:"required"`
	CustomerID *string `json:"customer_id"`
}

func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	d, err := h.uc.CreateDiscount(ctx, req.input(auth.GetMerchantID(ctx), ""))
	if err != nil {
		response.Fail(c, h.logger, err, "create discount")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"discount": d})
}

func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	d, err := h.uc.UpdateDiscount(ctx, req.input(auth.GetMerchantID(ctx), c.Param("id")))
	if err != nil {
		response.Fail(c, h.logger, err, "update discount")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"discount": d})
}

func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := h.uc.GetDiscount(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get discount")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"discount": d})
}

func (h *DiscountHandler) ListDiscounts(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	filters := &dto.DiscountFilters{MerchantID: auth.GetMerchantID(ctx), Page: page, PageSize: size}
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		filters.IsActive = &b
	}

	discounts, total, err := h.uc.ListDiscounts(ctx, filters)
	if err != nil {
		response.Fail(c, h.logger, err, "list discounts")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"discounts": discounts, "meta": response.Meta(page, size, total)})
}

func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.uc.DeleteDiscount(ctx, auth.GetMerchantID(ctx), c.Param("id")); err != nil {
		response.Fail(c, h.logger, err, "delete discount")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "Discount deleted"})
}

// ValidateDiscount handles POST /discounts/validate. Rejections are a 200 with valid=false.
func (h *DiscountHandler) ValidateDiscount(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.uc.ValidateDiscount(ctx, &dto.ValidateInput{
		MerchantID: auth.GetMerchantID(ctx),
		Code:       req.Code,
		Subtotal:   req.Subtotal,
		CustomerID: req.CustomerID,
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "validate discount")
		return
	}

	if !result.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": response.Message(c, result.Reason)})
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"valid":          true,
		"discountAmount": result.DiscountAmount,
		"discount":       result.Discount,
	})
}

func (h *DiscountHandler) RecordUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	err := h.uc.RecordUsage(ctx, &dto.RecordUsageInput{
		MerchantID: auth.GetMerchantID(ctx),
		DiscountID: c.Param("id"),
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "record discount usage")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "Usage recorded"})
}
