package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/fekuna/omnipos-backoffice/internal/product"
	"github.com/fekuna/omnipos-backoffice/internal/product/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/products")
	g.POST("", h.CreateProduct)
	g.GET("", h.ListProducts)
	g.GET("/:id", h.GetProduct)
	g.PUT("/:id", h.UpdateProduct)
	g.DELETE("/:id", h.DeleteProduct)

	g.POST("/:id/variants", h.AddVariant)
	g.GET("/:id/variants", h.ListVariants)
	g.PUT("/:id/variants/:variantId", h.UpdateVariant)
}

type productRequest struct {
	CategoryID     string              `json:"category_id"`
	SKU            string              `json:"sku" binding:"required"`
	Barcode        string              `json:"barcode"`
	Name           string              `json:"name" binding:"required"`
	Description    string              `json:"description"`
	BasePrice      decimal.Decimal     `json:"base_price"`
	CostPrice      decimal.NullDecimal `json:"cost_price"`
	TaxRate        decimal.Decimal     `json:"tax_rate"`
	HasVariants    bool                `json:"has_variants"`
	TrackInventory *bool               `json:"track_inventory"`
	ImageURL       string              `json:"image_url"`
	IsActive       *bool               `json:"is_active"`
}

type variantRequest struct {
	SKU             string              `json:"sku" binding:"required"`
	Barcode         string              `json:"barcode"`
	VariantName     string              `json:"variant_name" binding:"required"`
	PriceAdjustment decimal.Decimal     `json:"price_adjustment"`
	CostPrice       decimal.NullDecimal `json:"cost_price"`
	IsActive        *bool               `json:"is_active"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	p, err := h.uc.CreateProduct(ctx, &dto.CreateProductInput{
		MerchantID:     auth.GetMerchantID(ctx),
		CategoryID:     req.CategoryID,
		SKU:            req.SKU,
		Barcode:        req.Barcode,
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		CostPrice:      req.CostPrice,
		TaxRate:        req.TaxRate,
		HasVariants:    req.HasVariants,
		TrackInventory: boolOr(req.TrackInventory, true),
		ImageURL:       req.ImageURL,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "create product")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"product": p})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.uc.GetProduct(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get product")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"product": p})
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	filters := &dto.ProductFilters{
		MerchantID:  auth.GetMerchantID(ctx),
		CategoryID:  c.Query("category_id"),
		SearchQuery: c.Query("q"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        page,
		PageSize:    size,
	}
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		filters.IsActive = &b
	}

	products, total, err := h.uc.ListProducts(ctx, filters)
	if err != nil {
		response.Fail(c, h.logger, err, "list products")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"products": products, "meta": response.Meta(page, size, total)})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	p, err := h.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:             c.Param("id"),
		MerchantID:     auth.GetMerchantID(ctx),
		CategoryID:     req.CategoryID,
		SKU:            req.SKU,
		Barcode:        req.Barcode,
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		CostPrice:      req.CostPrice,
		TaxRate:        req.TaxRate,
		TrackInventory: boolOr(req.TrackInventory, true),
		ImageURL:       req.ImageURL,
		IsActive:       boolOr(req.IsActive, true),
	})
	if err != nil {
		response.Fail(c, h.logger, err, "update product")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"product": p})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.uc.DeleteProduct(ctx, auth.GetMerchantID(ctx), c.Param("id")); err != nil {
		response.Fail(c, h.logger, err, "delete product")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "Product deleted"})
}

// --- Variants ---

func (h *ProductHandler) AddVariant(c *gin.Context) {
	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	v, err := h.uc.AddVariant(ctx, &dto.CreateVariantInput{
		MerchantID:      auth.GetMerchantID(ctx),
		ProductID:       c.Param("id"),
		SKU:             req.SKU,
		Barcode:         req.Barcode,
		VariantName:     req.VariantName,
		PriceAdjustment: req.PriceAdjustment,
		CostPrice:       req.CostPrice,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "add variant")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"variant": v})
}

func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	v, err := h.uc.UpdateVariant(ctx, &dto.UpdateVariantInput{
		ID:              c.Param("variantId"),
		MerchantID:      auth.GetMerchantID(ctx),
		ProductID:       c.Param("id"),
		SKU:             req.SKU,
		Barcode:         req.Barcode,
		VariantName:     req.VariantName,
		PriceAdjustment: req.PriceAdjustment,
		CostPrice:       req.CostPrice,
		IsActive:        boolOr(req.IsActive, true),
	})
	if err != nil {
		response.Fail(c, h.logger, err, "update variant")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"variant": v})
}

func (h *ProductHandler) ListVariants(c *gin.Context) {
	ctx := c.Request.Context()
	variants, err := h.uc.ListVariants(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "list variants")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"variants": variants})
}
