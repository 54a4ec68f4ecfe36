package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/fekuna/omnipos-backoffice/internal/supplier"
	"github.com/fekuna/omnipos-backoffice/internal/supplier/dto"
	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	uc     supplier.UseCase
	logger logger.ZapLogger
}

func NewSupplierHandler(uc supplier.UseCase, log logger.ZapLogger) *SupplierHandler {
	return &SupplierHandler{uc: uc, logger: log}
}

func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/suppliers")
	g.POST("", h.CreateSupplier)
	g.GET("", h.ListSuppliers)
	g.GET("/:id", h.GetSupplier)
	g.PUT("/:id", h.UpdateSupplier)
}

type supplierRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	s, err := h.uc.CreateSupplier(ctx, &dto.SupplierInput{
		MerchantID: auth.GetMerchantID(ctx),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "create supplier")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"supplier": s})
}

func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.uc.GetSupplier(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get supplier")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"supplier": s})
}

func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	suppliers, total, err := h.uc.ListSuppliers(ctx, &dto.SupplierFilters{
		MerchantID:  auth.GetMerchantID(ctx),
		SearchQuery: c.Query("q"),
		Page:        page,
		PageSize:    size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list suppliers")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"suppliers": suppliers, "meta": response.Meta(page, size, total)})
}

func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	s, err := h.uc.UpdateSupplier(ctx, &dto.SupplierInput{
		ID:         c.Param("id"),
		MerchantID: auth.GetMerchantID(ctx),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "update supplier")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"supplier": s})
}
