package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/category"
	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/categories")
	g.POST("", h.CreateCategory)
	g.GET("", h.ListCategories)
	g.GET("/:id", h.GetCategory)
	g.PUT("/:id", h.UpdateCategory)
	g.DELETE("/:id", h.DeleteCategory)
}

type categoryRequest struct {
	ParentID    *string `json:"parent_id"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	cat, err := h.uc.CreateCategory(ctx, &dto.CreateCategoryInput{
		MerchantID:  auth.GetMerchantID(ctx),
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "create category")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"category": cat})
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	ctx := c.Request.Context()
	cat, err := h.uc.GetCategory(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get category")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"category": cat})
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	filters := &dto.CategoryFilters{
		MerchantID:      auth.GetMerchantID(ctx),
		IncludeChildren: c.Query("include_children") == "true",
		Page:            page,
		PageSize:        size,
	}
	if parent, ok := c.GetQuery("parent_id"); ok {
		filters.ParentID = &parent
	}
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		filters.IsActive = &b
	}

	cats, total, err := h.uc.ListCategories(ctx, filters)
	if err != nil {
		response.Fail(c, h.logger, err, "list categories")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"categories": cats, "meta": response.Meta(page, size, total)})
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	ctx := c.Request.Context()
	cat, err := h.uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{
		ID:          c.Param("id"),
		MerchantID:  auth.GetMerchantID(ctx),
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
		IsActive:    isActive,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "update category")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"category": cat})
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.uc.DeleteCategory(ctx, auth.GetMerchantID(ctx), c.Param("id")); err != nil {
		response.Fail(c, h.logger, err, "delete category")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "Category deleted"})
}
