package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake/dto"
	"github.com/gin-gonic/gin"
)

type StockTakeHandler struct {
	uc     stocktake.UseCase
	logger logger.ZapLogger
}

func NewStockTakeHandler(uc stocktake.UseCase, log logger.ZapLogger) *StockTakeHandler {
	return &StockTakeHandler{uc: uc, logger: log}
}

func (h *StockTakeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/stock-takes")
	g.POST("", h.CreateStockTake)
	g.GET("", h.ListStockTakes)
	g.GET("/:id", h.GetStockTake)
	g.PUT("/:id/counts", h.RecordCount)
	g.POST("/:id/complete", h.CompleteStockTake)
	g.POST("/:id/cancel", h.CancelStockTake)
}

type createRequest struct {
	LocationID string  `json:"location_id"`
	CategoryID *string `json:"category_id"`
	Notes      string  `json:"notes"`
}

type countRequest struct {
	Items []struct {
		ItemID  string `json:"item_id" binding:"required"`
		Counted *int   `json:"counted_qty" binding:"required"`
	} `json:"items" binding:"required,dive"`
}

type completeRequest struct {
	ApplyAdjustments bool `json:"apply_adjustments"`
}

func (h *StockTakeHandler) CreateStockTake(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	st, err := h.uc.CreateStockTake(ctx, &dto.CreateStockTakeInput{
		MerchantID: auth.GetMerchantID(ctx),
		UserID:     auth.GetUserID(ctx),
		LocationID: req.LocationID,
		CategoryID: req.CategoryID,
		Notes:      req.Notes,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "create stock take")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"stock_take": st})
}

func (h *StockTakeHandler) GetStockTake(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.uc.GetStockTake(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get stock take")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock_take": st})
}

func (h *StockTakeHandler) ListStockTakes(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	takes, total, err := h.uc.ListStockTakes(ctx, &dto.StockTakeFilters{
		MerchantID: auth.GetMerchantID(ctx),
		Status:     c.Query("status"),
		LocationID: c.Query("location_id"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list stock takes")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock_takes": takes, "meta": response.Meta(page, size, total)})
}

func (h *StockTakeHandler) RecordCount(c *gin.Context) {
	var req countRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	input := &dto.RecordCountInput{MerchantID: auth.GetMerchantID(ctx), StockTakeID: c.Param("id")}
	for _, it := range req.Items {
		input.Lines = append(input.Lines, dto.CountLine{ItemID: it.ItemID, Counted: *it.Counted})
	}

	st, err := h.uc.RecordCount(ctx, input)
	if err != nil {
		response.Fail(c, h.logger, err, "record stock count")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock_take": st})
}

func (h *StockTakeHandler) CompleteStockTake(c *gin.Context) {
	var req completeRequest
	// empty body means no adjustments
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	st, err := h.uc.CompleteStockTake(ctx, &dto.CompleteInput{
		MerchantID:       auth.GetMerchantID(ctx),
		StockTakeID:      c.Param("id"),
		UserID:           auth.GetUserID(ctx),
		ApplyAdjustments: req.ApplyAdjustments,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "complete stock take")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock_take": st})
}

func (h *StockTakeHandler) CancelStockTake(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.uc.CancelStockTake(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "cancel stock take")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"stock_take": st})
}
