package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/fekuna/omnipos-backoffice/internal/returns"
	"github.com/fekuna/omnipos-backoffice/internal/returns/dto"
	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	uc     returns.UseCase
	logger logger.ZapLogger
}

func NewReturnHandler(uc returns.UseCase, log logger.ZapLogger) *ReturnHandler {
	return &ReturnHandler{uc: uc, logger: log}
}

func (h *ReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/returns")
	g.POST("", h.CreateReturn)
	g.GET("", h.ListReturns)
	g.GET("/:id", h.GetReturn)
	g.POST("/:id/approve", h.ApproveReturn)
	g.POST("/:id/reject", h.RejectReturn)
}

type createReturnRequest struct {
	OrderID      string             `json:"order_id" binding:"required"`
	Reason       model.ReturnReason `json:"reason" binding:"required"`
	RefundMethod model.RefundMethod `json:"refund_method" binding:"required"`
	Notes        string             `json:"notes"`
	Items        []struct {
		OrderItemID string `json:"order_item_id" binding:"required"`
		Quantity    int    `json:"quantity" binding:"required"`
		Restock     *bool  `json:"restock"`
	} `json:"items" binding:"required,dive"`
}

func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req createReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	input := &dto.CreateReturnInput{
		MerchantID:   auth.GetMerchantID(ctx),
		UserID:       auth.GetUserID(ctx),
		OrderID:      req.OrderID,
		Reason:       req.Reason,
		RefundMethod: req.RefundMethod,
		Notes:        req.Notes,
	}
	for _, it := range req.Items {
		input.Lines = append(input.Lines, dto.ReturnLineInput{
			OrderItemID: it.OrderItemID,
			Quantity:    it.Quantity,
			Restock:     it.Restock,
		})
	}

	ret, err := h.uc.CreateReturn(ctx, input)
	if err != nil {
		response.Fail(c, h.logger, err, "create return")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"return": ret})
}

func (h *ReturnHandler) GetReturn(c *gin.Context) {
	ctx := c.Request.Context()
	ret, err := h.uc.GetReturn(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get return")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"return": ret})
}

func (h *ReturnHandler) ListReturns(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	out, total, err := h.uc.ListReturns(ctx, &dto.ReturnFilters{
		MerchantID: auth.GetMerchantID(ctx),
		Status:     c.Query("status"),
		OrderID:    c.Query("order_id"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list returns")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"returns": out, "meta": response.Meta(page, size, total)})
}

func (h *ReturnHandler) ApproveReturn(c *gin.Context) {
	ctx := c.Request.Context()
	ret, err := h.uc.ApproveReturn(ctx, auth.GetMerchantID(ctx), c.Param("id"), auth.GetUserID(ctx))
	if err != nil {
		response.Fail(c, h.logger, err, "approve return")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"return": ret})
}

func (h *ReturnHandler) RejectReturn(c *gin.Context) {
	ctx := c.Request.Context()
	ret, err := h.uc.RejectReturn(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "reject return")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"return": ret})
}
