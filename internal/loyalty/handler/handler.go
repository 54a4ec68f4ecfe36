package handler

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/loyalty"
	"github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type LoyaltyHandler struct {
	uc     loyalty.UseCase
	logger logger.ZapLogger
}

func NewLoyaltyHandler(uc loyalty.UseCase, log logger.ZapLogger) *LoyaltyHandler {
	return &LoyaltyHandler{uc: uc, logger: log}
}

func (h *LoyaltyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/customers/:id/loyalty")
	g.GET("", h.GetBalance)
	g.GET("/transactions", h.ListTransactions)
	g.POST("/award", h.post(h.uc.AwardPoints, "award points"))
	g.POST("/redeem", h.post(h.uc.RedeemPoints, "redeem points"))
	g.POST("/adjust", h.post(h.uc.AdjustPoints, "adjust points"))
	g.POST("/expire", h.post(h.uc.ExpirePoints, "expire points"))
}

type pointsRequest struct {
	OrderID     *string `json:"order_id"`
	Points      int     `json:"points" binding:"required"`
	Description string  `json:"description"`
}

type postFunc func(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error)

func (h *LoyaltyHandler) post(fn postFunc, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		entry, err := fn(ctx, &dto.PointsInput{
			MerchantID:  auth.GetMerchantID(ctx),
			CustomerID:  c.Param("id"),
			OrderID:     req.OrderID,
			Points:      req.Points,
			Description: req.Description,
		})
		if err != nil {
			response.Fail(c, h.logger, err, action)
			return
		}

		response.OK(c, http.StatusOK, gin.H{"transaction": entry.Transaction, "balance": entry.Balance})
	}
}

func (h *LoyaltyHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()
	balance, err := h.uc.GetBalance(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get loyalty balance")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"customer_id": c.Param("id"), "balance": balance})
}

func (h *LoyaltyHandler) ListTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	txns, total, err := h.uc.ListTransactions(ctx, &dto.TransactionFilters{
		MerchantID: auth.GetMerchantID(ctx),
		CustomerID: c.Param("id"),
		Kind:       c.Query("kind"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list loyalty transactions")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"transactions": txns, "meta": response.Meta(page, size, total)})
}
