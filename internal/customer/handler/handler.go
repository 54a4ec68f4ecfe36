package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/customer"
	"github.com/fekuna/omnipos-backoffice/internal/customer/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	uc     customer.UseCase
	logger logger.ZapLogger
}

func NewCustomerHandler(uc customer.UseCase, log logger.ZapLogger) *CustomerHandler {
	return &CustomerHandler{uc: uc, logger: log}
}

func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/customers")
	g.POST("", h.CreateCustomer)
	g.GET("", h.ListCustomers)
	g.GET("/:id", h.GetCustomer)
	g.PUT("/:id", h.UpdateCustomer)
}

type customerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	cust, err := h.uc.CreateCustomer(ctx, &dto.CreateCustomerInput{
		MerchantID: auth.GetMerchantID(ctx),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "create customer")
		return
	}

	response.OK(c, http.StatusCreated, gin.H{"customer": cust})
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	cust, err := h.uc.GetCustomer(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		response.Fail(c, h.logger, err, "get customer")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"customer": cust})
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	ctx := c.Request.Context()
	page, size := response.Page(c)

	customers, total, err := h.uc.ListCustomers(ctx, &dto.CustomerFilters{
		MerchantID:  auth.GetMerchantID(ctx),
		SearchQuery: c.Query("q"),
		Page:        page,
		PageSize:    size,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "list customers")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"customers": customers, "meta": response.Meta(page, size, total)})
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	cust, err := h.uc.UpdateCustomer(ctx, &dto.UpdateCustomerInput{
		ID:         c.Param("id"),
		MerchantID: auth.GetMerchantID(ctx),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		response.Fail(c, h.logger, err, "update customer")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"customer": cust})
}
