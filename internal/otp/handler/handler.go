package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/otp"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type OTPHandler struct {
	uc     otp.UseCase
	logger logger.ZapLogger
}

func NewOTPHandler(uc otp.UseCase, log logger.ZapLogger) *OTPHandler {
	return &OTPHandler{uc: uc, logger: log}
}

// RegisterRoutes mounts the handlers on rg, normally /api/auth/otp.
func (h *OTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/send", h.Send)
	rg.POST("/verify", h.Verify)
	rg.POST("/reset-password", h.ResetPassword)
}

type sendRequest struct {
	Email string        `json:"email" binding:"required,email"`
	Type  model.OTPType `json:"type" binding:"required"`
}

type verifyRequest struct {
	Email string        `json:"email" binding:"required,email"`
	OTP   string        `json:"otp" binding:"required"`
	Type  model.OTPType `json:"type" binding:"required"`
}

type resetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *OTPHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	if err := h.uc.SendOTP(c.Request.Context(), req.Email, req.Type); err != nil {
		response.Fail(c, h.logger, err, "send otp")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "If the account exists, a code has been sent"})
}

func (h *OTPHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	if err := h.uc.VerifyOTP(c.Request.Context(), req.Email, req.OTP, req.Type); err != nil {
		response.Fail(c, h.logger, err, "verify otp")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "OTP verified"})
}

func (h *OTPHandler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	if err := h.uc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		response.Fail(c, h.logger, err, "reset password")
		return
	}

	response.OK(c, http.StatusOK, gin.H{"message": "Password updated"})
}
