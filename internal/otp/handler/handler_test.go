package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/otp/usecase"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubUseCase struct {
	err       error
	gotEmail  string
	gotCode   string
	gotType   model.OTPType
	gotNewPwd string
}

func (s *stubUseCase) SendOTP(_ context.Context, email string, kind model.OTPType) error {
	s.gotEmail, s.gotType = email, kind
	return s.err
}

func (s *stubUseCase) VerifyOTP(_ context.Context, email, code string, kind model.OTPType) error {
	s.gotEmail, s.gotCode, s.gotType = email, code, kind
	return s.err
}

func (s *stubUseCase) ResetPassword(_ context.Context, email, code, newPassword string) error {
	s.gotEmail, s.gotCode, s.gotNewPwd = email, code, newPassword
	return s.err
}

func serve(uc *stubUseCase, path, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewOTPHandler(uc, logger.NewNop()).RegisterRoutes(r.Group("/api/auth/otp"))

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSend(t *testing.T) {
	uc := &stubUseCase{}
	w := serve(uc, "/api/auth/otp/send", `{"email":"jane@example.com","type":"password_reset"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Equal(t, "jane@example.com", uc.gotEmail)
	assert.Equal(t, model.OTPPasswordReset, uc.gotType)
}

func TestSend_InvalidEmail(t *testing.T) {
	w := serve(&stubUseCase{}, "/api/auth/otp/send", `{"email":"not-an-email","type":"password_reset"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSend_RateLimited(t *testing.T) {
	w := serve(&stubUseCase{err: usecase.ErrTooManyRequests}, "/api/auth/otp/send", `{"email":"jane@example.com","type":"email_verification"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestVerify(t *testing.T) {
	uc := &stubUseCase{}
	w := serve(uc, "/api/auth/otp/verify", `{"email":"jane@example.com","otp":"AB12CD","type":"email_verification"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AB12CD", uc.gotCode)

	w = serve(&stubUseCase{err: usecase.ErrExpiredOTP}, "/api/auth/otp/verify", `{"email":"jane@example.com","otp":"AB12CD","type":"email_verification"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"OTP has expired"}`, w.Body.String())
}

func TestResetPassword(t *testing.T) {
	uc := &stubUseCase{}
	w := serve(uc, "/api/auth/otp/reset-password", `{"email":"jane@example.com","otp":"AB12CD","newPassword":"correct horse"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "correct horse", uc.gotNewPwd)

	w = serve(uc, "/api/auth/otp/reset-password", `{"email":"jane@example.com","otp":"AB12CD"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
