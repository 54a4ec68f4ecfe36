package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-backoffice/internal/discount"
	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/discount/usecase"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	discount.UseCase
	gotValidate *dto.ValidateInput
	result      *dto.ValidationResult
}

func (s *stubUseCase) ValidateDiscount(_ context.Context, input *dto.ValidateInput) (*dto.ValidationResult, error) {
	s.gotValidate = input
	return s.result, nil
}

func (s *stubUseCase) GetDiscount(context.Context, string, string) (*model.Discount, error) {
	return nil, usecase.ErrDiscountNotFound
}

func newRouter(uc discount.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewDiscountHandler(uc, logger.NewNop()).RegisterRoutes(r.Group("/api/v1", middleware.MerchantContext()))
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-ID", "m-1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateDiscount_Valid(t *testing.T) {
	uc := &stubUseCase{result: &dto.ValidationResult{
		Valid:          true,
		DiscountAmount: decimal.RequireFromString("25"),
		Discount:       &model.Discount{Code: "SAVE10"},
	}}
	w := do(newRouter(uc), http.MethodPost, "/api/v1/discounts/validate",
		`{"code":"SAVE10","subtotal":"250.00","customer_id":"c-1","product_ids":["p-1"]}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "25", body["discountAmount"])

	assert.Equal(t, "m-1", uc.gotValidate.MerchantID)
	assert.True(t, decimal.RequireFromString("250").Equal(uc.gotValidate.Subtotal))
	assert.Equal(t, "c-1", *uc.gotValidate.CustomerID)
	assert.Equal(t, []string{"p-1"}, uc.gotValidate.ProductIDs)
}

func TestValidateDiscount_InvalidIsOKWithReason(t *testing.T) {
	uc := &stubUseCase{result: &dto.ValidationResult{Valid: false, Reason: usecase.ErrCodeNotFound, Error: usecase.ErrCodeNotFound.Message}}
	r := newRouter(uc)

	w := do(r, http.MethodPost, "/api/v1/discounts/validate", `{"code":"NOPE","subtotal":"10"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"error":"Discount code not found"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/discounts/validate", `{"code":"NOPE","subtotal":"10"}`, map[string]string{"Accept-Language": "id"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"error":"Kode diskon tidak ditemukan"}`, w.Body.String())
}

func TestValidateDiscount_BadRequest(t *testing.T) {
	w := do(newRouter(&stubUseCase{}), http.MethodPost, "/api/v1/discounts/validate", `{"subtotal":"10"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDiscount_NotFound(t *testing.T) {
	w := do(newRouter(&stubUseCase{}), http.MethodGet, "/api/v1/discounts/d-404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Discount not found"}`, w.Body.String())
}

func TestMissingMerchant(t *testing.T) {
	r := newRouter(&stubUseCase{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/discounts/d-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
