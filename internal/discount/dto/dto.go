package dto

import (
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

type DiscountFilters struct {
	MerchantID string
	IsActive   *bool
	Page       int
	PageSize   int
}

type ValidateInput struct {
	MerchantID string
	Code       string
	Subtotal   decimal.Decimal
	CustomerID *string
	ProductIDs []string
}

// ValidationResult is either valid with an amount, or invalid with a reason.
type ValidationResult struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Discount       *model.Discount `json:"discount,omitempty"`
	Error          string          `json:"error,omitempty"`

	// Reason carries the localisation ID for Error.
	Reason *apperror.Error `json:"-"`
}
