package dto

import (
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID string
	VariantID *string
	Quantity  int
	UnitPrice decimal.NullDecimal // overrides the catalog price when set
}

type CreateOrderInput struct {
	MerchantID   string
	UserID       string
	CustomerID   *string
	LocationID   string
	DiscountCode string
	Notes        string
	Completed    bool // direct POS sale
	Items        []OrderItemInput
}

type UpdateStatusInput struct {
	MerchantID string
	OrderID    string
	Status     model.OrderStatus
	UserID     string
}
