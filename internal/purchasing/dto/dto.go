package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrderFilters struct {
	MerchantID string
	Status     string
	SupplierID string
	Page       int
	PageSize   int
}

type PurchaseOrderItemInput struct {
	ProductID string
	VariantID *string
	Quantity  int
	UnitCost  decimal.Decimal
}

type CreatePurchaseOrderInput struct {
	MerchantID   string
	UserID       string
	SupplierID   string
	LocationID   string
	ExpectedDate *time.Time
	Notes        string
	Items        []PurchaseOrderItemInput
}

type ReceiveLine struct {
	ItemID   string
	Quantity int
}

type ReceiveInput struct {
	MerchantID      string
	PurchaseOrderID string
	UserID          string
	Lines           []ReceiveLine
}
