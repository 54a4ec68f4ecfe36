package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementSale        MovementType = "sale"
	MovementPurchase    MovementType = "purchase"
	MovementAdjustment  MovementType = "adjustment"
	MovementReturnStock MovementType = "return_stock"
	MovementRefund      MovementType = "refund"
)

type ReferenceType string

const (
	ReferenceOrder         ReferenceType = "order"
	ReferencePurchaseOrder ReferenceType = "purchase_order"
	ReferenceStockTake     ReferenceType = "stock_take"
	ReferenceReturn        ReferenceType = "return"
	ReferenceManual        ReferenceType = "manual"
)

// InventoryItem identifies a stock position. Its quantity is never stored;
// it is the sum of its movements.
type InventoryItem struct {
	ID           string    `db:"id" json:"id"`
	MerchantID   string    `db:"merchant_id" json:"merchant_id"`
	ProductID    string    `db:"product_id" json:"product_id"`
	VariantID    *string   `db:"variant_id" json:"variant_id"`
	LocationID   string    `db:"location_id" json:"location_id"`
	ReorderPoint int       `db:"reorder_point" json:"reorder_point"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StockLevel is an inventory item with its derived quantity.
type StockLevel struct {
	InventoryItem
	Quantity int `db:"quantity" json:"quantity"`
}

type InventoryMovement struct {
	ID              string              `db:"id" json:"id"`
	MerchantID      string              `db:"merchant_id" json:"merchant_id"`
	InventoryItemID string              `db:"inventory_item_id" json:"inventory_item_id"`
	ProductID       string              `db:"product_id" json:"product_id"`
	VariantID       *string             `db:"variant_id" json:"variant_id"`
	LocationID      string              `db:"location_id" json:"location_id"`
	MovementType    MovementType        `db:"movement_type" json:"movement_type"`
	Quantity        int                 `db:"quantity" json:"quantity"`
	UnitCost        decimal.NullDecimal `db:"unit_cost" json:"unit_cost"`
	ReferenceType   *ReferenceType      `db:"reference_type" json:"reference_type"`
	ReferenceID     *string             `db:"reference_id" json:"reference_id"`
	Notes           string              `db:"notes" json:"notes"`
	CreatedBy       *string             `db:"created_by" json:"created_by"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
}

// StockKey locates an inventory item.
type StockKey struct {
	ProductID  string
	VariantID  *string
	LocationID string
}
