package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	PODraft     PurchaseOrderStatus = "draft"
	POSent      PurchaseOrderStatus = "sent"
	POPartial   PurchaseOrderStatus = "partial"
	POReceived  PurchaseOrderStatus = "received"
	POCancelled PurchaseOrderStatus = "cancelled"
)

type PurchaseOrder struct {
	BaseModel
	MerchantID   string              `db:"merchant_id" json:"merchant_id"`
	PONumber     string              `db:"po_number" json:"po_number"`
	SupplierID   string              `db:"supplier_id" json:"supplier_id"`
	LocationID   string              `db:"location_id" json:"location_id"`
	Status       PurchaseOrderStatus `db:"status" json:"status"`
	ExpectedDate *time.Time          `db:"expected_date" json:"expected_date"`
	Notes        string              `db:"notes" json:"notes"`
	TotalCost    decimal.Decimal     `db:"total_cost" json:"total_cost"`
	CreatedBy    *string             `db:"created_by" json:"created_by"`
	Items        []PurchaseOrderItem `db:"-" json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID              string          `db:"id" json:"id"`
	MerchantID      string          `db:"merchant_id" json:"merchant_id"`
	PurchaseOrderID string          `db:"purchase_order_id" json:"purchase_order_id"`
	ProductID       string          `db:"product_id" json:"product_id"`
	VariantID       *string         `db:"variant_id" json:"variant_id"`
	Quantity        int             `db:"quantity" json:"quantity"`
	ReceivedQty     int             `db:"received_qty" json:"received_qty"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unit_cost"`
}

func (po *PurchaseOrder) FindItem(id string) *PurchaseOrderItem {
	for i := range po.Items {
		if po.Items[i].ID == id {
			return &po.Items[i]
		}
	}
	return nil
}
