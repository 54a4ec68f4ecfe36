package model

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

type Order struct {
	BaseModel
	MerchantID  string          `db:"merchant_id" json:"merchant_id"`
	OrderNumber string          `db:"order_number" json:"order_number"`
	CustomerID  *string         `db:"customer_id" json:"customer_id"`
	DiscountID  *string         `db:"discount_id" json:"discount_id"`
	LocationID  string          `db:"location_id" json:"location_id"`
	Status      OrderStatus     `db:"status" json:"status"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax         decimal.Decimal `db:"tax" json:"tax"`
	Discount    decimal.Decimal `db:"discount" json:"discount"`
	Total       decimal.Decimal `db:"total" json:"total"`
	Cost        decimal.Decimal `db:"cost" json:"cost"`
	Notes       string          `db:"notes" json:"notes"`
	CreatedBy   *string         `db:"created_by" json:"created_by"`
	Items       []OrderItem     `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	ID         string          `db:"id" json:"id"`
	MerchantID string          `db:"merchant_id" json:"merchant_id"`
	OrderID    string          `db:"order_id" json:"order_id"`
	ProductID  string          `db:"product_id" json:"product_id"`
	VariantID  *string         `db:"variant_id" json:"variant_id"`
	Name       string          `db:"name" json:"name"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	UnitCost   decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	TaxRate    decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	LineTotal  decimal.Decimal `db:"line_total" json:"line_total"`
}

// FindItem returns the line with the given ID.
func (o *Order) FindItem(id string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}
