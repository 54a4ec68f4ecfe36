package model

import "time"

type StockTakeStatus string

const (
	StockTakeInProgress StockTakeStatus = "in_progress"
	StockTakeCompleted  StockTakeStatus = "completed"
	StockTakeCancelled  StockTakeStatus = "cancelled"
)

type StockTake struct {
	BaseModel
	MerchantID  string          `db:"merchant_id" json:"merchant_id"`
	LocationID  string          `db:"location_id" json:"location_id"`
	CategoryID  *string         `db:"category_id" json:"category_id"`
	Status      StockTakeStatus `db:"status" json:"status"`
	Notes       string          `db:"notes" json:"notes"`
	CreatedBy   *string         `db:"created_by" json:"created_by"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at"`
	Items       []StockTakeItem `db:"-" json:"items,omitempty"`
}

type StockTakeItem struct {
	ID          string  `db:"id" json:"id"`
	MerchantID  string  `db:"merchant_id" json:"merchant_id"`
	StockTakeID string  `db:"stock_take_id" json:"stock_take_id"`
	ProductID   string  `db:"product_id" json:"product_id"`
	VariantID   *string `db:"variant_id" json:"variant_id"`
	Name        string  `db:"name" json:"name"`
	ExpectedQty int     `db:"expected_qty" json:"expected_qty"`
	CountedQty  *int    `db:"counted_qty" json:"counted_qty"`
	Variance    *int    `db:"variance" json:"variance"`
}

func (st *StockTake) FindItem(id string) *StockTakeItem {
	for i := range st.Items {
		if st.Items[i].ID == id {
			return &st.Items[i]
		}
	}
	return nil
}
