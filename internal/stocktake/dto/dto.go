package dto

type StockTakeFilters struct {
	MerchantID string
	Status     string
	LocationID string
	Page       int
	PageSize   int
}

type CreateStockTakeInput struct {
	MerchantID string
	UserID     string
	LocationID string
	CategoryID *string
	Notes      string
}

type CountLine struct {
	ItemID  string
	Counted int
}

type RecordCountInput struct {
	MerchantID  string
	StockTakeID string
	Lines       []CountLine
}

type CompleteInput struct {
	MerchantID       string
	StockTakeID      string
	UserID           string
	ApplyAdjustments bool
}
