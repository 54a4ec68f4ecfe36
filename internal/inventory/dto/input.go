package dto

type AdjustInventoryInput struct {
	MerchantID     string
	LocationID     string
	ProductID      string
	VariantID      *string
	QuantityChange int
	Reason         string
	UserID         string
}

type SetReorderPointInput struct {
	MerchantID   string
	LocationID   string
	ProductID    string
	VariantID    *string
	ReorderPoint int
}
