package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	MerchantID     string
	CategoryID     string
	SKU            string
	Barcode        string
	Name           string
	Description    string
	BasePrice      decimal.Decimal
	CostPrice      decimal.NullDecimal
	TaxRate        decimal.Decimal
	HasVariants    bool
	TrackInventory bool
	ImageURL       string
}

type UpdateProductInput struct {
	ID             string
	MerchantID     string
	CategoryID     string
	SKU            string
	Barcode        string
	Name           string
	Description    string
	BasePrice      decimal.Decimal
	CostPrice      decimal.NullDecimal
	TaxRate        decimal.Decimal
	TrackInventory bool
	ImageURL       string
	IsActive       bool
}

type CreateVariantInput struct {
	MerchantID      string
	ProductID       string
	SKU             string
	Barcode         string
	VariantName     string
	PriceAdjustment decimal.Decimal
	CostPrice       decimal.NullDecimal
}

type UpdateVariantInput struct {
	ID              string
	MerchantID      string
	ProductID       string
	SKU             string
	Barcode         string
	VariantName     string
	PriceAdjustment decimal.Decimal
	CostPrice       decimal.NullDecimal
	IsActive        bool
}
