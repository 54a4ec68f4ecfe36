package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	MerchantID     string              `db:"merchant_id" json:"merchant_id"`
	CategoryID     *string             `db:"category_id" json:"category_id"`
	SKU            string              `db:"sku" json:"sku"`
	Barcode        *string             `db:"barcode" json:"barcode"`
	Name           string              `db:"name" json:"name"`
	Description    *string             `db:"description" json:"description"`
	BasePrice      decimal.Decimal     `db:"base_price" json:"base_price"`
	CostPrice      decimal.NullDecimal `db:"cost_price" json:"cost_price"`
	TaxRate        decimal.Decimal     `db:"tax_rate" json:"tax_rate"`
	HasVariants    bool                `db:"has_variants" json:"has_variants"`
	TrackInventory bool                `db:"track_inventory" json:"track_inventory"`
	ImageURL       *string             `db:"image_url" json:"image_url"`
	IsActive       bool                `db:"is_active" json:"is_active"`
	Variants       []ProductVariant    `db:"-" json:"variants,omitempty"`
}

type ProductVariant struct {
	BaseModel
	MerchantID      string              `db:"merchant_id" json:"merchant_id"`
	ProductID       string              `db:"product_id" json:"product_id"`
	SKU             string              `db:"sku" json:"sku"`
	Barcode         *string             `db:"barcode" json:"barcode"`
	VariantName     string              `db:"variant_name" json:"variant_name"`
	PriceAdjustment decimal.Decimal     `db:"price_adjustment" json:"price_adjustment"`
	CostPrice       decimal.NullDecimal `db:"cost_price" json:"cost_price"`
	IsActive        bool                `db:"is_active" json:"is_active"`
}

// UnitPrice is the selling price of the product, or of the variant when one is given.
func (p *Product) UnitPrice(v *ProductVariant) decimal.Decimal {
	if v == nil {
		return p.BasePrice
	}
	return p.BasePrice.Add(v.PriceAdjustment)
}

// UnitCost prefers the variant's cost, then the product's, then zero.
func (p *Product) UnitCost(v *ProductVariant) decimal.Decimal {
	if v != nil && v.CostPrice.Valid {
		return v.CostPrice.Decimal
	}
	if p.CostPrice.Valid {
		return p.CostPrice.Decimal
	}
	return decimal.Zero
}

// FindVariant returns the loaded variant with the given ID.
func (p *Product) FindVariant(id string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}
