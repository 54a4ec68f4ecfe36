package product

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	// FindByID loads the product with its variants; nil when absent.
	FindByID(ctx context.Context, merchantID, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, merchantID, id string) error

	// Check SKU/Barcode uniqueness
	IsSKUUnique(ctx context.Context, merchantID, sku, excludeID string) (bool, error)
	IsBarcodeUnique(ctx context.Context, merchantID, barcode, excludeID string) (bool, error)

	// Variants
	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	UpdateVariant(ctx context.Context, variant *model.ProductVariant) error
	FindVariants(ctx context.Context, merchantID, productID string) ([]model.ProductVariant, error)

	// FindActiveWithVariants returns active products, each with its active variants.
	FindActiveWithVariants(ctx context.Context, merchantID string, categoryID *string) ([]model.Product, error)
}
