package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/product"
	"github.com/fekuna/omnipos-backoffice/internal/product/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const listCacheTTL = 5 * time.Minute

var (
	ErrProductNotFound = apperror.NotFound("ProductNotFound", "Product not found")
	ErrVariantNotFound = apperror.NotFound("VariantNotFound", "Variant not found")
	ErrSKUExists       = apperror.Conflict("SKUExists", "SKU already exists")
	ErrBarcodeExists   = apperror.Conflict("BarcodeExists", "Barcode already exists")
	ErrInvalidPrice    = apperror.BadRequest("InvalidPrice", "Prices and tax rate must not be negative")
)

// ListCache stores serialized product listings.
type ListCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

type productUseCase struct {
	repo   product.Repository
	cache  ListCache
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, cache ListCache, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.BasePrice.IsNegative() || input.TaxRate.IsNegative() ||
		(input.CostPrice.Valid && input.CostPrice.Decimal.IsNegative()) {
		return nil, ErrInvalidPrice
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.MerchantID, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, ErrSKUExists
	}

	if input.Barcode != "" {
		unique, err := uc.repo.IsBarcodeUnique(ctx, input.MerchantID, input.Barcode, "")
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, ErrBarcodeExists
		}
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:     input.MerchantID,
		CategoryID:     optional(input.CategoryID),
		SKU:            input.SKU,
		Barcode:        optional(input.Barcode),
		Name:           input.Name,
		Description:    optional(input.Description),
		BasePrice:      input.BasePrice,
		CostPrice:      input.CostPrice,
		TaxRate:        input.TaxRate,
		HasVariants:    input.HasVariants,
		TrackInventory: input.TrackInventory,
		ImageURL:       optional(input.ImageURL),
		IsActive:       true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, input.MerchantID)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, merchantID, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		val, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			uc.logger.Warn("product cache read failed", zap.Error(err))
		} else if val != "" {
			var result cachedList
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" && uc.cache != nil {
		if data, err := json.Marshal(cachedList{Products: products, Count: count}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, listCacheTTL); err != nil {
				uc.logger.Warn("product cache write failed", zap.Error(err))
			}
		}
	}

	return products, count, nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.MerchantID, md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateProductCache(ctx context.Context, merchantID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("products:list:%s:*", merchantID)
	if err := uc.cache.DeletePattern(ctx, pattern); err != nil {
		uc.logger.Warn("product cache invalidation failed", zap.String("merchant_id", merchantID), zap.Error(err))
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if input.BasePrice.IsNegative() || input.TaxRate.IsNegative() ||
		(input.CostPrice.Valid && input.CostPrice.Decimal.IsNegative()) {
		return nil, ErrInvalidPrice
	}

	p, err := uc.GetProduct(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}

	if p.SKU != input.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, input.MerchantID, input.SKU, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, ErrSKUExists
		}
	}
	if input.Barcode != "" && (p.Barcode == nil || *p.Barcode != input.Barcode) {
		unique, err := uc.repo.IsBarcodeUnique(ctx, input.MerchantID, input.Barcode, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, ErrBarcodeExists
		}
	}

	p.SKU = input.SKU
	p.Name = input.Name
	p.Description = optional(input.Description)
	p.BasePrice = input.BasePrice
	p.CostPrice = input.CostPrice
	p.TaxRate = input.TaxRate
	p.TrackInventory = input.TrackInventory
	p.ImageURL = optional(input.ImageURL)
	p.IsActive = input.IsActive
	p.CategoryID = optional(input.CategoryID)
	p.Barcode = optional(input.Barcode)
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, p.MerchantID)
	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, merchantID, id string) error {
	p, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // already deleted
	}

	if err := uc.repo.Delete(ctx, merchantID, id); err != nil {
		return err
	}

	uc.invalidateProductCache(ctx, merchantID)
	return nil
}

func (uc *productUseCase) AddVariant(ctx context.Context, input *dto.CreateVariantInput) (*model.ProductVariant, error) {
	if input.CostPrice.Valid && input.CostPrice.Decimal.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if _, err := uc.GetProduct(ctx, input.MerchantID, input.ProductID); err != nil {
		return nil, err
	}

	now := time.Now()
	v := &model.ProductVariant{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:      input.MerchantID,
		ProductID:       input.ProductID,
		SKU:             input.SKU,
		Barcode:         optional(input.Barcode),
		VariantName:     input.VariantName,
		PriceAdjustment: input.PriceAdjustment,
		CostPrice:       input.CostPrice,
		IsActive:        true,
	}
	if err := uc.repo.CreateVariant(ctx, v); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, input.MerchantID)
	return v, nil
}

func (uc *productUseCase) UpdateVariant(ctx context.Context, input *dto.UpdateVariantInput) (*model.ProductVariant, error) {
	if input.CostPrice.Valid && input.CostPrice.Decimal.IsNegative() {
		return nil, ErrInvalidPrice
	}
	p, err := uc.GetProduct(ctx, input.MerchantID, input.ProductID)
	if err != nil {
		return nil, err
	}
	v := p.FindVariant(input.ID)
	if v == nil {
		return nil, ErrVariantNotFound
	}

	v.SKU = input.SKU
	v.Barcode = optional(input.Barcode)
	v.VariantName = input.VariantName
	v.PriceAdjustment = input.PriceAdjustment
	v.CostPrice = input.CostPrice
	v.IsActive = input.IsActive
	v.UpdatedAt = time.Now()

	if err := uc.repo.UpdateVariant(ctx, v); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, input.MerchantID)
	return v, nil
}

func (uc *productUseCase) ListVariants(ctx context.Context, merchantID, productID string) ([]model.ProductVariant, error) {
	if _, err := uc.GetProduct(ctx, merchantID, productID); err != nil {
		return nil, err
	}
	return uc.repo.FindVariants(ctx, merchantID, productID)
}

func (uc *productUseCase) ListActiveCatalog(ctx context.Context, merchantID string, categoryID *string) ([]model.Product, error) {
	return uc.repo.FindActiveWithVariants(ctx, merchantID, categoryID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
