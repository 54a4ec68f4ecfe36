package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, merchant_id, category_id, sku, barcode, name, description,
            base_price, cost_price, tax_rate, has_variants, track_inventory,
            image_url, is_active, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :category_id, :sku, :barcode, :name, :description,
            :base_price, :cost_price, :tax_rate, :has_variants, :track_inventory,
            :image_url, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 AND merchant_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	product.Variants, err = r.FindVariants(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search OR barcode ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// whitelist only
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "base_price"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)

	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET category_id = :category_id,
            sku = :sku,
            barcode = :barcode,
            name = :name,
            description = :description,
            base_price = :base_price,
            cost_price = :cost_price,
            tax_rate = :tax_rate,
            has_variants = :has_variants,
            track_inventory = :track_inventory,
            image_url = :image_url,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND merchant_id = :merchant_id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, merchantID, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1 AND merchant_id = $2", id, merchantID)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, merchantID, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE merchant_id = $1 AND sku = $2`
	args := []interface{}{merchantID, sku}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) IsBarcodeUnique(ctx context.Context, merchantID, barcode, excludeID string) (bool, error) {
	if barcode == "" {
		return true, nil
	}
	var count int
	query := `SELECT count(*) FROM products WHERE merchant_id = $1 AND barcode = $2`
	args := []interface{}{merchantID, barcode}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO product_variants (
            id, merchant_id, product_id, sku, barcode, variant_name,
            price_adjustment, cost_price, is_active, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :product_id, :sku, :barcode, :variant_name,
            :price_adjustment, :cost_price, :is_active, :created_at, :updated_at
        )
    `, v)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET has_variants = TRUE, updated_at = now() WHERE id = $1 AND merchant_id = $2`,
		v.ProductID, v.MerchantID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) error {
	_, err := r.DB.NamedExecContext(ctx, `
        UPDATE product_variants
        SET sku = :sku,
            barcode = :barcode,
            variant_name = :variant_name,
            price_adjustment = :price_adjustment,
            cost_price = :cost_price,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND product_id = :product_id AND merchant_id = :merchant_id
    `, v)
	return err
}

func (r *PGRepository) FindVariants(ctx context.Context, merchantID, productID string) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.DB.SelectContext(ctx, &variants,
		`SELECT * FROM product_variants WHERE merchant_id = $1 AND product_id = $2 ORDER BY created_at ASC`,
		merchantID, productID)
	return variants, err
}

func (r *PGRepository) FindActiveWithVariants(ctx context.Context, merchantID string, categoryID *string) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE merchant_id = $1 AND is_active = TRUE`
	args := []interface{}{merchantID}
	if categoryID != nil {
		query += ` AND category_id = $2`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY name ASC`

	if err := r.DB.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	variantQuery, variantArgs, err := sqlx.In(`
        SELECT * FROM product_variants
        WHERE merchant_id = ? AND is_active = TRUE AND product_id IN (?)
        ORDER BY created_at ASC
    `, merchantID, ids)
	if err != nil {
		return nil, err
	}

	var variants []model.ProductVariant
	if err := r.DB.SelectContext(ctx, &variants, r.DB.Rebind(variantQuery), variantArgs...); err != nil {
		return nil, err
	}
	for _, v := range variants {
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return products, nil
}
