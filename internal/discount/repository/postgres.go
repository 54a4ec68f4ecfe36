package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-backoffice/internal/discount"
	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, d *model.Discount) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO discounts (
            id, merchant_id, code, description, type, value, min_order_amount, max_discount,
            usage_limit, per_customer_limit, starts_at, ends_at, is_active, applies_to,
            usage_count, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :code, :description, :type, :value, :min_order_amount, :max_discount,
            :usage_limit, :per_customer_limit, :starts_at, :ends_at, :is_active, :applies_to,
            :usage_count, :created_at, :updated_at
        )
    `, d)
	return err
}

func (r *PGRepository) get(ctx context.Context, query string, args ...interface{}) (*model.Discount, error) {
	var d model.Discount
	if err := r.DB.GetContext(ctx, &d, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.Discount, error) {
	return r.get(ctx, `SELECT * FROM discounts WHERE id = $1 AND merchant_id = $2`, id, merchantID)
}

func (r *PGRepository) FindByCode(ctx context.Context, merchantID, code string) (*model.Discount, error) {
	return r.get(ctx, `SELECT * FROM discounts WHERE code = $1 AND merchant_id = $2`, code, merchantID)
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.DiscountFilters) ([]model.Discount, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM discounts"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM discounts" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var discounts []model.Discount
	err = nstmt.SelectContext(ctx, &discounts, args)
	return discounts, count, err
}

func (r *PGRepository) Update(ctx context.Context, d *model.Discount) error {
	_, err := r.DB.NamedExecContext(ctx, `
        UPDATE discounts
        SET code = :code,
            description = :description,
            type = :type,
            value = :value,
            min_order_amount = :min_order_amount,
            max_discount = :max_discount,
            usage_limit = :usage_limit,
            per_customer_limit = :per_customer_limit,
            starts_at = :starts_at,
            ends_at = :ends_at,
            is_active = :is_active,
            applies_to = :applies_to,
            updated_at = :updated_at
        WHERE id = :id AND merchant_id = :merchant_id
    `, d)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, merchantID, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM discounts WHERE id = $1 AND merchant_id = $2`, id, merchantID)
	return err
}

func (r *PGRepository) Deactivate(ctx context.Context, merchantID, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE discounts SET is_active = FALSE, updated_at = now() WHERE id = $1 AND merchant_id = $2`,
		id, merchantID)
	return err
}

func (r *PGRepository) CountCustomerOrders(ctx context.Context, merchantID, discountID, customerID string) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `
        SELECT count(*) FROM orders
        WHERE merchant_id = $1 AND discount_id = $2 AND customer_id = $3
    `, merchantID, discountID, customerID)
	return count, err
}

func (r *PGRepository) ProductCategoryIDs(ctx context.Context, merchantID string, productIDs []string) ([]string, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
        SELECT DISTINCT category_id FROM products
        WHERE merchant_id = ? AND category_id IS NOT NULL AND id IN (?)
    `, merchantID, productIDs)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.DB.SelectContext(ctx, &ids, r.DB.Rebind(query), args...)
	return ids, err
}

func (r *PGRepository) RecordRedemption(ctx context.Context, red *model.DiscountRedemption) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var id string
	err = tx.GetContext(ctx, &id, `
        SELECT id FROM discounts WHERE id = $1 AND merchant_id = $2 FOR UPDATE
    `, red.DiscountID, red.MerchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, discount.ErrNotFound
		}
		return false, fmt.Errorf("failed to lock discount: %w", err)
	}

	res, err := tx.NamedExecContext(ctx, `
        INSERT INTO discount_redemptions (id, merchant_id, discount_id, order_id, customer_id, created_at)
        VALUES (:id, :merchant_id, :discount_id, :order_id, :customer_id, :created_at)
        ON CONFLICT (discount_id, order_id) DO NOTHING
    `, red)
	if err != nil {
		return false, fmt.Errorf("failed to insert redemption: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx, `
        UPDATE discounts
        SET usage_count = usage_count + 1, updated_at = now()
        WHERE id = $1 AND merchant_id = $2
          AND (usage_limit IS NULL OR usage_count < usage_limit)
    `, red.DiscountID, red.MerchantID)
	if err != nil {
		return false, fmt.Errorf("failed to increment usage: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, discount.ErrUsageLimitReached
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
