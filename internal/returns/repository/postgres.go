package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	custrepo "github.com/fekuna/omnipos-backoffice/internal/customer/repository"
	invrepo "github.com/fekuna/omnipos-backoffice/internal/inventory/repository"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/returns"
	"github.com/fekuna/omnipos-backoffice/internal/returns/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Returnable(ctx context.Context, merchantID, orderID string) (map[string]int, error) {
	return returnable(ctx, r.DB, merchantID, orderID)
}

func returnable(ctx context.Context, q sqlx.QueryerContext, merchantID, orderID string) (map[string]int, error) {
	var rows []struct {
		ID       string `db:"id"`
		Quantity int    `db:"quantity"`
		Returned int    `db:"returned"`
	}
	err := sqlx.SelectContext(ctx, q, &rows, `
        SELECT oi.id, oi.quantity,
               COALESCE(SUM(ri.quantity) FILTER (WHERE r.status <> 'rejected'), 0) AS returned
        FROM order_items oi
        LEFT JOIN return_items ri ON ri.order_item_id = oi.id
        LEFT JOIN returns r ON r.id = ri.return_id
        WHERE oi.order_id = $1 AND oi.merchant_id = $2
        GROUP BY oi.id, oi.quantity
    `, orderID, merchantID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Quantity - row.Returned
	}
	return out, nil
}

func (r *PGRepository) Create(ctx context.Context, ret *model.Return) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM orders WHERE id = $1 AND merchant_id = $2 FOR UPDATE`, ret.OrderID, ret.MerchantID); err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}

	left, err := returnable(ctx, tx, ret.MerchantID, ret.OrderID)
	if err != nil {
		return err
	}
	for _, it := range ret.Items {
		left[it.OrderItemID] -= it.Quantity
		if left[it.OrderItemID] < 0 {
			return returns.ErrExceedsReturnable
		}
	}

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO returns (
            id, merchant_id, order_id, customer_id, reason, refund_method, status,
            refund_amount, notes, created_by, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :order_id, :customer_id, :reason, :refund_method, :status,
            :refund_amount, :notes, :created_by, :created_at, :updated_at
        )
    `, ret)
	if err != nil {
		return fmt.Errorf("failed to insert return: %w", err)
	}

	for i := range ret.Items {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO return_items (
                id, merchant_id, return_id, order_item_id, product_id, variant_id, quantity, restock, refund_amount
            )
            VALUES (
                :id, :merchant_id, :return_id, :order_item_id, :product_id, :variant_id, :quantity, :restock, :refund_amount
            )
        `, &ret.Items[i])
		if err != nil {
			return fmt.Errorf("failed to insert return item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.Return, error) {
	var ret model.Return
	err := r.DB.GetContext(ctx, &ret, `SELECT * FROM returns WHERE id = $1 AND merchant_id = $2 LIMIT 1`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &ret.Items,
		`SELECT * FROM return_items WHERE return_id = $1 AND merchant_id = $2 ORDER BY id`, id, merchantID)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ReturnFilters) ([]model.Return, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.OrderID != "" {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM returns"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM returns" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var out []model.Return
	err = nstmt.SelectContext(ctx, &out, args)
	return out, count, err
}

func (r *PGRepository) Approve(ctx context.Context, merchantID, id string, actor *string) ([]model.InventoryMovement, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ret model.Return
	err = tx.GetContext(ctx, &ret, `SELECT * FROM returns WHERE id = $1 AND merchant_id = $2 FOR UPDATE`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, returns.ErrNotPending
		}
		return nil, err
	}
	if ret.Status != model.ReturnPending {
		return nil, returns.ErrNotPending
	}

	var items []model.ReturnItem
	if err := tx.SelectContext(ctx, &items,
		`SELECT * FROM return_items WHERE return_id = $1 AND merchant_id = $2`, id, merchantID); err != nil {
		return nil, err
	}

	var location string
	if err := tx.GetContext(ctx, &location,
		`SELECT location_id FROM orders WHERE id = $1 AND merchant_id = $2`, ret.OrderID, merchantID); err != nil {
		return nil, fmt.Errorf("failed to load order location: %w", err)
	}

	now := time.Now()
	ref := model.ReferenceReturn
	var posted []model.InventoryMovement
	for _, it := range items {
		if !it.Restock {
			continue
		}
		m := model.InventoryMovement{
			MerchantID:    merchantID,
			ProductID:     it.ProductID,
			VariantID:     it.VariantID,
			LocationID:    location,
			MovementType:  model.MovementReturnStock,
			Quantity:      it.Quantity,
			ReferenceType: &ref,
			ReferenceID:   &ret.ID,
			Notes:         "Return " + string(ret.Reason),
			CreatedBy:     actor,
			CreatedAt:     now,
		}
		if err := invrepo.PostMovement(ctx, tx, &m); err != nil {
			return nil, err
		}
		posted = append(posted, m)
	}

	if ret.RefundMethod == model.RefundStoreCredit && ret.CustomerID != nil {
		if err := custrepo.AddStoreCredit(ctx, tx, merchantID, *ret.CustomerID, ret.RefundAmount); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE returns SET status = $1, processed_at = $2, updated_at = $2 WHERE id = $3 AND merchant_id = $4`,
		model.ReturnApproved, now, id, merchantID); err != nil {
		return nil, fmt.Errorf("failed to approve return: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return posted, nil
}

func (r *PGRepository) Reject(ctx context.Context, merchantID, id string) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE returns SET status = $1, processed_at = now(), updated_at = now()
        WHERE id = $2 AND merchant_id = $3 AND status = $4
    `, model.ReturnRejected, id, merchantID, model.ReturnPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return returns.ErrNotPending
	}
	return nil
}
