package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	invrepo "github.com/fekuna/omnipos-backoffice/internal/inventory/repository"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/order"
	"github.com/fekuna/omnipos-backoffice/internal/order/dto"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order, movements []model.InventoryMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO orders (
            id, merchant_id, order_number, customer_id, discount_id, location_id, status,
            subtotal, tax, discount, total, cost, notes, created_by, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :order_number, :customer_id, :discount_id, :location_id, :status,
            :subtotal, :tax, :discount, :total, :cost, :notes, :created_by, :created_at, :updated_at
        )
    `, o)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range o.Items {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO order_items (
                id, merchant_id, order_id, product_id, variant_id, name,
                quantity, unit_price, unit_cost, tax_rate, line_total
            )
            VALUES (
                :id, :merchant_id, :order_id, :product_id, :variant_id, :name,
                :quantity, :unit_price, :unit_cost, :tax_rate, :line_total
            )
        `, &o.Items[i])
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	for i := range movements {
		if err := invrepo.PostMovement(ctx, tx, &movements[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1 AND merchant_id = $2 LIMIT 1`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &o.Items,
		`SELECT * FROM order_items WHERE order_id = $1 AND merchant_id = $2 ORDER BY id`, id, merchantID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var orders []model.Order
	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) Transition(ctx context.Context, o *model.Order, from model.OrderStatus, compensate model.MovementType, actor *string) ([]model.InventoryMovement, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND merchant_id = $4 AND status = $5`,
		o.Status, o.UpdatedAt, o.ID, o.MerchantID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, order.ErrStatusChanged
	}

	var posted []model.InventoryMovement
	if compensate != "" {
		sales, err := invrepo.MovementsByReference(ctx, tx, o.MerchantID, model.ReferenceOrder, o.ID, model.MovementSale)
		if err != nil {
			return nil, fmt.Errorf("failed to load sale movements: %w", err)
		}

		restocked, err := restockedByReturns(ctx, tx, o.MerchantID, o.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load returned quantities: %w", err)
		}

		ref := model.ReferenceOrder
		for _, sale := range sales {
			qty := -sale.Quantity
			key := lineKey(sale.ProductID, sale.VariantID)
			taken := min(restocked[key], qty)
			restocked[key] -= taken
			qty -= taken
			if qty <= 0 {
				continue
			}

			m := model.InventoryMovement{
				ID:            uuid.New().String(),
				MerchantID:    o.MerchantID,
				ProductID:     sale.ProductID,
				VariantID:     sale.VariantID,
				LocationID:    sale.LocationID,
				MovementType:  compensate,
				Quantity:      qty,
				UnitCost:      sale.UnitCost,
				ReferenceType: &ref,
				ReferenceID:   &o.ID,
				Notes:         fmt.Sprintf("Order %s %s", o.OrderNumber, o.Status),
				CreatedBy:     actor,
				CreatedAt:     o.UpdatedAt,
			}
			if err := invrepo.PostMovement(ctx, tx, &m); err != nil {
				return nil, err
			}
			posted = append(posted, m)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return posted, nil
}

func lineKey(productID string, variantID *string) string {
	if variantID == nil {
		return productID
	}
	return productID + "/" + *variantID
}

// restockedByReturns sums the quantities approved returns already put back
// on the shelf for the order, keyed by lineKey.
func restockedByReturns(ctx context.Context, q sqlx.QueryerContext, merchantID, orderID string) (map[string]int, error) {
	var rows []struct {
		ProductID string  `db:"product_id"`
		VariantID *string `db:"variant_id"`
		Quantity  int     `db:"quantity"`
	}
	err := sqlx.SelectContext(ctx, q, &rows, `
        SELECT ri.product_id, ri.variant_id, SUM(ri.quantity) AS quantity
        FROM return_items ri
        JOIN returns r ON r.id = ri.return_id
        WHERE r.merchant_id = $1 AND r.order_id = $2 AND r.status = $3 AND ri.restock
        GROUP BY ri.product_id, ri.variant_id
    `, merchantID, orderID, model.ReturnApproved)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[lineKey(row.ProductID, row.VariantID)] += row.Quantity
	}
	return out, nil
}

func (r *PGRepository) Delete(ctx context.Context, merchantID, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status model.OrderStatus
	err = tx.GetContext(ctx, &status,
		`SELECT status FROM orders WHERE id = $1 AND merchant_id = $2 FOR UPDATE`, id, merchantID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	// a row deleted since the caller read it is reported the same way
	if status != model.OrderPending {
		return order.ErrNotPending
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_movements WHERE merchant_id = $1 AND reference_type = $2 AND reference_id = $3`,
		merchantID, model.ReferenceOrder, id); err != nil {
		return fmt.Errorf("failed to delete order movements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND merchant_id = $2`, id, merchantID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return tx.Commit()
}
