package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	invrepo "github.com/fekuna/omnipos-backoffice/internal/inventory/repository"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing/dto"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, po *model.PurchaseOrder) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO purchase_orders (
            id, merchant_id, po_number, supplier_id, location_id, status,
            expected_date, notes, total_cost, created_by, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :po_number, :supplier_id, :location_id, :status,
            :expected_date, :notes, :total_cost, :created_by, :created_at, :updated_at
        )
    `, po)
	if err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}

	for i := range po.Items {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO purchase_order_items (
                id, merchant_id, purchase_order_id, product_id, variant_id, quantity, received_qty, unit_cost
            )
            VALUES (
                :id, :merchant_id, :purchase_order_id, :product_id, :variant_id, :quantity, :received_qty, :unit_cost
            )
        `, &po.Items[i])
		if err != nil {
			return fmt.Errorf("failed to insert purchase order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error) {
	return findByID(ctx, r.DB, merchantID, id)
}

func findByID(ctx context.Context, q sqlx.QueryerContext, merchantID, id string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := sqlx.GetContext(ctx, q, &po,
		`SELECT * FROM purchase_orders WHERE id = $1 AND merchant_id = $2 LIMIT 1`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = sqlx.SelectContext(ctx, q, &po.Items,
		`SELECT * FROM purchase_order_items WHERE purchase_order_id = $1 AND merchant_id = $2 ORDER BY id`, id, merchantID)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.SupplierID != "" {
		conditions = append(conditions, "supplier_id = :supplier_id")
		args["supplier_id"] = f.SupplierID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM purchase_orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM purchase_orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var orders []model.PurchaseOrder
	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, merchantID, id string, from, to model.PurchaseOrderStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE purchase_orders SET status = $1, updated_at = now() WHERE id = $2 AND merchant_id = $3 AND status = $4`,
		to, id, merchantID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return purchasing.ErrStatusChanged
	}
	return nil
}

type receivedLine struct {
	ProductID string          `db:"product_id"`
	VariantID *string         `db:"variant_id"`
	UnitCost  decimal.Decimal `db:"unit_cost"`
}

func (r *PGRepository) Receive(ctx context.Context, in *dto.ReceiveInput) (*model.PurchaseOrder, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var head struct {
		PONumber   string                    `db:"po_number"`
		LocationID string                    `db:"location_id"`
		Status     model.PurchaseOrderStatus `db:"status"`
	}
	err = tx.GetContext(ctx, &head,
		`SELECT po_number, location_id, status FROM purchase_orders WHERE id = $1 AND merchant_id = $2 FOR UPDATE`,
		in.PurchaseOrderID, in.MerchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, purchasing.ErrNotReceivable
		}
		return nil, err
	}
	if head.Status != model.POSent && head.Status != model.POPartial {
		return nil, purchasing.ErrNotReceivable
	}

	now := time.Now()
	ref := model.ReferencePurchaseOrder
	var createdBy *string
	if in.UserID != "" {
		createdBy = &in.UserID
	}

	for _, line := range in.Lines {
		var rl receivedLine
		err := tx.GetContext(ctx, &rl, `
            UPDATE purchase_order_items SET received_qty = received_qty + $1
            WHERE id = $2 AND purchase_order_id = $3 AND merchant_id = $4
            RETURNING product_id, variant_id, unit_cost
        `, line.Quantity, line.ItemID, in.PurchaseOrderID, in.MerchantID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", purchasing.ErrItemNotFound, line.ItemID)
			}
			return nil, fmt.Errorf("failed to update received quantity: %w", err)
		}

		err = invrepo.PostMovement(ctx, tx, &model.InventoryMovement{
			MerchantID:    in.MerchantID,
			ProductID:     rl.ProductID,
			VariantID:     rl.VariantID,
			LocationID:    head.LocationID,
			MovementType:  model.MovementPurchase,
			Quantity:      line.Quantity,
			UnitCost:      decimal.NewNullDecimal(rl.UnitCost),
			ReferenceType: &ref,
			ReferenceID:   &in.PurchaseOrderID,
			Notes:         "Received on " + head.PONumber,
			CreatedBy:     createdBy,
			CreatedAt:     now,
		})
		if err != nil {
			return nil, err
		}
	}

	po, err := findByID(ctx, tx, in.MerchantID, in.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	next := purchasing.ReceiptStatus(po.Items, po.Status)
	if next != po.Status {
		if _, err := tx.ExecContext(ctx,
			`UPDATE purchase_orders SET status = $1, updated_at = $2 WHERE id = $3 AND merchant_id = $4`,
			next, now, po.ID, po.MerchantID); err != nil {
			return nil, fmt.Errorf("failed to update purchase order status: %w", err)
		}
		po.Status = next
		po.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return po, nil
}
