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
	"github.com/fekuna/omnipos-backoffice/internal/stocktake"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, st *model.StockTake) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO stock_takes (
            id, merchant_id, location_id, category_id, status, notes, created_by, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :location_id, :category_id, :status, :notes, :created_by, :created_at, :updated_at
        )
    `, st)
	if err != nil {
		return fmt.Errorf("failed to insert stock take: %w", err)
	}

	for i := range st.Items {
		item := &st.Items[i]
		key := model.StockKey{ProductID: item.ProductID, VariantID: item.VariantID, LocationID: st.LocationID}
		if item.ExpectedQty, err = invrepo.StockQuantity(ctx, tx, st.MerchantID, key); err != nil {
			return fmt.Errorf("failed to read expected quantity: %w", err)
		}

		_, err = tx.NamedExecContext(ctx, `
            INSERT INTO stock_take_items (
                id, merchant_id, stock_take_id, product_id, variant_id, name, expected_qty, counted_qty, variance
            )
            VALUES (
                :id, :merchant_id, :stock_take_id, :product_id, :variant_id, :name, :expected_qty, :counted_qty, :variance
            )
        `, item)
		if err != nil {
			return fmt.Errorf("failed to insert stock take item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.StockTake, error) {
	var st model.StockTake
	err := r.DB.GetContext(ctx, &st, `SELECT * FROM stock_takes WHERE id = $1 AND merchant_id = $2 LIMIT 1`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &st.Items,
		`SELECT * FROM stock_take_items WHERE stock_take_id = $1 AND merchant_id = $2 ORDER BY name, id`, id, merchantID)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.StockTakeFilters) ([]model.StockTake, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM stock_takes"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM stock_takes" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var takes []model.StockTake
	err = nstmt.SelectContext(ctx, &takes, args)
	return takes, count, err
}

// lockInProgress locks the stock take row and returns its location.
func lockInProgress(ctx context.Context, tx *sqlx.Tx, merchantID, id string) (string, error) {
	var head struct {
		LocationID string                `db:"location_id"`
		Status     model.StockTakeStatus `db:"status"`
	}
	err := tx.GetContext(ctx, &head,
		`SELECT location_id, status FROM stock_takes WHERE id = $1 AND merchant_id = $2 FOR UPDATE`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", stocktake.ErrNotInProgress
		}
		return "", err
	}
	if head.Status != model.StockTakeInProgress {
		return "", stocktake.ErrNotInProgress
	}
	return head.LocationID, nil
}

func (r *PGRepository) RecordCounts(ctx context.Context, in *dto.RecordCountInput) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := lockInProgress(ctx, tx, in.MerchantID, in.StockTakeID); err != nil {
		return err
	}

	for _, line := range in.Lines {
		res, err := tx.ExecContext(ctx, `
            UPDATE stock_take_items SET counted_qty = $1, variance = $1 - expected_qty
            WHERE id = $2 AND stock_take_id = $3 AND merchant_id = $4
        `, line.Counted, line.ItemID, in.StockTakeID, in.MerchantID)
		if err != nil {
			return fmt.Errorf("failed to record count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", stocktake.ErrItemNotFound, line.ItemID)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE stock_takes SET updated_at = now() WHERE id = $1 AND merchant_id = $2`,
		in.StockTakeID, in.MerchantID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) Complete(ctx context.Context, in *dto.CompleteInput) ([]model.InventoryMovement, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	location, err := lockInProgress(ctx, tx, in.MerchantID, in.StockTakeID)
	if err != nil {
		return nil, err
	}

	var items []model.StockTakeItem
	if err := tx.SelectContext(ctx, &items,
		`SELECT * FROM stock_take_items WHERE stock_take_id = $1 AND merchant_id = $2`,
		in.StockTakeID, in.MerchantID); err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.CountedQty == nil {
			return nil, stocktake.ErrUncounted
		}
	}

	now := time.Now()
	var posted []model.InventoryMovement
	if in.ApplyAdjustments {
		ref := model.ReferenceStockTake
		var createdBy *string
		if in.UserID != "" {
			createdBy = &in.UserID
		}
		for _, it := range items {
			if it.Variance == nil || *it.Variance == 0 {
				continue
			}
			m := model.InventoryMovement{
				MerchantID:    in.MerchantID,
				ProductID:     it.ProductID,
				VariantID:     it.VariantID,
				LocationID:    location,
				MovementType:  model.MovementAdjustment,
				Quantity:      *it.Variance,
				ReferenceType: &ref,
				ReferenceID:   &in.StockTakeID,
				Notes:         "Stock take variance",
				CreatedBy:     createdBy,
				CreatedAt:     now,
			}
			if err := invrepo.PostMovement(ctx, tx, &m); err != nil {
				return nil, err
			}
			posted = append(posted, m)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE stock_takes SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3 AND merchant_id = $4`,
		model.StockTakeCompleted, now, in.StockTakeID, in.MerchantID); err != nil {
		return nil, fmt.Errorf("failed to complete stock take: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return posted, nil
}

func (r *PGRepository) Cancel(ctx context.Context, merchantID, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE stock_takes SET status = $1, updated_at = now() WHERE id = $2 AND merchant_id = $3 AND status = $4`,
		model.StockTakeCancelled, id, merchantID, model.StockTakeInProgress)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stocktake.ErrNotInProgress
	}
	return nil
}
