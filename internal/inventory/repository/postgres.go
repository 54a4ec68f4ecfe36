package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/inventory/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const stockSelect = `
    SELECT i.id, i.merchant_id, i.product_id, i.variant_id, i.location_id, i.reorder_point,
           i.created_at, i.updated_at,
           COALESCE((SELECT SUM(m.quantity) FROM inventory_movements m WHERE m.inventory_item_id = i.id), 0) AS quantity
    FROM inventory_items i`

func (r *PGRepository) GetStock(ctx context.Context, merchantID string, key model.StockKey) (*model.StockLevel, error) {
	var level model.StockLevel
	query := stockSelect + `
    WHERE i.merchant_id = $1 AND i.product_id = $2
      AND i.variant_id IS NOT DISTINCT FROM $3 AND i.location_id = $4`

	err := r.DB.GetContext(ctx, &level, query, merchantID, key.ProductID, key.VariantID, key.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // caller decides on a zero position
		}
		return nil, err
	}
	return &level, nil
}

func (r *PGRepository) ListStock(ctx context.Context, f *dto.StockFilters) ([]model.StockLevel, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.LowStock {
		conditions = append(conditions, "reorder_point > 0 AND quantity <= reorder_point")
	}

	base := "SELECT * FROM (" + stockSelect + ") s WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM ("+base+") c", args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := base + " ORDER BY quantity ASC, updated_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.StockLevel
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) SetReorderPoint(ctx context.Context, merchantID string, key model.StockKey, point int) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	itemID, err := EnsureItem(ctx, tx, merchantID, key, time.Now())
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET reorder_point = $1, updated_at = now() WHERE id = $2 AND merchant_id = $3`,
		point, itemID, merchantID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.VariantID != "" {
		conditions = append(conditions, "variant_id = :variant_id")
		args["variant_id"] = f.VariantID
	}
	if f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceType != "" {
		conditions = append(conditions, "reference_type = :reference_type")
		args["reference_type"] = f.ReferenceType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.InventoryMovement
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) PostMovement(ctx context.Context, m *model.InventoryMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := PostMovement(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

// The helpers below take any sqlx.ExtContext so other repositories can post
// stock movements inside their own transactions.

// EnsureItem upserts the inventory item for key and returns its ID.
func EnsureItem(ctx context.Context, q sqlx.ExtContext, merchantID string, key model.StockKey, now time.Time) (string, error) {
	location := key.LocationID
	if location == "" {
		location = model.DefaultLocation
	}

	var id string
	err := sqlx.GetContext(ctx, q, &id, `
        INSERT INTO inventory_items (id, merchant_id, product_id, variant_id, location_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (merchant_id, product_id, variant_id, location_id)
        DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id
    `, uuid.New().String(), merchantID, key.ProductID, key.VariantID, location, now)
	if err != nil {
		return "", fmt.Errorf("failed to upsert inventory item: %w", err)
	}
	return id, nil
}

// InsertMovement writes m as-is; m.InventoryItemID must be set.
func InsertMovement(ctx context.Context, q sqlx.ExtContext, m *model.InventoryMovement) error {
	_, err := sqlx.NamedExecContext(ctx, q, `
        INSERT INTO inventory_movements (
            id, merchant_id, inventory_item_id, product_id, variant_id, location_id,
            movement_type, quantity, unit_cost, reference_type, reference_id,
            notes, created_by, created_at
        )
        VALUES (
            :id, :merchant_id, :inventory_item_id, :product_id, :variant_id, :location_id,
            :movement_type, :quantity, :unit_cost, :reference_type, :reference_id,
            :notes, :created_by, :created_at
        )
    `, m)
	if err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

// PostMovement ensures the item exists, then inserts the movement.
func PostMovement(ctx context.Context, q sqlx.ExtContext, m *model.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.LocationID == "" {
		m.LocationID = model.DefaultLocation
	}

	key := model.StockKey{ProductID: m.ProductID, VariantID: m.VariantID, LocationID: m.LocationID}
	itemID, err := EnsureItem(ctx, q, m.MerchantID, key, m.CreatedAt)
	if err != nil {
		return err
	}
	m.InventoryItemID = itemID
	return InsertMovement(ctx, q, m)
}

// StockQuantity sums the movements of the item at key. Missing items count as zero.
func StockQuantity(ctx context.Context, q sqlx.QueryerContext, merchantID string, key model.StockKey) (int, error) {
	location := key.LocationID
	if location == "" {
		location = model.DefaultLocation
	}

	var qty int
	err := sqlx.GetContext(ctx, q, &qty, `
        SELECT COALESCE(SUM(m.quantity), 0)
        FROM inventory_movements m
        JOIN inventory_items i ON i.id = m.inventory_item_id
        WHERE i.merchant_id = $1 AND i.product_id = $2
          AND i.variant_id IS NOT DISTINCT FROM $3 AND i.location_id = $4
    `, merchantID, key.ProductID, key.VariantID, location)
	return qty, err
}

// MovementsByReference lists movements of one type tied to a reference, oldest first.
func MovementsByReference(ctx context.Context, q sqlx.QueryerContext, merchantID string, refType model.ReferenceType, refID string, movementType model.MovementType) ([]model.InventoryMovement, error) {
	var out []model.InventoryMovement
	err := sqlx.SelectContext(ctx, q, &out, `
        SELECT * FROM inventory_movements
        WHERE merchant_id = $1 AND reference_type = $2 AND reference_id = $3 AND movement_type = $4
        ORDER BY created_at ASC
    `, merchantID, refType, refID, movementType)
	return out, err
}
