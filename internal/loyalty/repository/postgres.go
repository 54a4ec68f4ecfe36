package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-backoffice/internal/loyalty"
	"github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Post(ctx context.Context, t *model.LoyaltyTransaction) (int, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int
	err = tx.GetContext(ctx, &balance,
		`SELECT loyalty_points FROM customers WHERE id = $1 AND merchant_id = $2 FOR UPDATE`,
		t.CustomerID, t.MerchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, loyalty.ErrCustomerNotFound
		}
		return 0, fmt.Errorf("failed to lock customer: %w", err)
	}

	if t.Kind == model.LoyaltyEarned && t.OrderID != nil {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `
            SELECT EXISTS (
                SELECT 1 FROM loyalty_transactions
                WHERE merchant_id = $1 AND order_id = $2 AND kind = $3
            )
        `, t.MerchantID, *t.OrderID, model.LoyaltyEarned); err != nil {
			return 0, err
		}
		if exists {
			return balance, loyalty.ErrAlreadyPosted
		}
	}

	next := balance + t.Points
	if next < 0 {
		return balance, loyalty.ErrNegativeBalance
	}

	if _, err := tx.NamedExecContext(ctx, `
        INSERT INTO loyalty_transactions (id, merchant_id, customer_id, order_id, points, kind, description, created_at)
        VALUES (:id, :merchant_id, :customer_id, :order_id, :points, :kind, :description, :created_at)
    `, t); err != nil {
		return 0, fmt.Errorf("failed to insert loyalty transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE customers SET loyalty_points = $1, updated_at = now() WHERE id = $2 AND merchant_id = $3`,
		next, t.CustomerID, t.MerchantID); err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *PGRepository) GetBalance(ctx context.Context, merchantID, customerID string) (int, error) {
	var balance int
	err := r.DB.GetContext(ctx, &balance,
		`SELECT loyalty_points FROM customers WHERE id = $1 AND merchant_id = $2`, customerID, merchantID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, loyalty.ErrCustomerNotFound
	}
	return balance, err
}

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.LoyaltyTransaction, int, error) {
	conditions := []string{"merchant_id = :merchant_id", "customer_id = :customer_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID, "customer_id": f.CustomerID}
	if f.Kind != "" {
		conditions = append(conditions, "kind = :kind")
		args["kind"] = f.Kind
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM loyalty_transactions"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM loyalty_transactions" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var txns []model.LoyaltyTransaction
	err = nstmt.SelectContext(ctx, &txns, args)
	return txns, count, err
}
