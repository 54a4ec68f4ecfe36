package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-backoffice/internal/customer/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Customer) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO customers (id, merchant_id, name, email, phone, loyalty_points, store_credit, created_at, updated_at)
        VALUES (:id, :merchant_id, :name, :email, :phone, :loyalty_points, :store_credit, :created_at, :updated_at)
    `, c)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.Customer, error) {
	var c model.Customer
	err := r.DB.GetContext(ctx, &c, `SELECT * FROM customers WHERE id = $1 AND merchant_id = $2`, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CustomerFilters) ([]model.Customer, int, error) {
	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR email ILIKE :search OR phone ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM customers"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM customers" + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var customers []model.Customer
	err = nstmt.SelectContext(ctx, &customers, args)
	return customers, count, err
}

// Update writes contact fields only. Points and store credit change through
// their own ledgers.
func (r *PGRepository) Update(ctx context.Context, c *model.Customer) error {
	_, err := r.DB.NamedExecContext(ctx, `
        UPDATE customers
        SET name = :name, email = :email, phone = :phone, updated_at = :updated_at
        WHERE id = :id AND merchant_id = :merchant_id
    `, c)
	return err
}

// AddStoreCredit increments a customer's store credit inside the caller's transaction.
func AddStoreCredit(ctx context.Context, q sqlx.ExecerContext, merchantID, customerID string, amount decimal.Decimal) error {
	res, err := q.ExecContext(ctx, `
        UPDATE customers SET store_credit = store_credit + $1, updated_at = now()
        WHERE id = $2 AND merchant_id = $3
    `, amount, customerID, merchantID)
	if err != nil {
		return fmt.Errorf("failed to credit customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to credit customer: customer %s not found", customerID)
	}
	return nil
}
