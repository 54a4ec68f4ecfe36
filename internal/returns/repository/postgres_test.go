package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/returns"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

var (
	returnColumns = []string{
		"id", "created_at", "updated_at", "merchant_id", "order_id", "customer_id", "reason",
		"refund_method", "status", "refund_amount", "notes", "created_by", "processed_at",
	}
	returnItemColumns = []string{
		"id", "merchant_id", "return_id", "order_item_id", "product_id", "variant_id", "quantity", "restock", "refund_amount",
	}
	created = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
)

func expectReturn(mock sqlmock.Sqlmock, status model.ReturnStatus, method model.RefundMethod, customerID any) {
	mock.ExpectQuery("SELECT \\* FROM returns WHERE id = \\$1 AND merchant_id = \\$2 FOR UPDATE").
		WithArgs("r-1", "m-1").
		WillReturnRows(sqlmock.NewRows(returnColumns).
			AddRow("r-1", created, created, "m-1", "o-1", customerID, "damaged", method, status, "11.30", "", nil, nil))
}

func expectItemsAndLocation(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT \\* FROM return_items WHERE return_id = \\$1").
		WithArgs("r-1", "m-1").
		WillReturnRows(sqlmock.NewRows(returnItemColumns).
			AddRow("ri-1", "m-1", "r-1", "oi-1", "p-1", nil, 2, true, "8.00").
			AddRow("ri-2", "m-1", "r-1", "oi-2", "p-2", nil, 1, false, "3.30"))
	mock.ExpectQuery("SELECT location_id FROM orders").
		WithArgs("o-1", "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow("store-1"))
}

func TestApprove_RestocksAndCredits(t *testing.T) {
	repo, mock := newMock(t)
	actor := "u-1"

	mock.ExpectBegin()
	expectReturn(mock, model.ReturnPending, model.RefundStoreCredit, "c-1")
	expectItemsAndLocation(mock)
	// only the restock line moves stock
	mock.ExpectQuery("INSERT INTO inventory_items").
		WithArgs(sqlmock.AnyArg(), "m-1", "p-1", nil, "store-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ii-1"))
	mock.ExpectExec("INSERT INTO inventory_movements").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE customers SET store_credit = store_credit \\+ \\$1").
		WithArgs(sqlmock.AnyArg(), "c-1", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE returns SET status = \\$1, processed_at = \\$2").
		WithArgs(model.ReturnApproved, sqlmock.AnyArg(), "r-1", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	posted, err := repo.Approve(context.Background(), "m-1", "r-1", &actor)
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.Equal(t, model.MovementReturnStock, posted[0].MovementType)
	assert.Equal(t, 2, posted[0].Quantity)
	assert.Equal(t, "store-1", posted[0].LocationID)
	assert.Equal(t, "r-1", *posted[0].ReferenceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_OriginalPaymentSkipsCredit(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectReturn(mock, model.ReturnPending, model.RefundOriginalPayment, "c-1")
	expectItemsAndLocation(mock)
	mock.ExpectQuery("INSERT INTO inventory_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ii-1"))
	mock.ExpectExec("INSERT INTO inventory_movements").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE returns SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Approve(context.Background(), "m-1", "r-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_CreditFailureRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectReturn(mock, model.ReturnPending, model.RefundStoreCredit, "c-404")
	expectItemsAndLocation(mock)
	mock.ExpectQuery("INSERT INTO inventory_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ii-1"))
	mock.ExpectExec("INSERT INTO inventory_movements").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE customers SET store_credit").
		WithArgs(sqlmock.AnyArg(), "c-404", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// the restock above is undone with the credit
	mock.ExpectRollback()

	_, err := repo.Approve(context.Background(), "m-1", "r-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer c-404 not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_NotPending(t *testing.T) {
	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
	}{
		{"missing", func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT \\* FROM returns").WillReturnError(sql.ErrNoRows)
		}},
		{"approved", func(mock sqlmock.Sqlmock) {
			expectReturn(mock, model.ReturnApproved, model.RefundStoreCredit, "c-1")
		}},
		{"rejected", func(mock sqlmock.Sqlmock) {
			expectReturn(mock, model.ReturnRejected, model.RefundStoreCredit, "c-1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t)
			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectRollback()

			_, err := repo.Approve(context.Background(), "m-1", "r-1", nil)
			assert.ErrorIs(t, err, returns.ErrNotPending)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
