package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
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

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT \\* FROM customers WHERE id = \\$1 AND merchant_id = \\$2").
		WithArgs("c-1", "m-1").
		WillReturnError(sql.ErrNoRows)

	c, err := repo.FindByID(context.Background(), "m-1", "c-1")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStoreCredit(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE customers SET store_credit = store_credit \\+ \\$1").
		WithArgs(sqlmock.AnyArg(), "c-1", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := AddStoreCredit(context.Background(), repo.DB, "m-1", "c-1", decimal.RequireFromString("11.30"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStoreCredit_UnknownCustomer(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE customers SET store_credit").
		WithArgs(sqlmock.AnyArg(), "c-404", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := AddStoreCredit(context.Background(), repo.DB, "m-1", "c-404", decimal.NewFromInt(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer c-404 not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
