package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-backoffice/internal/discount"
	"github.com/fekuna/omnipos-backoffice/internal/model"
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

func redemption() *model.DiscountRedemption {
	return &model.DiscountRedemption{
		ID:         "r-1",
		MerchantID: "m-1",
		DiscountID: "d-1",
		OrderID:    "o-1",
		CreatedAt:  time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
	}
}

func expectLock(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT id FROM discounts WHERE id = \\$1 AND merchant_id = \\$2 FOR UPDATE").
		WithArgs("d-1", "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d-1"))
}

func TestRecordRedemption(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	mock.ExpectExec("INSERT INTO discount_redemptions .* ON CONFLICT \\(discount_id, order_id\\) DO NOTHING").
		WithArgs("r-1", "m-1", "d-1", "o-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE discounts SET usage_count = usage_count \\+ 1.*usage_count < usage_limit").
		WithArgs("d-1", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	recorded, err := repo.RecordRedemption(context.Background(), redemption())
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRedemption_Replay(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	mock.ExpectExec("INSERT INTO discount_redemptions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// no usage bump for an order already recorded
	mock.ExpectRollback()

	recorded, err := repo.RecordRedemption(context.Background(), redemption())
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRedemption_LimitReached(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	mock.ExpectExec("INSERT INTO discount_redemptions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE discounts SET usage_count").
		WithArgs("d-1", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	recorded, err := repo.RecordRedemption(context.Background(), redemption())
	assert.ErrorIs(t, err, discount.ErrUsageLimitReached)
	assert.False(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRedemption_UnknownDiscount(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM discounts").
		WithArgs("d-1", "m-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.RecordRedemption(context.Background(), redemption())
	assert.ErrorIs(t, err, discount.ErrNotFound)
	assert.NotErrorIs(t, err, discount.ErrUsageLimitReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRedemption_InsertFails(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	mock.ExpectExec("INSERT INTO discount_redemptions").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.RecordRedemption(context.Background(), redemption())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert redemption")
	assert.NoError(t, mock.ExpectationsWereMet())
}
