package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/otp"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u, `SELECT * FROM users WHERE lower(email) = lower($1) LIMIT 1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) Replace(ctx context.Context, code *model.OTP) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE otp_codes SET consumed_at = $1 WHERE email = $2 AND type = $3 AND consumed_at IS NULL`,
		code.CreatedAt, code.Email, code.Type); err != nil {
		return fmt.Errorf("failed to retire previous codes: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, `
        INSERT INTO otp_codes (id, email, code, type, expires_at, consumed_at, created_at)
        VALUES (:id, :email, :code, :type, :expires_at, :consumed_at, :created_at)
    `, code); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) Latest(ctx context.Context, email string, kind model.OTPType) (*model.OTP, error) {
	var code model.OTP
	err := r.DB.GetContext(ctx, &code, `
        SELECT * FROM otp_codes
        WHERE email = $1 AND type = $2 AND consumed_at IS NULL
        ORDER BY created_at DESC LIMIT 1
    `, email, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func consume(ctx context.Context, tx *sqlx.Tx, otpID string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE otp_codes SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL`, now, otpID)
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return otp.ErrAlreadyConsumed
	}
	return nil
}

func (r *PGRepository) Consume(ctx context.Context, otpID string, now time.Time) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := consume(ctx, tx, otpID, now); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) ConsumeAndVerifyEmail(ctx context.Context, otpID, email string, now time.Time) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := consume(ctx, tx, otpID, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = $1 WHERE lower(email) = lower($2)`, now, email); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return tx.Commit()
}

func (r *PGRepository) ConsumeAndSetPassword(ctx context.Context, otpID, email, passwordHash string, now time.Time) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := consume(ctx, tx, otpID, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE lower(email) = lower($3)`,
		passwordHash, now, email); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return tx.Commit()
}
