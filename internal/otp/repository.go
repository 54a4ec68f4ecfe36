package otp

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
)

var ErrAlreadyConsumed = errors.New("otp already consumed")

type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Replace consumes every open code of the same email and type, then stores code.
	Replace(ctx context.Context, code *model.OTP) error
	// Latest returns the newest unconsumed code, or nil.
	Latest(ctx context.Context, email string, kind model.OTPType) (*model.OTP, error)

	// The Consume methods fail with ErrAlreadyConsumed when another request won.
	Consume(ctx context.Context, otpID string, now time.Time) error
	ConsumeAndVerifyEmail(ctx context.Context, otpID, email string, now time.Time) error
	ConsumeAndSetPassword(ctx context.Context, otpID, email, passwordHash string, now time.Time) error
}
