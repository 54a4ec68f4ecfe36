package otp

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/model"
)

type UseCase interface {
	SendOTP(ctx context.Context, email string, kind model.OTPType) error
	VerifyOTP(ctx context.Context, email, code string, kind model.OTPType) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}
