package usecase

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math/big"
	"strings"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/otp"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/mailer"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength        = 6
	minPasswordLength = 8
	DefaultTTL        = 10 * time.Minute
)

var (
	ErrInvalidType     = apperror.BadRequest("OTPInvalidType", "Invalid OTP type")
	ErrInvalidOTP      = apperror.BadRequest("OTPInvalid", "Invalid OTP")
	ErrExpiredOTP      = apperror.BadRequest("OTPExpired", "OTP has expired")
	ErrUserNotFound    = apperror.NotFound("UserNotFound", "User not found")
	ErrAlreadyVerified = apperror.Conflict("EmailAlreadyVerified", "Email is already verified")
	ErrWeakPassword    = apperror.BadRequest("PasswordTooShort", "Password must be at least 8 characters")
	ErrTooManyRequests = apperror.TooManyRequests("OTPRateLimited", "Too many OTP requests, try again later")
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var subjects = map[model.OTPType]string{
	model.OTPEmailVerification: "Verify your email",
	model.OTPPasswordReset:     "Reset your password",
}

// Limiter throttles sends per email address.
type Limiter interface {
	Allow(key string) bool
}

type otpUseCase struct {
	repo    otp.Repository
	sender  mailer.Sender
	limiter Limiter
	ttl     time.Duration
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewOTPUseCase(repo otp.Repository, sender mailer.Sender, limiter Limiter, ttl time.Duration, log logger.ZapLogger) otp.UseCase {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &otpUseCase{
		repo:    repo,
		sender:  sender,
		limiter: limiter,
		ttl:     ttl,
		logger:  log,
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateCode returns codeLength characters drawn uniformly from codeAlphabet.
func GenerateCode() (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (uc *otpUseCase) SendOTP(ctx context.Context, email string, kind model.OTPType) error {
	if !kind.Valid() {
		return ErrInvalidType
	}
	email = normalizeEmail(email)
	if uc.limiter != nil && !uc.limiter.Allow(email) {
		return ErrTooManyRequests
	}

	user, err := uc.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		if kind == model.OTPPasswordReset {
			uc.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return ErrUserNotFound
	}
	if kind == model.OTPEmailVerification && user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	now := uc.now()
	if err := uc.repo.Replace(ctx, &model.OTP{
		ID:        uuid.New().String(),
		Email:     email,
		Code:      code,
		Type:      kind,
		ExpiresAt: now.Add(uc.ttl),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	var body bytes.Buffer
	err = templates.ExecuteTemplate(&body, string(kind)+".html", map[string]any{
		"Name":    user.Name,
		"Code":    code,
		"Minutes": int(uc.ttl.Minutes()),
	})
	if err != nil {
		return fmt.Errorf("failed to render otp email: %w", err)
	}

	if err := uc.sender.Send(ctx, email, subjects[kind], body.String()); err != nil {
		return err
	}

	uc.logger.Info("otp sent", zap.String("type", string(kind)), zap.String("user_id", user.ID))
	return nil
}

// check returns the open code matching input, without consuming it.
func (uc *otpUseCase) check(ctx context.Context, email, input string, kind model.OTPType) (*model.OTP, error) {
	stored, err := uc.repo.Latest(ctx, email, kind)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrInvalidOTP
	}

	given := strings.ToUpper(strings.TrimSpace(input))
	if subtle.ConstantTimeCompare([]byte(given), []byte(stored.Code)) != 1 {
		return nil, ErrInvalidOTP
	}
	if uc.now().After(stored.ExpiresAt) {
		return nil, ErrExpiredOTP
	}
	return stored, nil
}

func (uc *otpUseCase) VerifyOTP(ctx context.Context, email, code string, kind model.OTPType) error {
	if !kind.Valid() {
		return ErrInvalidType
	}
	email = normalizeEmail(email)

	stored, err := uc.check(ctx, email, code, kind)
	if err != nil {
		return err
	}

	if kind == model.OTPEmailVerification {
		err = uc.repo.ConsumeAndVerifyEmail(ctx, stored.ID, email, uc.now())
	} else {
		err = uc.repo.Consume(ctx, stored.ID, uc.now())
	}
	if errors.Is(err, otp.ErrAlreadyConsumed) {
		return ErrInvalidOTP
	}
	return err
}

func (uc *otpUseCase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	email = normalizeEmail(email)

	stored, err := uc.check(ctx, email, code, model.OTPPasswordReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = uc.repo.ConsumeAndSetPassword(ctx, stored.ID, email, string(hash), uc.now())
	if errors.Is(err, otp.ErrAlreadyConsumed) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}

	uc.logger.Info("password reset", zap.String("otp_id", stored.ID))
	return nil
}
