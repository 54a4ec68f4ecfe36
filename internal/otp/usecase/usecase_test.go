package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/otp"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	users map[string]*model.User
	codes []*model.OTP
}

func (r *memRepo) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.users[email], nil
}

func (r *memRepo) Replace(_ context.Context, code *model.OTP) error {
	now := code.CreatedAt
	for _, c := range r.codes {
		if c.Email == code.Email && c.Type == code.Type && c.ConsumedAt == nil {
			c.ConsumedAt = &now
		}
	}
	r.codes = append(r.codes, code)
	return nil
}

func (r *memRepo) Latest(_ context.Context, email string, kind model.OTPType) (*model.OTP, error) {
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := r.codes[i]
		if c.Email == email && c.Type == kind && c.ConsumedAt == nil {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Consume(_ context.Context, id string, now time.Time) error {
	for _, c := range r.codes {
		if c.ID == id {
			if c.ConsumedAt != nil {
				return otp.ErrAlreadyConsumed
			}
			c.ConsumedAt = &now
			return nil
		}
	}
	return otp.ErrAlreadyConsumed
}

func (r *memRepo) ConsumeAndVerifyEmail(ctx context.Context, id, email string, now time.Time) error {
	if err := r.Consume(ctx, id, now); err != nil {
		return err
	}
	r.users[email].EmailVerified = true
	return nil
}

func (r *memRepo) ConsumeAndSetPassword(ctx context.Context, id, email, hash string, now time.Time) error {
	if err := r.Consume(ctx, id, now); err != nil {
		return err
	}
	r.users[email].PasswordHash = &hash
	return nil
}

func (r *memRepo) latestCode() string {
	return r.codes[len(r.codes)-1].Code
}

type sentMail struct {
	to, subject, body string
}

type captureSender struct {
	sent []sentMail
}

func (s *captureSender) Send(_ context.Context, to, subject, body string) error {
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

type allowN int

func (a *allowN) Allow(string) bool {
	if *a <= 0 {
		return false
	}
	*a--
	return true
}

type fixture struct {
	uc     *otpUseCase
	repo   *memRepo
	sender *captureSender
	clock  time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo: &memRepo{users: map[string]*model.User{
			"jane@example.com": {BaseModel: model.BaseModel{ID: "u-1"}, Email: "jane@example.com", Name: "Jane"},
		}},
		sender: &captureSender{},
		clock:  time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	f.uc = &otpUseCase{
		repo:   f.repo,
		sender: f.sender,
		ttl:    DefaultTTL,
		logger: logger.NewNop(),
		now:    func() time.Time { return f.clock },
	}
	return f
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestSendOTP_RendersEmail(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.uc.SendOTP(context.Background(), " Jane@Example.com ", model.OTPEmailVerification))

	require.Len(t, f.sender.sent, 1)
	mail := f.sender.sent[0]
	assert.Equal(t, "jane@example.com", mail.to)
	assert.Equal(t, "Verify your email", mail.subject)
	assert.Contains(t, mail.body, f.repo.latestCode())
	assert.Contains(t, mail.body, "Jane")
	assert.Contains(t, mail.body, "10")
	assert.Equal(t, f.clock.Add(DefaultTTL), f.repo.codes[0].ExpiresAt)
}

func TestSendOTP_Rules(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	assert.ErrorIs(t, f.uc.SendOTP(ctx, "jane@example.com", "sms"), ErrInvalidType)
	assert.ErrorIs(t, f.uc.SendOTP(ctx, "ghost@example.com", model.OTPEmailVerification), ErrUserNotFound)

	// unknown addresses get no hint on password reset
	assert.NoError(t, f.uc.SendOTP(ctx, "ghost@example.com", model.OTPPasswordReset))
	assert.Empty(t, f.sender.sent)

	f.repo.users["jane@example.com"].EmailVerified = true
	assert.ErrorIs(t, f.uc.SendOTP(ctx, "jane@example.com", model.OTPEmailVerification), ErrAlreadyVerified)
}

func TestSendOTP_RateLimited(t *testing.T) {
	f := newFixture()
	quota := allowN(1)
	f.uc.limiter = &quota

	require.NoError(t, f.uc.SendOTP(context.Background(), "jane@example.com", model.OTPPasswordReset))
	assert.ErrorIs(t, f.uc.SendOTP(context.Background(), "jane@example.com", model.OTPPasswordReset), ErrTooManyRequests)
}

func TestSendOTP_ReplacesOpenCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.SendOTP(ctx, "jane@example.com", model.OTPEmailVerification))
	first := f.repo.latestCode()
	require.NoError(t, f.uc.SendOTP(ctx, "jane@example.com", model.OTPEmailVerification))
	second := f.repo.latestCode()

	if first != second {
		assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "jane@example.com", first, model.OTPEmailVerification), ErrInvalidOTP)
	}
	assert.NoError(t, f.uc.VerifyOTP(ctx, "jane@example.com", second, model.OTPEmailVerification))
}

func TestVerifyOTP(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.uc.SendOTP(ctx, "jane@example.com", model.OTPEmailVerification))
	code := f.repo.latestCode()

	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "jane@example.com", "WRONG1", model.OTPEmailVerification), ErrInvalidOTP)
	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "jane@example.com", code, model.OTPPasswordReset), ErrInvalidOTP)

	require.NoError(t, f.uc.VerifyOTP(ctx, "JANE@example.com", strings.ToLower(code), model.OTPEmailVerification))
	assert.True(t, f.repo.users["jane@example.com"].EmailVerified)

	// single use
	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "jane@example.com", code, model.OTPEmailVerification), ErrInvalidOTP)
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.uc.SendOTP(ctx, "jane@example.com", model.OTPPasswordReset))
	code := f.repo.latestCode()

	f.clock = f.clock.Add(DefaultTTL + time.Second)
	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "jane@example.com", code, model.OTPPasswordReset), ErrExpiredOTP)
}

func TestResetPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.uc.SendOTP(ctx, "jane@example.com", model.OTPPasswordReset))
	code := f.repo.latestCode()

	assert.ErrorIs(t, f.uc.ResetPassword(ctx, "jane@example.com", code, "short"), ErrWeakPassword)
	require.NoError(t, f.uc.ResetPassword(ctx, "jane@example.com", code, "correct horse"))

	hash := f.repo.users["jane@example.com"].PasswordHash
	require.NotNil(t, hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*hash), []byte("correct horse")))

	assert.ErrorIs(t, f.uc.ResetPassword(ctx, "jane@example.com", code, "another password"), ErrInvalidOTP)
}
