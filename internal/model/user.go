package model

import "time"

type OTPType string

const (
	OTPEmailVerification OTPType = "email_verification"
	OTPPasswordReset     OTPType = "password_reset"
)

func (t OTPType) Valid() bool {
	return t == OTPEmailVerification || t == OTPPasswordReset
}

type User struct {
	BaseModel
	Email         string  `db:"email" json:"email"`
	Name          string  `db:"name" json:"name"`
	PasswordHash  *string `db:"password_hash" json:"-"`
	EmailVerified bool    `db:"email_verified" json:"email_verified"`
}

type OTP struct {
	ID         string     `db:"id"`
	Email      string     `db:"email"`
	Code       string     `db:"code"`
	Type       OTPType    `db:"type"`
	ExpiresAt  time.Time  `db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
	CreatedAt  time.Time  `db:"created_at"`
}
