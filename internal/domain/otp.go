package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPPurpose separates signup codes from password reset codes.
type OTPPurpose string

const (
	OTPSignup        OTPPurpose = "signup"
	OTPPasswordReset OTPPurpose = "password_reset"
)

// OTP is a pending one-time code. For signups it also carries the account
// data that becomes a User once the code is verified.
type OTP struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Purpose      OTPPurpose         `bson:"purpose"`
	CodeHash     string             `bson:"codeHash"`
	Attempts     int                `bson:"attempts"`
	Name         string             `bson:"name,omitempty"`
	PasswordHash string             `bson:"passwordHash,omitempty"`
	ExpiresAt    time.Time          `bson:"expiresAt"`
	CreatedAt    time.Time          `bson:"createdAt"`
}
