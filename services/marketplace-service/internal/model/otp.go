package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OTPPurpose scopes a one-time code to the flow that issued it.
type OTPPurpose string

const (
	OTPPurposeRegistration  OTPPurpose = "registration"
	OTPPurposePasswordReset OTPPurpose = "password-reset"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeRegistration || p == OTPPurposePasswordReset
}

// OTP is a one-time numeric code proving control of an email address.
type OTP struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Code      string        `bson:"code"`
	Purpose   OTPPurpose    `bson:"purpose"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

// Expired reports whether the code is past its expiry at now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
