package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// VerificationGrant backs one email verification token. The token is accepted only
// while its grant exists, and the grant is removed on first use.
type VerificationGrant struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	TokenID   string        `bson:"token_id"`
	Email     string        `bson:"email"`
	Purpose   OTPPurpose    `bson:"purpose"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}
