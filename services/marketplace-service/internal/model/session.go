package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Session represents an authenticated login. The session token carries its ID, so deleting
// the document revokes the token.
type Session struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	IPAddress *string       `bson:"ip_address"`
	UserAgent *string       `bson:"user_agent"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}
