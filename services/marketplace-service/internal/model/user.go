package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role distinguishes people offering work from people hiring.
type Role string

const (
	RoleFreelancer Role = "freelancer"
	RoleClient     Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleFreelancer || r == RoleClient
}

// User represents a registered account.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Name         string        `bson:"name"`
	Role         Role          `bson:"role"`
	Verified     bool          `bson:"verified"`
	Profile      UserProfile   `bson:"profile"`
	LastLoginAt  *time.Time    `bson:"last_login_at,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

// UserProfile holds the optional professional attributes of an account.
type UserProfile struct {
	Title      string   `bson:"title"`
	Skills     []string `bson:"skills"`
	Bio        string   `bson:"bio"`
	HourlyRate float64  `bson:"hourly_rate"`
	Location   string   `bson:"location"`
}
