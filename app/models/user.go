package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/pkg/rbac"
)

// User is an account document: a consumer, vendor or admin.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"` // bcrypt, never serialised
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Street       string             `bson:"street,omitempty" json:"street,omitempty"`
	Apartment    string             `bson:"apartment,omitempty" json:"apartment,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Zip          string             `bson:"zip,omitempty" json:"zip,omitempty"`
	Country      string             `bson:"country,omitempty" json:"country,omitempty"`
	Role         rbac.Role          `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
