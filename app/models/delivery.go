package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/pkg/rbac"
)

// Delivery is a delivery-agent document. Agents are not regular accounts:
// they are created by a vendor and may only fulfill that vendor's orders.
type Delivery struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone" json:"phone"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	VendorID     primitive.ObjectID `bson:"vendor_id" json:"vendor_id"`
	Role         rbac.Role          `bson:"role" json:"role"` // always rbac.RoleDelivery
}
