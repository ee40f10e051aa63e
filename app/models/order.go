package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FulfillmentStatus tracks the physical delivery axis of an order.
type FulfillmentStatus string

// PaymentStatus tracks the monetary capture axis of an order.
// The two axes are independent and never collapsed into one field.
type PaymentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "Pending"
	FulfillmentDelivered FulfillmentStatus = "delivered"

	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// Order references its products by id; the product list is never an inlined
// cart snapshot.
type Order struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ProductIDs  []primitive.ObjectID `bson:"product_ids" json:"products"`
	ConsumerID  primitive.ObjectID   `bson:"consumer_id" json:"consumer"`
	VendorID    primitive.ObjectID   `bson:"vendor_id" json:"vendor"`
	TotalAmount float64              `bson:"total_amount" json:"totalAmount"`
	Status      FulfillmentStatus    `bson:"status" json:"status"`
	PayStatus   PaymentStatus        `bson:"payment_status" json:"paymentStatus"`

	// Workflow step markers. PaymentID is set once the gateway issued an
	// approval link; NotifiedAt once the fulfillment code was dispatched.
	// The recovery sweep uses them to find orders stuck between steps.
	PaymentID  string     `bson:"payment_id,omitempty" json:"-"`
	NotifiedAt *time.Time `bson:"notified_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
