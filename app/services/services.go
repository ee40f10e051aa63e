// Package services holds the business workflows behind the HTTP handlers.
// Services depend on narrow store and gateway interfaces so tests can swap
// in fakes; the concrete implementations live in app/repositories and
// internal/paypal.
package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/models"
)

var (
	// ErrWrongPassword is returned when a credential check fails.
	ErrWrongPassword = errors.New("password is wrong")

	// ErrNotOwner is returned when an authenticated identity does not own
	// the entity it is acting on.
	ErrNotOwner = errors.New("identity does not own this resource")

	// ErrAlreadyCaptured is returned when a capture is attempted on an
	// order whose payment status already left Pending.
	ErrAlreadyCaptured = errors.New("payment already captured")

	// ErrAlreadyDelivered is returned when a scan targets an order already
	// marked delivered.
	ErrAlreadyDelivered = errors.New("order already delivered")
)

// UserStore is the slice of UserRepository the services need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	All(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// DeliveryStore is the slice of DeliveryRepository the services need.
type DeliveryStore interface {
	Create(ctx context.Context, delivery *models.Delivery) error
	FindByEmail(ctx context.Context, email string) (*models.Delivery, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error)
}

// ProductStore is the slice of ProductRepository the services need.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	Page(ctx context.Context, page, limit int) ([]models.Product, error)
	ByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Product, error)
}

// OrderStore is the slice of OrderRepository the services need.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ByConsumer(ctx context.Context, consumerID primitive.ObjectID) ([]models.Order, error)
	SetPaymentID(ctx context.Context, id primitive.ObjectID, paymentID string) error
	MarkPaid(ctx context.Context, id primitive.ObjectID) error
	MarkDelivered(ctx context.Context, id primitive.ObjectID) error
	MarkNotified(ctx context.Context, id primitive.ObjectID, at time.Time) error
	FindStalled(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

// PaymentGateway is the external payment bridge contract.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, orderID string, total float64, returnURL, cancelURL string) (paymentID, approvalURL string, err error)
	ExecutePayment(ctx context.Context, paymentID, payerID string, total float64) error
}
