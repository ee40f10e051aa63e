// Package repositories persists the domain documents, one MongoDB collection
// per entity: users, deliveries, products, orders.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateEmail is returned when a unique email index is violated.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrConflict is returned when a guarded update matched no document,
	// i.e. another request already moved the document past the expected state.
	ErrConflict = errors.New("document state changed concurrently")
)

const (
	usersCollection      = "users"
	deliveriesCollection = "deliveries"
	productsCollection   = "products"
	ordersCollection     = "orders"
)

// Connect opens a MongoDB client and verifies the connection with a ping.
func Connect(ctx context.Context, uri, db string) (*mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("repositories: connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("repositories: ping: %w", err)
	}

	return client.Database(db), nil
}

// wrapWriteErr translates driver errors into the package sentinels.
func wrapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

// wrapFindErr translates driver errors into the package sentinels.
func wrapFindErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
