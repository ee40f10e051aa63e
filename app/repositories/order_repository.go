package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/madina/app/models"
)

// OrderRepository handles persistence for order documents. All status
// transitions are guarded compare-and-set updates so that duplicate or
// racing requests cannot repeat a terminal transition.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(ordersCollection)}
}

// Create persists a new order with both status axes at Pending.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	order.Status = models.FulfillmentPending
	order.PayStatus = models.PaymentPending
	order.CreatedAt = time.Now().UTC()

	_, err := r.col.InsertOne(ctx, order)
	return wrapWriteErr(err)
}

// FindByID looks up an order by primary key.
func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &order, nil
}

// ByConsumer returns every order placed by the given consumer.
func (r *OrderRepository) ByConsumer(ctx context.Context, consumerID primitive.ObjectID) ([]models.Order, error) {
	cur, err := r.col.Find(ctx, bson.M{"consumer_id": consumerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SetPaymentID records the gateway payment id issued for this order,
// marking the payment-link workflow step complete.
func (r *OrderRepository) SetPaymentID(ctx context.Context, id primitive.ObjectID, paymentID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_id": paymentID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid flips the payment axis Pending → Paid. The filter requires the
// status to still be Pending, so a second capture for the same order matches
// nothing and reports ErrConflict.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "payment_status": models.PaymentPending},
		bson.M{"$set": bson.M{"payment_status": models.PaymentPaid}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// MarkDelivered flips the fulfillment axis Pending → delivered, guarded the
// same way as MarkPaid.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.FulfillmentPending},
		bson.M{"$set": bson.M{"status": models.FulfillmentDelivered}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// MarkNotified records that the fulfillment code was dispatched.
func (r *OrderRepository) MarkNotified(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"notified_at": at}},
	)
	return err
}

// FindStalled returns orders stuck at a known intermediate workflow state
// older than cutoff: created but never given a payment link, or paid but
// never notified. The recovery sweep retries those steps.
func (r *OrderRepository) FindStalled(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	filter := bson.M{
		"created_at": bson.M{"$lt": cutoff},
		"$or": []bson.M{
			{"payment_status": models.PaymentPending, "payment_id": bson.M{"$in": []interface{}{nil, ""}}},
			{"payment_status": models.PaymentPaid, "notified_at": nil},
		},
	}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
