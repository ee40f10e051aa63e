package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/madina/app/models"
)

// DeliveryRepository handles persistence for delivery-agent documents.
type DeliveryRepository struct {
	col *mongo.Collection
}

func NewDeliveryRepository(db *mongo.Database) *DeliveryRepository {
	return &DeliveryRepository{col: db.Collection(deliveriesCollection)}
}

// EnsureIndexes creates the unique email index. Safe to call repeatedly.
func (r *DeliveryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create persists a new delivery agent and fills in its generated id.
func (r *DeliveryRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	delivery.ID = primitive.NewObjectID()
	_, err := r.col.InsertOne(ctx, delivery)
	return wrapWriteErr(err)
}

// FindByEmail looks up a delivery agent by email.
func (r *DeliveryRepository) FindByEmail(ctx context.Context, email string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&delivery)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &delivery, nil
}

// FindByID looks up a delivery agent by primary key.
func (r *DeliveryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&delivery)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &delivery, nil
}
