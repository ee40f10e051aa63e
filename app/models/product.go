package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Product is a catalogue entry owned by a vendor.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Image        string             `bson:"image,omitempty" json:"image,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Category     string             `bson:"category" json:"category"`
	CountInStock int                `bson:"count_in_stock" json:"countInStock"` // 0..255
	Rating       float64            `bson:"rating" json:"rating"`               // 0..5
	NumReviews   int                `bson:"num_reviews" json:"numReviews"`
	IsFeatured   bool               `bson:"is_featured" json:"isFeatured"`
	VendorID     primitive.ObjectID `bson:"vendor_id" json:"vendorId"`
}
