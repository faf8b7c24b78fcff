package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reply is a reply left under a review
type Reply struct {
	Text      string             `bson:"text" json:"text" validate:"required"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// Review represents a product review. One review per user per product,
// enforced by a unique compound index on (product, user).
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Review    string             `bson:"review" json:"review" validate:"required"`
	Rating    float64            `bson:"rating" json:"rating" validate:"gte=0.5,lte=5"`
	Product   primitive.ObjectID `bson:"product" json:"product"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
