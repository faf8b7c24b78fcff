package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category represents a product category
type Category struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name" validate:"required"`
	Slug             string             `bson:"slug" json:"slug"`
	Image            Image              `bson:"image" json:"image"`
	NumberOfProducts int                `bson:"number_of_products" json:"numberOfProducts"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}
