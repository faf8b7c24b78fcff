package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// News represents a news article shown on the storefront
type News struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title     string             `bson:"title" json:"title" validate:"required"`
	Text      string             `bson:"text" json:"text" validate:"required"`
	Images    []Image            `bson:"images" json:"images" validate:"required,min=1,dive"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
