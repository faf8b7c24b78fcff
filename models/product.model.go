package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image is a hosted image reference
type Image struct {
	ImageURL string `bson:"image_url" json:"imageUrl" validate:"required"`
	AssetID  string `bson:"asset_id" json:"assetId" validate:"required"`
}

// Product represents a catalog product
type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name" json:"name" validate:"required"`
	Slug            string             `bson:"slug" json:"slug"`
	Price           float64            `bson:"price" json:"price" validate:"gte=0"`
	DiscountedPrice float64            `bson:"discounted_price" json:"discountedPrice" validate:"gte=0"`
	Description     string             `bson:"description" json:"description" validate:"required"`
	Features        string             `bson:"features,omitempty" json:"features,omitempty"`
	Weight          string             `bson:"weight,omitempty" json:"weight,omitempty"`
	BrandName       string             `bson:"brand_name,omitempty" json:"brandName,omitempty"`
	Store           string             `bson:"store" json:"store" validate:"required"`
	Category        primitive.ObjectID `bson:"category" json:"category" validate:"required"`
	Images          []Image            `bson:"images" json:"images" validate:"required,min=1,dive"`
	InStock         bool               `bson:"in_stock" json:"inStock"`
	RatingsAverage  float64            `bson:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int                `bson:"ratings_quantity" json:"ratingsQuantity"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// EffectivePrice is the price a cart line is charged at: the discounted
// price when one is set, otherwise the regular price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}

// PrimaryImage returns the url of the first image, or "" when none exist.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].ImageURL
}
