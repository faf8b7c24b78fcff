package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// Address represents a delivery address, embedded in users and snapshotted on orders
type Address struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	PhoneNumber string             `bson:"phone_number" json:"phoneNumber" validate:"required"`
	City        string             `bson:"city" json:"city" validate:"required"`
	Address1    string             `bson:"address1" json:"address1" validate:"required"`
	Address2    string             `bson:"address2,omitempty" json:"address2,omitempty"`
	PostalCode  string             `bson:"postal_code" json:"postalCode" validate:"required"`
}

// User represents a user in the system
type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string               `bson:"name" json:"name"`
	Username         string               `bson:"username" json:"username"`
	Email            string               `bson:"email" json:"email"`
	Photo            string               `bson:"photo,omitempty" json:"photo,omitempty"`
	Password         string               `bson:"password,omitempty" json:"-"`
	Role             string               `bson:"role" json:"role"`     // "user", "admin" or "manager"
	Status           string               `bson:"status" json:"status"` // "pending", "active" or "inactive"
	PhoneNumber      string               `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	Addresses        []Address            `bson:"addresses" json:"addresses"`
	Wishlisted       []primitive.ObjectID `bson:"wishlisted" json:"wishlisted"`
	Compare          []primitive.ObjectID `bson:"compare" json:"compare"`
	OrderedProducts  []primitive.ObjectID `bson:"ordered_products" json:"orderedProducts"`
	VerificationCode string               `bson:"verification_code,omitempty" json:"-"`
	VerificationExp  time.Time            `bson:"verification_expires,omitempty" json:"-"`
	// ResetToken holds the SHA-256 of the emailed reset token, never the
	// token itself.
	ResetToken    string    `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExp time.Time `bson:"reset_token_expires,omitempty" json:"-"`
	CreatedAt        time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updatedAt"`
}

// AddressByID returns the embedded address with the given id.
func (u *User) AddressByID(id primitive.ObjectID) (Address, bool) {
	for _, a := range u.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
