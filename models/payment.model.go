package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses
const (
	PaymentPending  = "Pending"
	PaymentCaptured = "Captured"
)

// Payment is a locally persisted pending gateway payment. The PayPal flow
// creates one when the remote order is created and resolves it at capture
// time; it carries the correlation data the materializer needs.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Provider      string             `bson:"provider" json:"provider"` // "Stripe" or "Paypal"
	RemoteOrderID string             `bson:"remote_order_id" json:"remoteOrderId"`
	AddressID     primitive.ObjectID `bson:"address_id" json:"addressId"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Amount        float64            `bson:"amount" json:"amount"`
	Status        string             `bson:"status" json:"status"` // "Pending" or "Captured"
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
}
