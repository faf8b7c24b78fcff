package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	StatusReceived  = "Order Received"
	StatusPaid      = "Paid"
	StatusOnTheWay  = "On the way"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

// Payment methods
const (
	PaymentStripe = "Stripe"
	PaymentPaypal = "Paypal"
)

// Order represents a purchase. Ordered products are a snapshot of the cart
// lines at payment time; catalog edits never alter historical orders.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber     int64              `bson:"order_number" json:"orderNumber"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	OrderedProducts []CartProduct      `bson:"ordered_products" json:"orderedProducts"`
	TotalPrice      float64            `bson:"total_price" json:"totalPrice"`
	DeliveryFee     float64            `bson:"delivery_fee" json:"deliveryFee"`
	Address         Address            `bson:"address" json:"address"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	// CheckoutSession carries the gateway's correlation id. One order per
	// session, which makes duplicate webhook delivery a no-op. Manually
	// placed orders have none; omitempty keeps them out of the unique
	// partial index on this field.
	CheckoutSession string     `bson:"checkout_session,omitempty" json:"-"`
	Status          string     `bson:"status" json:"status"`
	IsPaid          bool       `bson:"is_paid" json:"isPaid"`
	IsDelivered     bool       `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updatedAt"`
}

// allowed forward transitions of the order lifecycle
var orderTransitions = map[string][]string{
	StatusReceived:  {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusOnTheWay, StatusCancelled},
	StatusOnTheWay:  {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusOnTheWay},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTo moves the order to the given status, keeping the payment and
// delivery bookkeeping consistent: Paid sets IsPaid, Delivered stamps
// DeliveredAt and sets IsDelivered, leaving Delivered clears both.
func (o *Order) TransitionTo(status string, now time.Time) error {
	if !CanTransition(o.Status, status) {
		return fmt.Errorf("order %s: cannot change status from %q to %q", o.ID.Hex(), o.Status, status)
	}
	o.Status = status
	if status == StatusPaid {
		o.IsPaid = true
	}
	if status == StatusDelivered {
		o.IsDelivered = true
		t := now
		o.DeliveredAt = &t
	} else {
		o.IsDelivered = false
		o.DeliveredAt = nil
	}
	return nil
}

// CanBeCancelledBy reports whether the given user may cancel this order.
// Owners may cancel their own order while it is not delivered; admins may
// cancel any non-delivered order.
func (o *Order) CanBeCancelledBy(userID primitive.ObjectID, role string) bool {
	if !CanTransition(o.Status, StatusCancelled) {
		return false
	}
	return o.User == userID || role == RoleAdmin
}
