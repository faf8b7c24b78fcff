package models

import (
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartProduct is a priced line in a cart. Name, image and price are copied
// from the product at add-time so the cart renders without extra lookups.
type CartProduct struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image" json:"image"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	SubTotal  float64            `bson:"sub_total" json:"subTotal"`
}

// Cart represents a user's shopping cart. There is at most one per user
// (unique index on user). Version guards concurrent read-modify-write.
type Cart struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	CartProducts  []CartProduct      `bson:"cart_products" json:"cartProducts"`
	TotalPrice    float64            `bson:"total_price" json:"totalPrice"`
	TotalQuantity int                `bson:"total_quantity" json:"totalQuantity"`
	Version       int64              `bson:"version" json:"-"`
}

// Round2 rounds a monetary value to 2 decimal places. Every price
// computation goes through this so totals never accumulate float drift.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// recalculate rebuilds both aggregates from the lines. Totals are always
// recomputed by summation, never adjusted incrementally.
func (c *Cart) recalculate() {
	total := 0.0
	quantity := 0
	for _, cp := range c.CartProducts {
		total += cp.SubTotal
		quantity += cp.Quantity
	}
	c.TotalPrice = Round2(total)
	c.TotalQuantity = quantity
}

// lineIndex returns the index of the line holding productID, or -1.
func (c *Cart) lineIndex(productID primitive.ObjectID) int {
	for i, cp := range c.CartProducts {
		if cp.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddProduct merges quantity of p into the cart. An already present
// product keeps a single line: its quantity grows and the line is repriced
// at the product's current effective price.
func (c *Cart) AddProduct(p *Product, quantity int) {
	price := Round2(p.EffectivePrice())
	if i := c.lineIndex(p.ID); i >= 0 {
		line := &c.CartProducts[i]
		line.Quantity += quantity
		line.Price = price
		line.SubTotal = Round2(float64(line.Quantity) * price)
	} else {
		c.CartProducts = append(c.CartProducts, CartProduct{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			Price:     price,
			Quantity:  quantity,
			SubTotal:  Round2(float64(quantity) * price),
		})
	}
	c.recalculate()
}

// SetQuantity sets the absolute quantity of the line holding the product,
// repricing it at the product's current effective price. Quantity 0 removes
// the line. Returns false when the product is not in the cart.
func (c *Cart) SetQuantity(p *Product, quantity int) bool {
	i := c.lineIndex(p.ID)
	if i < 0 {
		return false
	}
	if quantity == 0 {
		c.CartProducts = append(c.CartProducts[:i], c.CartProducts[i+1:]...)
	} else {
		price := Round2(p.EffectivePrice())
		line := &c.CartProducts[i]
		line.Quantity = quantity
		line.Price = price
		line.SubTotal = Round2(float64(quantity) * price)
	}
	c.recalculate()
	return true
}

// RemoveProduct deletes the whole line for productID. Returns false when
// the product is not in the cart.
func (c *Cart) RemoveProduct(productID primitive.ObjectID) bool {
	i := c.lineIndex(productID)
	if i < 0 {
		return false
	}
	c.CartProducts = append(c.CartProducts[:i], c.CartProducts[i+1:]...)
	c.recalculate()
	return true
}

// IsEmpty reports whether the cart has no lines left. An empty cart is
// deleted from the database rather than stored.
func (c *Cart) IsEmpty() bool {
	return len(c.CartProducts) == 0
}

// ProductIDs returns the ids of all products in the cart.
func (c *Cart) ProductIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(c.CartProducts))
	for _, cp := range c.CartProducts {
		ids = append(ids, cp.ProductID)
	}
	return ids
}
