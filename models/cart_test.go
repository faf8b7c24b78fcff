package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testProduct(name string, price, discounted float64) *Product {
	return &Product{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Price:           price,
		DiscountedPrice: discounted,
		Images:          []Image{{ImageURL: "https://cdn.example.com/" + name + ".jpg", AssetID: name}},
	}
}

func assertTotalsConsistent(t *testing.T, c *Cart) {
	t.Helper()
	sum := 0.0
	quantity := 0
	for _, cp := range c.CartProducts {
		assert.Equal(t, Round2(float64(cp.Quantity)*cp.Price), cp.SubTotal)
		sum += cp.SubTotal
		quantity += cp.Quantity
	}
	assert.Equal(t, Round2(sum), c.TotalPrice)
	assert.Equal(t, quantity, c.TotalQuantity)
}

func TestAddProductMergesIntoSingleLine(t *testing.T) {
	p := testProduct("apples", 2.50, 0)
	cart := &Cart{User: primitive.NewObjectID()}

	cart.AddProduct(p, 2)
	cart.AddProduct(p, 3)

	require.Len(t, cart.CartProducts, 1)
	assert.Equal(t, 5, cart.CartProducts[0].Quantity)
	assert.Equal(t, 12.50, cart.CartProducts[0].SubTotal)
	assertTotalsConsistent(t, cart)
}

func TestAddProductRepricesAtCurrentPrice(t *testing.T) {
	p := testProduct("bread", 4.00, 0)
	cart := &Cart{User: primitive.NewObjectID()}
	cart.AddProduct(p, 1)

	// a discount appears before the second add; the whole line is repriced
	p.DiscountedPrice = 3.00
	cart.AddProduct(p, 1)

	require.Len(t, cart.CartProducts, 1)
	assert.Equal(t, 3.00, cart.CartProducts[0].Price)
	assert.Equal(t, 6.00, cart.CartProducts[0].SubTotal)
	assertTotalsConsistent(t, cart)
}

func TestTotalsAreSumsAfterEveryMutation(t *testing.T) {
	apples := testProduct("apples", 1.10, 0)
	milk := testProduct("milk", 3.99, 0)
	eggs := testProduct("eggs", 5.25, 4.75)
	cart := &Cart{User: primitive.NewObjectID()}

	cart.AddProduct(apples, 3)
	assertTotalsConsistent(t, cart)
	cart.AddProduct(milk, 2)
	assertTotalsConsistent(t, cart)
	cart.AddProduct(eggs, 1)
	assertTotalsConsistent(t, cart)

	assert.Equal(t, 16.03, cart.TotalPrice)
	assert.Equal(t, 6, cart.TotalQuantity)

	require.True(t, cart.SetQuantity(milk, 1))
	assertTotalsConsistent(t, cart)
	assert.Equal(t, 12.04, cart.TotalPrice)

	require.True(t, cart.RemoveProduct(apples.ID))
	assertTotalsConsistent(t, cart)
	assert.Equal(t, 8.74, cart.TotalPrice)
	assert.Equal(t, 2, cart.TotalQuantity)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	p := testProduct("tea", 6.40, 0)
	cart := &Cart{User: primitive.NewObjectID()}
	cart.AddProduct(p, 2)

	require.True(t, cart.SetQuantity(p, 0))
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0.0, cart.TotalPrice)
	assert.Equal(t, 0, cart.TotalQuantity)
}

func TestSetQuantityUnknownProduct(t *testing.T) {
	p := testProduct("tea", 6.40, 0)
	other := testProduct("coffee", 9.99, 0)
	cart := &Cart{User: primitive.NewObjectID()}
	cart.AddProduct(p, 2)

	assert.False(t, cart.SetQuantity(other, 1))
	assert.Equal(t, 2, cart.TotalQuantity)
}

func TestRemoveLastProductEmptiesCart(t *testing.T) {
	p := testProduct("tea", 6.40, 0)
	cart := &Cart{User: primitive.NewObjectID()}
	cart.AddProduct(p, 1)

	require.True(t, cart.RemoveProduct(p.ID))
	assert.True(t, cart.IsEmpty())

	assert.False(t, cart.RemoveProduct(p.ID))
}

func TestEffectivePricePrefersDiscount(t *testing.T) {
	assert.Equal(t, 4.75, testProduct("eggs", 5.25, 4.75).EffectivePrice())
	assert.Equal(t, 5.25, testProduct("eggs", 5.25, 0).EffectivePrice())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.30, Round2(1.1*3))
	assert.Equal(t, 0.30, Round2(0.1+0.2))
	assert.Equal(t, 2.67, Round2(2.665000001))
}

func TestProductIDs(t *testing.T) {
	a := testProduct("a", 1, 0)
	b := testProduct("b", 2, 0)
	cart := &Cart{User: primitive.NewObjectID()}
	cart.AddProduct(a, 1)
	cart.AddProduct(b, 1)

	assert.Equal(t, []primitive.ObjectID{a.ID, b.ID}, cart.ProductIDs())
}
