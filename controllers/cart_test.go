package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/database"
	"groceteria/middleware"
	"groceteria/models"
	"groceteria/utils"
)

type memCarts struct {
	carts map[primitive.ObjectID]*models.Cart
}

func (m *memCarts) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return c, nil
}

func (m *memCarts) Insert(_ context.Context, cart *models.Cart) error {
	if _, ok := m.carts[cart.User]; ok {
		return database.ErrConflict
	}
	cart.ID = primitive.NewObjectID()
	cart.Version = 1
	m.carts[cart.User] = cart
	return nil
}

func (m *memCarts) Update(_ context.Context, cart *models.Cart) error {
	cart.Version++
	m.carts[cart.User] = cart
	return nil
}

func (m *memCarts) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	if _, ok := m.carts[userID]; !ok {
		return database.ErrNotFound
	}
	delete(m.carts, userID)
	return nil
}

type memProducts struct {
	products map[primitive.ObjectID]*models.Product
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return p, nil
}

type cartFixture struct {
	cc      *CartController
	carts   *memCarts
	userID  primitive.ObjectID
	product *models.Product
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	product := &models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "apples",
		Price: 2.50,
	}
	carts := &memCarts{carts: map[primitive.ObjectID]*models.Cart{}}
	products := &memProducts{products: map[primitive.ObjectID]*models.Product{product.ID: product}}
	return &cartFixture{
		cc:      NewCartController(carts, products, zap.NewNop()),
		carts:   carts,
		userID:  primitive.NewObjectID(),
		product: product,
	}
}

func (f *cartFixture) request(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, &utils.Claims{
		UserID: f.userID.Hex(),
		Role:   models.RoleUser,
	})
	return req.WithContext(ctx)
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAddToCartCreatesCart(t *testing.T) {
	f := newCartFixture(t)

	rec := httptest.NewRecorder()
	f.cc.AddToCart(rec, f.request(t, http.MethodPost, "/cart", map[string]interface{}{
		"productId": f.product.ID.Hex(),
		"quantity":  2,
	}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	cart := f.carts.carts[f.userID]
	require.NotNil(t, cart)
	assert.Equal(t, 5.0, cart.TotalPrice)
}

func TestDeleteLastProductRemovesCartDocument(t *testing.T) {
	f := newCartFixture(t)
	cart := &models.Cart{User: f.userID}
	cart.AddProduct(f.product, 1)
	f.carts.carts[f.userID] = cart

	rec := httptest.NewRecorder()
	f.cc.DeleteProductFromCart(rec, f.request(t, http.MethodPatch, "/cart/delete-product", map[string]interface{}{
		"productId": f.product.ID.Hex(),
	}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.NotContains(t, f.carts.carts, f.userID)

	// a follow-up read reports no cart at all
	rec = httptest.NewRecorder()
	f.cc.GetMyCart(rec, f.request(t, http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	out := envelope(t, rec)
	assert.Equal(t, "success", out["status"])
	assert.Nil(t, out["data"])
}

func TestUpdateCartToZeroQuantityRemovesCartDocument(t *testing.T) {
	f := newCartFixture(t)
	cart := &models.Cart{User: f.userID}
	cart.AddProduct(f.product, 3)
	f.carts.carts[f.userID] = cart

	rec := httptest.NewRecorder()
	f.cc.UpdateCart(rec, f.request(t, http.MethodPatch, "/cart", map[string]interface{}{
		"productId": f.product.ID.Hex(),
		"quantity":  0,
	}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, f.carts.carts, f.userID)

	rec = httptest.NewRecorder()
	f.cc.GetMyCart(rec, f.request(t, http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, envelope(t, rec)["data"])
}

func TestDeleteProductKeepsCartWithRemainingLines(t *testing.T) {
	f := newCartFixture(t)
	other := &models.Product{ID: primitive.NewObjectID(), Name: "milk", Price: 3.99}
	cart := &models.Cart{User: f.userID}
	cart.AddProduct(f.product, 1)
	cart.AddProduct(other, 1)
	f.carts.carts[f.userID] = cart

	rec := httptest.NewRecorder()
	f.cc.DeleteProductFromCart(rec, f.request(t, http.MethodPatch, "/cart/delete-product", map[string]interface{}{
		"productId": f.product.ID.Hex(),
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	remaining := f.carts.carts[f.userID]
	require.NotNil(t, remaining)
	require.Len(t, remaining.CartProducts, 1)
	assert.Equal(t, other.ID, remaining.CartProducts[0].ProductID)
	assert.Equal(t, 3.99, remaining.TotalPrice)
}
