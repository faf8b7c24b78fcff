package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/database"
	"groceteria/models"
)

type fakeCarts struct {
	carts   map[primitive.ObjectID]*models.Cart
	deleted []primitive.ObjectID
}

func (f *fakeCarts) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return c, nil
}

func (f *fakeCarts) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	delete(f.carts, userID)
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeOrders struct {
	bySession map[string]*models.Order
	placed    []*models.Order
	insertErr error
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if order.CheckoutSession == "" {
		f.placed = append(f.placed, order)
		return nil
	}
	if _, ok := f.bySession[order.CheckoutSession]; ok {
		return database.ErrConflict
	}
	f.bySession[order.CheckoutSession] = order
	return nil
}

func (f *fakeOrders) FindBySession(_ context.Context, sessionID string) (*models.Order, error) {
	o, ok := f.bySession[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return o, nil
}

type fakeUsers struct {
	users    map[primitive.ObjectID]*models.User
	mergeErr error
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) MergeOrderedProducts(_ context.Context, id primitive.ObjectID, productIDs []primitive.ObjectID) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	u := f.users[id]
	for _, pid := range productIDs {
		seen := false
		for _, existing := range u.OrderedProducts {
			if existing == pid {
				seen = true
				break
			}
		}
		if !seen {
			u.OrderedProducts = append(u.OrderedProducts, pid)
		}
	}
	return nil
}

type fakeSequencer struct{ n int64 }

func (f *fakeSequencer) Next(_ context.Context, _ string) (int64, error) {
	f.n++
	return f.n, nil
}

type fakeTxn struct{}

func (fakeTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	m       *Materializer
	carts   *fakeCarts
	orders  *fakeOrders
	users   *fakeUsers
	user    *models.User
	address models.Address
	cart    *models.Cart
}

func newFixture(t *testing.T, subtotal float64) *fixture {
	t.Helper()
	address := models.Address{
		ID:          primitive.NewObjectID(),
		Name:        "Home",
		PhoneNumber: "555-0100",
		City:        "Springfield",
		Address1:    "12 Oak St",
		PostalCode:  "49007",
	}
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Email:     "shopper@example.com",
		Role:      models.RoleUser,
		Addresses: []models.Address{address},
	}
	cart := &models.Cart{
		User: user.ID,
		CartProducts: []models.CartProduct{
			{ProductID: primitive.NewObjectID(), Name: "apples", Price: subtotal, Quantity: 1, SubTotal: subtotal},
		},
		TotalPrice:    subtotal,
		TotalQuantity: 1,
	}

	carts := &fakeCarts{carts: map[primitive.ObjectID]*models.Cart{user.ID: cart}}
	orders := &fakeOrders{bySession: map[string]*models.Order{}}
	users := &fakeUsers{users: map[primitive.ObjectID]*models.User{user.ID: user}}

	return &fixture{
		m: &Materializer{
			Carts:    carts,
			Orders:   orders,
			Users:    users,
			Counters: &fakeSequencer{},
			Txn:      fakeTxn{},
			Fees:     FeePolicy{FreeOver: 50, Fee: 5},
			Logger:   zap.NewNop(),
		},
		carts:   carts,
		orders:  orders,
		users:   users,
		user:    user,
		address: address,
		cart:    cart,
	}
}

func (f *fixture) ref(session string) Ref {
	return Ref{
		UserID:    f.user.ID,
		AddressID: f.address.ID,
		Notes:     "leave at door",
		SessionID: session,
		Method:    models.PaymentStripe,
	}
}

func TestMaterializeCreatesOrder(t *testing.T) {
	f := newFixture(t, 45)

	order, created, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, int64(1), order.OrderNumber)
	assert.Equal(t, f.user.ID, order.User)
	assert.Equal(t, f.cart.CartProducts, order.OrderedProducts)
	assert.Equal(t, 5.0, order.DeliveryFee)
	assert.Equal(t, 50.0, order.TotalPrice)
	assert.Equal(t, f.address, order.Address)
	assert.Equal(t, "leave at door", order.Notes)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.True(t, order.IsPaid)
	assert.False(t, order.IsDelivered)

	// cart is consumed and the products enter the purchase history
	assert.Equal(t, []primitive.ObjectID{f.user.ID}, f.carts.deleted)
	assert.Len(t, f.users.users[f.user.ID].OrderedProducts, 1)
}

func TestMaterializeFreeDeliveryAtThreshold(t *testing.T) {
	f := newFixture(t, 60)

	order, _, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.DeliveryFee)
	assert.Equal(t, 60.0, order.TotalPrice)
}

func TestMaterializeDuplicateSessionIsNoOp(t *testing.T) {
	f := newFixture(t, 45)

	first, created, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.NoError(t, err)
	require.True(t, created)

	// second delivery of the same session: same order back, nothing new
	again, created, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, again)
	assert.Len(t, f.orders.bySession, 1)
	assert.Len(t, f.carts.deleted, 1)
}

func TestMaterializeInsertConflictReturnsExisting(t *testing.T) {
	f := newFixture(t, 45)
	winner := &models.Order{OrderNumber: 7, CheckoutSession: "cs_1"}
	f.orders.insertErr = database.ErrConflict
	f.orders.bySession["cs_1"] = winner

	// the pre-check misses, the insert loses the race
	orders := &racingOrders{inner: f.orders}
	f.m.Orders = orders

	order, created, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, winner, order)
}

// racingOrders makes the first FindBySession miss, simulating a concurrent
// delivery that lands between the pre-check and the insert.
type racingOrders struct {
	inner  *fakeOrders
	looked bool
}

func (r *racingOrders) Insert(ctx context.Context, order *models.Order) error {
	return r.inner.Insert(ctx, order)
}

func (r *racingOrders) FindBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	if !r.looked {
		r.looked = true
		return nil, database.ErrNotFound
	}
	return r.inner.FindBySession(ctx, sessionID)
}

func TestMaterializePurchaseHistoryIsSetUnion(t *testing.T) {
	f := newFixture(t, 45)
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()
	f.user.OrderedProducts = []primitive.ObjectID{a, b}
	f.cart.CartProducts = []models.CartProduct{
		{ProductID: b, Name: "milk", Price: 3.99, Quantity: 1, SubTotal: 3.99},
		{ProductID: c, Name: "eggs", Price: 4.75, Quantity: 1, SubTotal: 4.75},
	}

	_, _, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b, c}, f.users.users[f.user.ID].OrderedProducts)
}

func TestMaterializeMissingUser(t *testing.T) {
	f := newFixture(t, 45)
	ref := f.ref("cs_1")
	ref.UserID = primitive.NewObjectID()

	_, _, err := f.m.Materialize(context.Background(), ref)
	assert.ErrorIs(t, err, ErrUserGone)
	assert.Empty(t, f.orders.bySession)
}

func TestMaterializeMissingCart(t *testing.T) {
	f := newFixture(t, 45)
	delete(f.carts.carts, f.user.ID)

	_, _, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	assert.ErrorIs(t, err, ErrCartGone)
	assert.Empty(t, f.orders.bySession)
}

func TestMaterializeMissingAddress(t *testing.T) {
	f := newFixture(t, 45)
	ref := f.ref("cs_1")
	ref.AddressID = primitive.NewObjectID()

	_, _, err := f.m.Materialize(context.Background(), ref)
	assert.ErrorIs(t, err, ErrAddressGone)
	assert.Empty(t, f.orders.bySession)
}

func TestMaterializeHistoryMergeFailurePropagates(t *testing.T) {
	f := newFixture(t, 45)
	f.users.mergeErr = errors.New("write concern timeout")

	_, created, err := f.m.Materialize(context.Background(), f.ref("cs_1"))
	require.Error(t, err)
	assert.False(t, created)
}

func TestPlaceCreatesUnpaidReceivedOrder(t *testing.T) {
	f := newFixture(t, 45)

	order, err := f.m.Place(context.Background(), f.user.ID, f.address.ID, models.PaymentPaypal, "call on arrival")
	require.NoError(t, err)

	assert.Equal(t, int64(1), order.OrderNumber)
	assert.Equal(t, models.StatusReceived, order.Status)
	assert.False(t, order.IsPaid)
	assert.Empty(t, order.CheckoutSession)
	assert.Equal(t, 5.0, order.DeliveryFee)
	assert.Equal(t, 50.0, order.TotalPrice)
	assert.Equal(t, f.address, order.Address)
	assert.Equal(t, "call on arrival", order.Notes)

	// the cart is consumed just like a paid checkout
	assert.Equal(t, []primitive.ObjectID{f.user.ID}, f.carts.deleted)
	assert.Len(t, f.users.users[f.user.ID].OrderedProducts, 1)

	// and the received order can move through the paid lifecycle
	assert.True(t, models.CanTransition(order.Status, models.StatusPaid))
}

func TestPlaceMissingAddress(t *testing.T) {
	f := newFixture(t, 45)

	_, err := f.m.Place(context.Background(), f.user.ID, primitive.NewObjectID(), models.PaymentPaypal, "")
	assert.ErrorIs(t, err, ErrAddressGone)
	assert.Empty(t, f.orders.placed)
}

func TestFeePolicy(t *testing.T) {
	p := FeePolicy{FreeOver: 50, Fee: 5}
	assert.Equal(t, 5.0, p.For(49.99))
	assert.Equal(t, 0.0, p.For(50))
	assert.Equal(t, 0.0, p.For(120.75))
}
