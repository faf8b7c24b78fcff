package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/database"
	"groceteria/models"
)

// Ref correlates a confirmed gateway payment with the originating user and
// cart. It is encoded into the gateway session when checkout starts and
// decoded from the completion event.
type Ref struct {
	UserID    primitive.ObjectID
	AddressID primitive.ObjectID
	Notes     string
	SessionID string // gateway correlation id, unique per checkout
	Method    string // models.PaymentStripe or models.PaymentPaypal
}

// Materialization errors reported back to the gateway/caller.
var (
	ErrUserGone    = errors.New("checkout: user no longer exists")
	ErrCartGone    = errors.New("checkout: cart no longer exists")
	ErrAddressGone = errors.New("checkout: delivery address not found")
)

// CartStore is the slice of the cart repository the materializer needs.
type CartStore interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// OrderStore creates orders and resolves correlation ids to existing ones.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindBySession(ctx context.Context, sessionID string) (*models.Order, error)
}

// UserStore resolves users and maintains their purchase history.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	MergeOrderedProducts(ctx context.Context, id primitive.ObjectID, productIDs []primitive.ObjectID) error
}

// Sequencer hands out order numbers.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// TxnRunner runs the materialization writes as one atomic unit.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// FeePolicy computes the delivery fee: free at or above the threshold, a
// flat fee below it.
type FeePolicy struct {
	FreeOver float64
	Fee      float64
}

func (p FeePolicy) For(subtotal float64) float64 {
	if subtotal >= p.FreeOver {
		return 0
	}
	return p.Fee
}

// Materializer turns a confirmed payment into a durable order plus its side
// effects, exactly once per checkout session.
type Materializer struct {
	Carts    CartStore
	Orders   OrderStore
	Users    UserStore
	Counters Sequencer
	Txn      TxnRunner
	Fees     FeePolicy
	Logger   *zap.Logger
}

// Materialize creates the order for a confirmed payment. It returns the
// order and whether this call created it; a duplicate delivery of the same
// session finds the existing order and reports created=false.
//
// Order creation, cart deletion and the purchase-history merge run inside
// one transaction: a failure partway through leaves no partial state.
func (m *Materializer) Materialize(ctx context.Context, ref Ref) (*models.Order, bool, error) {
	if existing, err := m.Orders.FindBySession(ctx, ref.SessionID); err == nil {
		m.Logger.Info("duplicate payment confirmation, order already materialized",
			zap.String("session", ref.SessionID),
			zap.Int64("order_number", existing.OrderNumber),
		)
		return existing, false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	order, cart, err := m.draft(ctx, ref.UserID, ref.AddressID, ref.Method, ref.Notes)
	if err != nil {
		return nil, false, err
	}
	order.CheckoutSession = ref.SessionID
	order.Status = models.StatusPaid
	order.IsPaid = true

	err = m.commit(ctx, order, cart)
	if errors.Is(err, database.ErrConflict) {
		// lost the race against a concurrent delivery of the same session
		existing, ferr := m.Orders.FindBySession(ctx, ref.SessionID)
		if ferr != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	m.Logger.Info("order materialized",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("user", order.User.Hex()),
		zap.String("method", ref.Method),
		zap.Float64("total", order.TotalPrice),
	)
	return order, true, nil
}

// Place creates an order directly from the user's current cart, without a
// payment gateway in the loop. The order starts unpaid in StatusReceived
// and is paid later through the lifecycle endpoints.
func (m *Materializer) Place(ctx context.Context, userID, addressID primitive.ObjectID, method, notes string) (*models.Order, error) {
	order, cart, err := m.draft(ctx, userID, addressID, method, notes)
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusReceived

	if err := m.commit(ctx, order, cart); err != nil {
		return nil, err
	}

	m.Logger.Info("order placed",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("user", order.User.Hex()),
		zap.Float64("total", order.TotalPrice),
	)
	return order, nil
}

// draft assembles an order from the user's cart: address snapshot, counter
// order number, delivery fee. Status and payment flags are the caller's.
func (m *Materializer) draft(ctx context.Context, userID, addressID primitive.ObjectID, method, notes string) (*models.Order, *models.Cart, error) {
	user, err := m.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrUserGone
		}
		return nil, nil, err
	}

	cart, err := m.Carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrCartGone
		}
		return nil, nil, err
	}

	address, ok := user.AddressByID(addressID)
	if !ok {
		return nil, nil, ErrAddressGone
	}

	number, err := m.Counters.Next(ctx, "orderNumber")
	if err != nil {
		return nil, nil, fmt.Errorf("order number sequence: %w", err)
	}

	fee := models.Round2(m.Fees.For(cart.TotalPrice))
	return &models.Order{
		OrderNumber:     number,
		User:            user.ID,
		OrderedProducts: cart.CartProducts,
		TotalPrice:      models.Round2(cart.TotalPrice + fee),
		DeliveryFee:     fee,
		Address:         address,
		Notes:           notes,
		PaymentMethod:   method,
	}, cart, nil
}

// commit writes the order, consumes the cart and merges the purchase
// history as one atomic unit.
func (m *Materializer) commit(ctx context.Context, order *models.Order, cart *models.Cart) error {
	return m.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.Orders.Insert(ctx, order); err != nil {
			return err
		}
		if err := m.Carts.DeleteByUser(ctx, order.User); err != nil {
			return err
		}
		return m.Users.MergeOrderedProducts(ctx, order.User, cart.ProductIDs())
	})
}
