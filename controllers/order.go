package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v80"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/checkout"
	"groceteria/database"
	"groceteria/middleware"
	"groceteria/models"
	"groceteria/payments"
	"groceteria/utils"
)

// OrderController handles checkout, payment confirmation and the order
// lifecycle.
type OrderController struct {
	Orders       *database.OrderRepository
	Carts        *database.CartRepository
	Users        *database.UserRepository
	Payments     *database.PaymentRepository
	Materializer *checkout.Materializer
	Stripe       *payments.StripeGateway
	Paypal       *payments.PaypalGateway
	Email        *utils.EmailService
	Logger       *zap.Logger
}

type checkoutSessionRequest struct {
	AddressID string `json:"addressId" validate:"required"`
	Notes     string `json:"notes"`
}

type createOrderRequest struct {
	AddressID     string `json:"addressId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=Stripe Paypal"`
	Notes         string `json:"notes"`
}

// CreateOrder places an order directly from the user's cart, no gateway
// involved. It starts in "Order Received" and unpaid.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	addressID, err := primitive.ObjectIDFromHex(req.AddressID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid address id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	order, err := oc.Materializer.Place(ctx, userID, addressID, req.PaymentMethod, req.Notes)
	switch {
	case errors.Is(err, checkout.ErrUserGone):
		respondError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, checkout.ErrCartGone):
		respondError(w, http.StatusNotFound, "No cart found for that user")
		return
	case errors.Is(err, checkout.ErrAddressGone):
		respondError(w, http.StatusNotFound, "No address found with that id")
		return
	case err != nil:
		oc.Logger.Error("order create failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	respondData(w, http.StatusCreated, order)
}

// CreateCheckoutSession starts the Stripe redirect flow for the user's
// current cart. The response carries the hosted checkout url.
func (oc *OrderController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req checkoutSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	addressID, err := primitive.ObjectIDFromHex(req.AddressID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid address id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := oc.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if _, ok := user.AddressByID(addressID); !ok {
		respondError(w, http.StatusNotFound, "No address found with that id")
		return
	}

	cart, err := oc.Carts.GetByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No cart found for that user")
		return
	}
	if err != nil {
		oc.Logger.Error("get cart failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	sess, err := oc.Stripe.CreateSession(cart, checkout.Ref{
		UserID:    userID,
		AddressID: addressID,
		Notes:     req.Notes,
	})
	if err != nil {
		oc.Logger.Error("stripe session create failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	respondData(w, http.StatusCreated, map[string]string{
		"sessionId": sess.ID,
		"url":       sess.URL,
	})
}

// WebhookCheckout receives Stripe webhook deliveries. The raw body is
// verified against the endpoint secret before anything else happens; a bad
// signature is rejected with no side effects. Completed checkout sessions
// drive the materializer, which makes duplicate deliveries a no-op.
func (oc *OrderController) WebhookCheckout(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read body")
		return
	}

	event, err := oc.Stripe.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		oc.Logger.Warn("webhook signature verification failed", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	if event.Type != "checkout.session.completed" {
		oc.Logger.Info("ignoring webhook event", zap.String("type", string(event.Type)))
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		oc.Logger.Error("webhook session decode failed", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Malformed event payload")
		return
	}

	ref, err := payments.SessionRef(&sess)
	if err != nil {
		oc.Logger.Error("webhook correlation decode failed", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Malformed session metadata")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	order, created, err := oc.Materializer.Materialize(ctx, ref)
	if err != nil {
		oc.Logger.Error("order materialization failed",
			zap.String("session", ref.SessionID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if created {
		oc.sendConfirmation(order)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// PaypalCreateOrder starts the explicit-capture flow: a remote PayPal
// order is created for the cart and a pending payment record keeps the
// correlation data until capture.
func (oc *OrderController) PaypalCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req checkoutSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	addressID, err := primitive.ObjectIDFromHex(req.AddressID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid address id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := oc.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if _, ok := user.AddressByID(addressID); !ok {
		respondError(w, http.StatusNotFound, "No address found with that id")
		return
	}

	cart, err := oc.Carts.GetByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No cart found for that user")
		return
	}
	if err != nil {
		oc.Logger.Error("get cart failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	remoteOrderID, err := oc.Paypal.CreateOrder(ctx, cart)
	if err != nil {
		oc.Logger.Error("paypal order create failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	payment := &models.Payment{
		User:          userID,
		Provider:      models.PaymentPaypal,
		RemoteOrderID: remoteOrderID,
		AddressID:     addressID,
		Notes:         req.Notes,
		Amount:        cart.TotalPrice,
		Status:        models.PaymentPending,
	}
	if err := oc.Payments.Insert(ctx, payment); err != nil {
		oc.Logger.Error("pending payment persist failed",
			zap.String("remote_order", remoteOrderID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	respondData(w, http.StatusCreated, map[string]string{"orderId": remoteOrderID})
}

// PaypalCapture finalizes a previously approved PayPal order for the
// authenticated buyer and materializes the order inline.
func (oc *OrderController) PaypalCapture(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	remoteOrderID := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	payment, err := oc.Payments.FindByRemoteOrderID(ctx, remoteOrderID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No pending payment found with that id")
		return
	}
	if err != nil {
		oc.Logger.Error("pending payment lookup failed",
			zap.String("remote_order", remoteOrderID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if payment.User != userID {
		respondError(w, http.StatusForbidden, "This payment belongs to another user")
		return
	}

	if payment.Status != models.PaymentCaptured {
		if err := oc.Paypal.CaptureOrder(ctx, remoteOrderID); err != nil {
			oc.Logger.Error("paypal capture failed",
				zap.String("remote_order", remoteOrderID), zap.Error(err))
			respondError(w, http.StatusBadGateway, "Payment capture failed")
			return
		}
		if err := oc.Payments.MarkCaptured(ctx, payment.ID); err != nil {
			oc.Logger.Error("mark captured failed",
				zap.String("remote_order", remoteOrderID), zap.Error(err))
		}
	}

	order, created, err := oc.Materializer.Materialize(ctx, checkout.Ref{
		UserID:    payment.User,
		AddressID: payment.AddressID,
		Notes:     payment.Notes,
		SessionID: payment.RemoteOrderID,
		Method:    models.PaymentPaypal,
	})
	if err != nil {
		oc.Logger.Error("order materialization failed",
			zap.String("session", payment.RemoteOrderID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if created {
		oc.sendConfirmation(order)
	}

	respondData(w, http.StatusOK, order)
}

// sendConfirmation emails the buyer about their paid order, best effort.
func (oc *OrderController) sendConfirmation(order *models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		user, err := oc.Users.FindByID(ctx, order.User)
		if err != nil {
			oc.Logger.Warn("confirmation email: user lookup failed",
				zap.String("user", order.User.Hex()), zap.Error(err))
			return
		}
		if err := oc.Email.SendOrderConfirmationEmail(user.Email, order); err != nil {
			oc.Logger.Warn("confirmation email failed",
				zap.String("email", user.Email), zap.Error(err))
		}
	}()
}

// GetMyOrders lists the authenticated user's orders.
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindByUser(ctx, userID)
	if err != nil {
		oc.Logger.Error("list orders failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(orders),
		"data":    orders,
	})
}

// CancelOrder cancels a non-delivered order. Owners may cancel their own
// orders; admins may cancel any.
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	claims, _ := middleware.CurrentClaims(r)
	if !ok || claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	order, done := oc.loadOrder(w, r)
	if done {
		return
	}

	if order.User != userID && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "This order belongs to another user")
		return
	}
	if !order.CanBeCancelledBy(userID, claims.Role) {
		respondError(w, http.StatusBadRequest, "Order can no longer be cancelled")
		return
	}
	oc.transition(w, r, order, models.StatusCancelled)
}

// MarkPaid marks a manually placed order as paid once the payment settles
// out of band. Gateway-confirmed orders are born paid and never pass here.
func (oc *OrderController) MarkPaid(w http.ResponseWriter, r *http.Request) {
	order, done := oc.loadOrder(w, r)
	if done {
		return
	}
	oc.transition(w, r, order, models.StatusPaid)
}

// MarkOnTheWay moves a paid order out for delivery, or a delivered order
// back when it was marked by mistake (this clears the delivery timestamp).
func (oc *OrderController) MarkOnTheWay(w http.ResponseWriter, r *http.Request) {
	order, done := oc.loadOrder(w, r)
	if done {
		return
	}
	oc.transition(w, r, order, models.StatusOnTheWay)
}

// MarkDelivered marks an order delivered and stamps the delivery time.
func (oc *OrderController) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	order, done := oc.loadOrder(w, r)
	if done {
		return
	}
	oc.transition(w, r, order, models.StatusDelivered)
}

func (oc *OrderController) transition(w http.ResponseWriter, r *http.Request, order *models.Order, status string) {
	if err := order.TransitionTo(status, time.Now()); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := oc.Orders.UpdateStatus(ctx, order); err != nil {
		oc.Logger.Error("order status update failed",
			zap.String("order", order.ID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, order)
}

// loadOrder resolves the {orderId} path variable. It writes the error
// response itself and reports done=true when the caller should stop.
func (oc *OrderController) loadOrder(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["orderId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return nil, true
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No order found with that id")
		return nil, true
	}
	if err != nil {
		oc.Logger.Error("order lookup failed", zap.String("order", orderID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return nil, true
	}
	return order, false
}

// GetOrder returns a single order (admin).
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, done := oc.loadOrder(w, r)
	if done {
		return
	}
	respondData(w, http.StatusOK, order)
}

// GetAllOrders lists every order (admin).
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindAll(ctx)
	if err != nil {
		oc.Logger.Error("list orders failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(orders),
		"data":    orders,
	})
}

// GetUserOrders lists one user's orders (admin).
func (oc *OrderController) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindByUser(ctx, userID)
	if err != nil {
		oc.Logger.Error("list orders failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(orders),
		"data":    orders,
	})
}

// GetOrdersByStatus lists orders in the given status (admin).
func (oc *OrderController) GetOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		respondError(w, http.StatusBadRequest, "Missing status query parameter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindByStatus(ctx, status)
	if err != nil {
		oc.Logger.Error("list orders failed", zap.String("status", status), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(orders),
		"data":    orders,
	})
}

// GetTodaysOrders lists orders created since local midnight (admin).
func (oc *OrderController) GetTodaysOrders(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := oc.Orders.FindSince(ctx, midnight)
	if err != nil {
		oc.Logger.Error("list orders failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(orders),
		"data":    orders,
	})
}
