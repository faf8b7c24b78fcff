package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/plutov/paypal/v4"

	"groceteria/models"
)

// PaypalGateway is the explicit-capture payment variant. CreateOrder
// returns a remote order id the client approves in the PayPal UI;
// CaptureOrder finalizes payment synchronously, no webhook involved.
type PaypalGateway struct {
	client *paypal.Client
}

func NewPaypalGateway(clientID, secret string, live bool) (*PaypalGateway, error) {
	base := paypal.APIBaseSandBox
	if live {
		base = paypal.APIBaseLive
	}
	client, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, err
	}
	return &PaypalGateway{client: client}, nil
}

// CreateOrder creates a remote PayPal order for the cart total and returns
// its id. The id is persisted locally as the pending payment's correlation.
func (g *PaypalGateway) CreateOrder(ctx context.Context, cart *models.Cart) (string, error) {
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return "", fmt.Errorf("paypal auth: %w", err)
	}

	units := []paypal.PurchaseUnitRequest{{
		InvoiceID: uuid.NewString(),
		Amount: &paypal.PurchaseUnitAmount{
			Currency: "USD",
			Value:    fmt.Sprintf("%.2f", cart.TotalPrice),
		},
	}}
	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return "", fmt.Errorf("paypal create order: %w", err)
	}
	return order.ID, nil
}

// CaptureOrder captures a previously approved remote order. It returns an
// error unless PayPal reports the capture completed.
func (g *PaypalGateway) CaptureOrder(ctx context.Context, remoteOrderID string) error {
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("paypal auth: %w", err)
	}

	capture, err := g.client.CaptureOrder(ctx, remoteOrderID, paypal.CaptureOrderRequest{})
	if err != nil {
		// a retry after a partial failure on our side finds the money
		// already taken; that is the outcome we wanted
		if alreadyCaptured(err) {
			return nil
		}
		return fmt.Errorf("paypal capture order: %w", err)
	}
	if capture.Status != paypal.OrderStatusCompleted {
		return fmt.Errorf("paypal capture order %s: status %s", remoteOrderID, capture.Status)
	}
	return nil
}

// alreadyCaptured reports whether PayPal rejected the capture because the
// order was captured before.
func alreadyCaptured(err error) bool {
	var perr *paypal.ErrorResponse
	if !errors.As(err, &perr) {
		return false
	}
	for _, detail := range perr.Details {
		if detail.Issue == "ORDER_ALREADY_CAPTURED" {
			return true
		}
	}
	return false
}
