package payments

import (
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"groceteria/checkout"
	"groceteria/models"
)

// StripeGateway is the redirect+webhook payment variant. CreateSession
// builds a hosted checkout page from the cart; completion arrives
// asynchronously on the webhook endpoint and must pass signature
// verification before anything trusts it.
type StripeGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// CreateSession creates a Stripe Checkout Session for the cart. The
// correlation data rides in the session metadata and comes back verbatim
// in the completion event.
func (g *StripeGateway) CreateSession(cart *models.Cart, ref checkout.Ref) (*stripe.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(cart.CartProducts))
	for _, cp := range cart.CartProducts {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(cp.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(toCents(cp.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(cp.Name),
					Images: []*string{stripe.String(cp.Image)},
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(ref.UserID.Hex()),
		LineItems:         lineItems,
	}
	params.AddMetadata("user_id", ref.UserID.Hex())
	params.AddMetadata("address_id", ref.AddressID.Hex())
	params.AddMetadata("notes", ref.Notes)

	return session.New(params)
}

// VerifyEvent checks the Stripe-Signature header against the endpoint
// secret and returns the decoded event. A bad signature fails here and the
// caller rejects the delivery with no side effects.
func (g *StripeGateway) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
}

// SessionRef decodes the correlation data out of a completed checkout
// session's metadata.
func SessionRef(sess *stripe.CheckoutSession) (checkout.Ref, error) {
	userID, err := primitive.ObjectIDFromHex(sess.Metadata["user_id"])
	if err != nil {
		return checkout.Ref{}, fmt.Errorf("checkout session %s: bad user_id metadata: %w", sess.ID, err)
	}
	addressID, err := primitive.ObjectIDFromHex(sess.Metadata["address_id"])
	if err != nil {
		return checkout.Ref{}, fmt.Errorf("checkout session %s: bad address_id metadata: %w", sess.ID, err)
	}
	return checkout.Ref{
		UserID:    userID,
		AddressID: addressID,
		Notes:     sess.Metadata["notes"],
		SessionID: sess.ID,
		Method:    models.PaymentStripe,
	}, nil
}

// toCents converts a rounded dollar amount to the integer cents Stripe
// expects.
func toCents(dollars float64) int64 {
	return int64(math.Round(models.Round2(dollars) * 100))
}
