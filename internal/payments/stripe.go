package payments

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

var ErrNoIntent = errors.New("payment intent id is empty")

// StripeGateway holds and settles order payments through manual-capture
// PaymentIntents. Amounts are whole rupees; Stripe receives paise.
type StripeGateway struct {
	intents *paymentintent.Client
}

// NewStripeGateway uses the default API backend with the given secret key.
func NewStripeGateway(apiKey string) *StripeGateway {
	return NewStripeGatewayWithBackend(apiKey, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeGatewayWithBackend(apiKey string, b stripe.Backend) *StripeGateway {
	return &StripeGateway{intents: &paymentintent.Client{B: b, Key: apiKey}}
}

// Authorize places a hold for the order total and returns the intent id. key
// must be unique per checkout; it becomes the idempotency key. The intent
// carries no payment method and is never confirmed, so against live Stripe it
// stays in requires_payment_method and Capture fails until a client confirms
// it with a card.
func (s *StripeGateway) Authorize(ctx context.Context, key, orderID, userID string, amountRupees int) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(amountRupees) * 100),
		Currency:           stripe.String(string(stripe.CurrencyINR)),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Description:        stripe.String("RailSahayak food order " + orderID),
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)
	params.AddMetadata("user_id", userID)
	params.AddMetadata("record_id", key)
	params.SetIdempotencyKey("authorize-" + key)
	pi, err := s.intents.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// Capture finalizes a previously authorized intent.
func (s *StripeGateway) Capture(ctx context.Context, intentID string) error {
	if intentID == "" {
		return ErrNoIntent
	}
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	_, err := s.intents.Capture(intentID, params)
	return err
}

// Void releases the hold on an intent.
func (s *StripeGateway) Void(ctx context.Context, intentID string) error {
	if intentID == "" {
		return ErrNoIntent
	}
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := s.intents.Cancel(intentID, params)
	return err
}
