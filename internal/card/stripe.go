package card

import (
	"errors"
	"fmt"

	"club-pos/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrChargeDeclined         = errors.New("card charge declined")
)

// StripeGateway charges cards at the counter through Stripe. It is only
// wired up when card payments are enabled in config; everywhere else the
// gateway is nil and card mode is rejected.
type StripeGateway struct {
	client *client.API
	log    *logger.Logger
}

// NewStripeGateway creates a gateway from a secret key.
func NewStripeGateway(secretKey string, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "Stripe secret key not configured")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, log: log}, nil
}

// Charge collects amountRupees against a tokenized card and returns the
// payment intent ID as the charge reference.
func (g *StripeGateway) Charge(amountRupees float64, token, description string) (string, error) {
	if amountRupees <= 0 {
		return "", fmt.Errorf("invalid charge amount: %.2f", amountRupees)
	}
	if token == "" {
		return "", fmt.Errorf("%w: no card token provided", ErrStripeAPIError)
	}

	// Stripe bills in the smallest currency unit (paise)
	amountInPaise := int64(amountRupees * 100)

	piParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountInPaise),
		Currency:           stripe.String("inr"),
		PaymentMethod:      stripe.String(token),
		Description:        stripe.String(description),
		ConfirmationMethod: stripe.String("manual"),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}

	g.log.Info("STRIPE", fmt.Sprintf("Creating payment intent for %.2f INR", amountRupees))
	pi, err := g.client.PaymentIntents.New(piParams)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		g.log.Info("STRIPE", fmt.Sprintf("Payment succeeded: %s", pi.ID))
		return pi.ID, nil
	default:
		g.log.Error("STRIPE", fmt.Sprintf("Payment failed with status: %s (%s)", pi.Status, pi.ID))
		return "", fmt.Errorf("%w: status %s", ErrChargeDeclined, pi.Status)
	}
}
