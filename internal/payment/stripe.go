package payment

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// Intent is the slice of a Stripe PaymentIntent the rest of the app needs.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// IntentClient is satisfied by StripeClient and mocked in service tests.
type IntentClient interface {
	CreateIntent(ctx context.Context, amountPence int64, metadata map[string]string) (*Intent, error)
}

type StripeClient struct{}

// NewStripeClient configures the package-global Stripe key once at startup.
func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{}
}

func (s *StripeClient) CreateIntent(ctx context.Context, amountPence int64, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountPence),
		Currency: stripe.String(string(stripe.CurrencyGBP)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
