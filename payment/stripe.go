package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	return NewStripeProcessorWithBackends(secretKey, nil)
}

// NewStripeProcessorWithBackends lets tests point the SDK at a fake server.
func NewStripeProcessorWithBackends(secretKey string, backends *stripe.Backends) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProcessor{api: api}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translateError(err)
	}
	return toIntent(pi), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, translateError(err)
	}
	return toIntent(pi), nil
}

// Confirm confirms an intent with a saved payment method. The intent id is
// recovered from the client secret handed out by CreateIntent.
func (p *StripeProcessor) Confirm(ctx context.Context, clientSecret, paymentMethod string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret_")
	if !found {
		return "", &Error{Kind: ErrProcessor, Message: "malformed client secret"}
	}

	params := &stripe.PaymentIntentConfirmParams{PaymentMethod: stripe.String(paymentMethod)}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return "", translateError(err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		msg := "payment was not completed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			msg = pi.LastPaymentError.Msg
		}
		return "", &Error{Kind: ErrPaymentDeclined, Message: msg}
	}
	return pi.ID, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
}

func translateError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		kind := ErrProcessor
		if se.Type == stripe.ErrorTypeCard {
			kind = ErrPaymentDeclined
		}
		msg := se.Msg
		if msg == "" {
			msg = string(se.Code)
		}
		return &Error{Kind: kind, Message: msg}
	}
	return fmt.Errorf("%w: %v", ErrProcessor, err)
}
