package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

const StatusSucceeded = "succeeded"

var (
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrPaymentDeclined = errors.New("payment declined")
	ErrProcessor       = errors.New("payment processor error")
)

// Error carries the processor's own message, which is shown to the customer
// unchanged. Kind is ErrPaymentDeclined or ErrProcessor.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

func (i *Intent) Succeeded() bool { return i.Status == StatusSucceeded }

type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

// ToMinorUnits converts a major-unit amount (dollars) to cents, rounding
// half away from zero.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2).Round(0)
	if !minor.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
