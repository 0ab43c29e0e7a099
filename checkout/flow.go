package checkout

import (
	"context"
	"strings"
	"time"

	"storefront/logging"
	"storefront/models"
	"storefront/payment"
)

type Status int

const (
	StatusFailed Status = iota
	StatusSucceeded
)

func (s Status) String() string {
	if s == StatusSucceeded {
		return "succeeded"
	}
	return "failed"
}

const DefaultRedirectAfter = 5 * time.Second

// OrderRequest is the body of POST /api/orders.
type OrderRequest struct {
	Items           []models.OrderItem     `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	Shipping        float64                `json:"shipping"`
	Tax             float64                `json:"tax"`
	Total           float64                `json:"total"`
	PaymentIntentID string                 `json:"paymentIntentId"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
}

type OrderReceipt struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"orderNumber"`
}

// API is the part of the storefront backend the checkout flow talks to.
type API interface {
	SaveAddress(ctx context.Context, addr models.ShippingAddress) error
	CreatePaymentIntent(ctx context.Context, amount float64) (*payment.Intent, error)
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error)
}

// Confirmer completes a payment with the customer's card and returns the
// processor's confirmation id.
type Confirmer interface {
	Confirm(ctx context.Context, clientSecret, paymentMethod string) (string, error)
}

// Cart is the client-side cart being checked out. DiscardLocal empties the
// local copy without contacting the server.
type Cart interface {
	OrderLines() []models.OrderItem
	ClearCart(ctx context.Context) error
	DiscardLocal()
}

type Card struct {
	PaymentMethod string
}

type Result struct {
	Status Status
	// OrderNumber is set when the order was recorded.
	OrderNumber string
	// Reference is what the customer is shown: the order number, or a
	// reference derived from the payment when the order was not recorded.
	Reference     string
	Fallback      bool
	Message       string
	Totals        Totals
	RedirectAfter time.Duration
}

type Flow struct {
	API           API
	Confirmer     Confirmer
	Cart          Cart
	RedirectAfter time.Duration
}

// Run takes the cart through address capture, payment and order creation.
// Once the processor confirms the payment the result is always a success
// and the cart is cleared, even if the order could not be recorded.
func (f *Flow) Run(ctx context.Context, addr models.ShippingAddress, card Card) Result {
	log := logging.FromContext(ctx)
	redirect := f.RedirectAfter
	if redirect == 0 {
		redirect = DefaultRedirectAfter
	}
	fail := func(msg string, totals Totals) Result {
		return Result{Status: StatusFailed, Message: msg, Totals: totals, RedirectAfter: redirect}
	}

	lines := f.Cart.OrderLines()
	if len(lines) == 0 {
		return fail("Your cart is empty", Totals{})
	}
	if err := ValidateAddress(addr); err != nil {
		return fail(err.Error(), Totals{})
	}

	calc := make([]Line, len(lines))
	for i, l := range lines {
		calc[i] = Line{Price: l.Price, Quantity: l.Quantity}
	}
	totals := ComputeTotals(calc)

	if err := f.API.SaveAddress(ctx, addr); err != nil {
		log.WarnContext(ctx, "saving shipping address failed, continuing to payment", "error", err)
	}

	intent, err := f.API.CreatePaymentIntent(ctx, totals.Total)
	if err != nil {
		return fail(err.Error(), totals)
	}

	confirmationID, err := f.Confirmer.Confirm(ctx, intent.ClientSecret, card.PaymentMethod)
	if err != nil {
		return fail(err.Error(), totals)
	}

	res := Result{Status: StatusSucceeded, Totals: totals, RedirectAfter: redirect}
	receipt, err := f.API.CreateOrder(ctx, OrderRequest{
		Items:           lines,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		PaymentIntentID: confirmationID,
		ShippingAddress: addr,
	})
	if err != nil || receipt == nil || receipt.OrderNumber == "" {
		log.ErrorContext(ctx, "order not recorded after successful payment",
			"payment_intent_id", confirmationID, "total", totals.Total, "error", err)
		res.Reference = FallbackReference(confirmationID)
		res.Fallback = true
	} else {
		res.OrderNumber = receipt.OrderNumber
		res.Reference = receipt.OrderNumber
	}

	if err := f.Cart.ClearCart(ctx); err != nil {
		// the payment went through, so the paid lines must not come back
		log.ErrorContext(ctx, "server cart not cleared after payment",
			"payment_intent_id", confirmationID, "order_number", res.OrderNumber, "error", err)
		f.Cart.DiscardLocal()
	}
	return res
}

// FallbackReference derives a customer-facing reference from a payment
// confirmation id, e.g. pi_3NkQ2eAbCdEf1234 becomes PI-CDEF1234.
func FallbackReference(confirmationID string) string {
	tail := confirmationID
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	return "PI-" + strings.ToUpper(tail)
}
