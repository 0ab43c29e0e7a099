package checkout

import (
	"storefront/store"

	"github.com/shopspring/decimal"
)

var (
	FreeShippingOver = decimal.NewFromInt(100)
	FlatShipping     = decimal.RequireFromString("9.99")
	TaxRate          = decimal.RequireFromString("0.08")
)

type Line struct {
	Price    float64
	Quantity int
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals prices a cart. Shipping is free only when the subtotal is
// strictly above 100; tax is 8% of the subtotal rounded to cents.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		lineTotal := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
	}

	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingOver) {
		shipping = decimal.Zero
	}
	if subtotal.IsZero() {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax)

	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

func (t Totals) TotalAmount() decimal.Decimal {
	return decimal.NewFromFloat(t.Total).Round(2)
}

// Matches reports whether other agrees with t to the cent.
func (t Totals) Matches(other Totals) bool {
	eq := func(a, b float64) bool {
		return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
	}
	return eq(t.Subtotal, other.Subtotal) && eq(t.Shipping, other.Shipping) &&
		eq(t.Tax, other.Tax) && eq(t.Total, other.Total)
}

func LinesFromCart(items []store.CartLine) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Price: it.Price, Quantity: it.Quantity}
	}
	return lines
}
