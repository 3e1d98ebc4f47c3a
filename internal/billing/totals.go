package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"meditrack/m/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals is the money breakdown of a cart.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ParseDiscount reads a discount input field. Blank means zero; anything
// that is not a non-negative number is a validation error naming field.
func ParseDiscount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.Invalid(field, "must be a number")
	}
	if v.IsNegative() {
		return decimal.Zero, domain.Invalid(field, "cannot be negative")
	}
	return v, nil
}

// ComputeTotals prices cart. Tax is charged on the subtotal before discount;
// discount is percent of the subtotal plus the fixed amount. Tax and discount
// are rounded to cents so grand = subtotal + tax - discount holds exactly,
// and the grand total never goes below zero.
func ComputeTotals(cart *Cart, gstRate decimal.Decimal, discountPercent, discountFixed string) (Totals, error) {
	pct, err := ParseDiscount("discount_percent", discountPercent)
	if err != nil {
		return Totals{}, err
	}
	fixed, err := ParseDiscount("discount_fixed", discountFixed)
	if err != nil {
		return Totals{}, err
	}

	subtotal := cart.Subtotal()
	tax := subtotal.Mul(gstRate).Round(2)
	discount := subtotal.Mul(pct).Div(hundred).Add(fixed).Round(2)
	grand := subtotal.Add(tax).Sub(discount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	return Totals{Subtotal: subtotal, Tax: tax, Discount: discount, GrandTotal: grand}, nil
}
