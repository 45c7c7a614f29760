// Package pricing derives the money and prep-time figures for a dine-in order
// draft. All functions are pure; no I/O, no stored state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/dinein-terminal/internal/domain"
)

// Dine-in rates. Fixed for this flow; takeaway and delivery are priced
// elsewhere with different rates.
var (
	TaxRate     = decimal.NewFromFloat(0.09)
	ServiceRate = decimal.NewFromFloat(0.10)
)

// Per-unit prep overhead added on top of the slowest item, in minutes.
const prepMinutesPerUnit = 2

// Totals is the derived pricing breakdown for a cart. Tax and service charge
// are computed from the pre-discount subtotal; the discount is a flat amount
// subtracted last. That ordering is a contract, not an implementation detail.
type Totals struct {
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
}

// Subtotal is the sum of price*quantity over all lines.
func Subtotal(lines []domain.OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Calculate derives the full breakdown for the given lines and flat discount.
// When allowNegativeTotal is false a discount exceeding the charged amount
// clamps the total to zero; the observed default keeps the negative value.
func Calculate(lines []domain.OrderLine, discount decimal.Decimal, allowNegativeTotal bool) Totals {
	subtotal := Subtotal(lines)
	tax := subtotal.Mul(TaxRate)
	service := subtotal.Mul(ServiceRate)
	total := subtotal.Add(tax).Add(service).Sub(discount)
	if total.IsNegative() && !allowNegativeTotal {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:      subtotal,
		Tax:           tax,
		ServiceCharge: service,
		Discount:      discount,
		Total:         total,
	}
}

// EstimatedPrepMinutes is the slowest item's prep time plus two minutes per
// ordered unit. Zero for an empty cart.
func EstimatedPrepMinutes(lines []domain.OrderLine) int {
	if len(lines) == 0 {
		return 0
	}
	maxPrep := 0
	units := 0
	for _, l := range lines {
		if l.PrepTimeMinutes > maxPrep {
			maxPrep = l.PrepTimeMinutes
		}
		units += l.Quantity
	}
	return maxPrep + prepMinutesPerUnit*units
}
