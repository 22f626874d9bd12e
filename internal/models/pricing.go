package models

import "github.com/shopspring/decimal"

// Pricing computes order totals: the sum of unit price times quantity,
// scaled by a fixed surcharge multiplier and rounded to cents.
type Pricing struct {
	SurchargeRate decimal.Decimal
}

// NewPricing creates a pricing policy for a surcharge fraction (0.15 for 15%)
func NewPricing(surchargeRate decimal.Decimal) Pricing {
	return Pricing{SurchargeRate: surchargeRate}
}

// Multiplier returns 1 + surcharge rate
func (p Pricing) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(p.SurchargeRate)
}

// Subtotal returns the unscaled sum of the lines
func (p Pricing) Subtotal(lines []OrderLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

// Total returns the surcharge-scaled total of the lines rounded half away
// from zero to 2 decimal places.
func (p Pricing) Total(lines []OrderLine) decimal.Decimal {
	return p.Subtotal(lines).Mul(p.Multiplier()).Round(2)
}
