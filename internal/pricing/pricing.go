// Package pricing derives cart and order totals from line items.
package pricing

import "github.com/shopspring/decimal"

var (
	// DefaultFreeShippingThreshold is the subtotal at which shipping is waived.
	DefaultFreeShippingThreshold = decimal.RequireFromString("35.00")
	// DefaultFlatShippingFee is charged below the threshold.
	DefaultFlatShippingFee = decimal.RequireFromString("4.99")
)

// Policy holds the shipping rules applied to a subtotal.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// DefaultPolicy returns the storefront's standard shipping rules.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

// Line is the pricing view of a line item.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals are always derived from lines and never stored independently.
type Totals struct {
	TotalItemCount int             `json:"total_items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Shipping       decimal.Decimal `json:"shipping"`
	GrandTotal     decimal.Decimal `json:"total"`
}

// Calculate computes totals for lines under policy. An empty cart has no
// shipping charge.
func Calculate(lines []Line, policy Policy) Totals {
	count := 0
	subtotal := decimal.Zero
	for _, line := range lines {
		count += line.Quantity
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := decimal.Zero
	if count > 0 && subtotal.LessThan(policy.FreeShippingThreshold) {
		shipping = policy.FlatShippingFee
	}

	return Totals{
		TotalItemCount: count,
		Subtotal:       subtotal,
		Shipping:       shipping,
		GrandTotal:     subtotal.Add(shipping),
	}
}
