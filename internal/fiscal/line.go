package fiscal

import (
	"github.com/shopspring/decimal"

	"github.com/nexti-ec/facturacion-api/internal/catalog"
)

// LineItem is one raw row of the invoice form. Exactly one of
// DiscountAmount/DiscountPercent is authoritative: a non-zero fixed amount
// wins over the percentage, matching the form's behaviour of clearing one
// field when the other is edited.
type LineItem struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	RateCode        catalog.RateCode
}

// NormalizedLine is a line with its discount resolved into the taxable
// base. The base is never negative.
type NormalizedLine struct {
	TaxableBase decimal.Decimal
	RateCode    catalog.RateCode
}

// NormalizeLines resolves every line's discount and computes its taxable
// base in full precision. It returns the normalized lines in input order
// together with the sum of effective line-level discounts. Invalid input
// fails with *InvalidLineError before any output is produced.
func NormalizeLines(lines []LineItem) ([]NormalizedLine, decimal.Decimal, error) {
	hundred := decimal.NewFromInt(100)
	out := make([]NormalizedLine, 0, len(lines))
	lineDiscounts := decimal.Zero
	for i, line := range lines {
		switch {
		case line.Quantity.IsNegative():
			return nil, decimal.Zero, &InvalidLineError{Index: i, Reason: "quantity must not be negative"}
		case line.UnitPrice.IsNegative():
			return nil, decimal.Zero, &InvalidLineError{Index: i, Reason: "unit price must not be negative"}
		case line.DiscountAmount.IsNegative():
			return nil, decimal.Zero, &InvalidLineError{Index: i, Reason: "discount amount must not be negative"}
		case line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred):
			return nil, decimal.Zero, &InvalidLineError{Index: i, Reason: "discount percent must be between 0 and 100"}
		}

		gross := line.Quantity.Mul(line.UnitPrice)
		discount := line.DiscountAmount
		if discount.IsZero() && !line.DiscountPercent.IsZero() {
			discount = gross.Mul(line.DiscountPercent).Div(hundred)
		}
		base := gross.Sub(discount)
		if base.IsNegative() {
			base = decimal.Zero
		}
		// Effective discount is capped at the gross so the reported
		// discount total matches the clamped base.
		lineDiscounts = lineDiscounts.Add(gross.Sub(base))
		out = append(out, NormalizedLine{TaxableBase: base, RateCode: line.RateCode})
	}
	return out, lineDiscounts, nil
}
