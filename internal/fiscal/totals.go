package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nexti-ec/facturacion-api/internal/catalog"
)

// moneyScale is the minor-unit precision of the currency (USD cents).
const moneyScale = 2

// DocumentTotals is the complete breakdown the tax authority mandates.
// GrandTotal = sum of bucket bases + TotalTax + Gratuity. TotalDiscounts
// (line-level plus distributed global) is informational and takes no part
// in that identity.
type DocumentTotals struct {
	Buckets        BucketTotals    `json:"buckets"`
	TotalDiscounts decimal.Decimal `json:"totalDiscounts"`
	TotalTax       decimal.Decimal `json:"totalTax"`
	Gratuity       decimal.Decimal `json:"gratuity"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
}

// AggregateTotals computes per-bucket tax at the catalog rate and the
// document grand total. All amounts are rounded half-up to the currency's
// minor unit here, at the presentation boundary; upstream stages carry
// full precision. A negative gratuity fails with *InvalidGratuityError.
func AggregateTotals(buckets BucketTotals, rates *catalog.RateTable, gratuity, totalDiscounts decimal.Decimal) (*DocumentTotals, error) {
	if gratuity.IsNegative() {
		return nil, &InvalidGratuityError{Gratuity: gratuity}
	}

	hundred := decimal.NewFromInt(100)
	rounded := make(BucketTotals, len(buckets))
	totalBase := decimal.Zero
	totalTax := decimal.Zero
	for code, bucket := range buckets {
		rate, ok := rates.Lookup(code)
		if !ok {
			return nil, &UnsupportedRateCodeError{Index: -1, Code: code}
		}
		base := bucket.Base.Round(moneyScale)
		tax := bucket.Base.Mul(rate.Percent).Div(hundred).Round(moneyScale)
		rounded[code] = BucketTotal{Base: base, Tax: tax}
		totalBase = totalBase.Add(base)
		totalTax = totalTax.Add(tax)
	}

	gratuity = gratuity.Round(moneyScale)
	grandTotal := totalBase.Add(totalTax).Add(gratuity)
	if grandTotal.IsNegative() {
		return nil, fmt.Errorf("grand total %s is negative", grandTotal)
	}
	return &DocumentTotals{
		Buckets:        rounded,
		TotalDiscounts: totalDiscounts.Round(moneyScale),
		TotalTax:       totalTax,
		Gratuity:       gratuity,
		GrandTotal:     grandTotal,
	}, nil
}
