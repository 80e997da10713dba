package fiscal

import (
	"github.com/shopspring/decimal"

	"github.com/nexti-ec/facturacion-api/internal/catalog"
)

// BucketTotal accumulates the taxable base and (later) the tax for one
// rate code.
type BucketTotal struct {
	Base decimal.Decimal `json:"base"`
	Tax  decimal.Decimal `json:"tax"`
}

// BucketTotals maps every catalog rate code to its totals. Codes with no
// lines carry zero values; the key set is always the full catalog.
type BucketTotals map[catalog.RateCode]BucketTotal

// AllocateBuckets groups normalized lines by rate code, summing bases in
// full precision. Every catalog code gets a bucket; a line with a code the
// catalog does not know fails with *UnsupportedRateCodeError.
func AllocateBuckets(lines []NormalizedLine, rates *catalog.RateTable) (BucketTotals, error) {
	buckets := make(BucketTotals, rates.Len())
	for _, code := range rates.Codes() {
		buckets[code] = BucketTotal{Base: decimal.Zero, Tax: decimal.Zero}
	}
	for i, line := range lines {
		bucket, ok := buckets[line.RateCode]
		if !ok {
			return nil, &UnsupportedRateCodeError{Index: i, Code: line.RateCode}
		}
		bucket.Base = bucket.Base.Add(line.TaxableBase)
		buckets[line.RateCode] = bucket
	}
	return buckets, nil
}

// TotalBase sums the base over every bucket.
func (b BucketTotals) TotalBase() decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range b {
		total = total.Add(bucket.Base)
	}
	return total
}
