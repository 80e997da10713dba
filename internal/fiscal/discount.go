package fiscal

import "github.com/shopspring/decimal"

// GlobalDiscount is a single document-level discount. Amount and Percent
// are mutually exclusive; a non-zero Amount wins, mirroring the line-level
// precedence rule.
type GlobalDiscount struct {
	Amount  decimal.Decimal
	Percent decimal.Decimal
}

// DistributeGlobalDiscount applies the discount proportionally across all
// buckets through a single scale factor, so every bucket keeps the same
// share of the total base it had before. It returns the scaled buckets and
// the distributed discount amount. A nil discount, or a zero total base
// with an amount discount, is a no-op.
//
// An amount larger than the total base fails with
// *DiscountExceedsBaseError instead of producing a negative factor.
func DistributeGlobalDiscount(buckets BucketTotals, discount *GlobalDiscount) (BucketTotals, decimal.Decimal, error) {
	totalBase := buckets.TotalBase()
	factor, err := scaleFactor(totalBase, discount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	scaled := make(BucketTotals, len(buckets))
	for code, bucket := range buckets {
		bucket.Base = bucket.Base.Mul(factor)
		scaled[code] = bucket
	}
	distributed := totalBase.Mul(decimal.NewFromInt(1).Sub(factor))
	return scaled, distributed, nil
}

func scaleFactor(totalBase decimal.Decimal, discount *GlobalDiscount) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if discount == nil {
		return one, nil
	}
	hundred := decimal.NewFromInt(100)
	switch {
	case discount.Amount.IsNegative():
		return decimal.Zero, &InvalidDiscountError{Reason: "amount must not be negative"}
	case discount.Percent.IsNegative() || discount.Percent.GreaterThan(hundred):
		return decimal.Zero, &InvalidDiscountError{Reason: "percent must be between 0 and 100"}
	}
	if !discount.Amount.IsZero() {
		if totalBase.IsZero() {
			return one, nil
		}
		if discount.Amount.GreaterThan(totalBase) {
			return decimal.Zero, &DiscountExceedsBaseError{Discount: discount.Amount, TotalBase: totalBase}
		}
		return totalBase.Sub(discount.Amount).Div(totalBase), nil
	}
	if !discount.Percent.IsZero() {
		return one.Sub(discount.Percent.Div(hundred)), nil
	}
	return one, nil
}
