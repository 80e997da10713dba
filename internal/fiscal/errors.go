package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nexti-ec/facturacion-api/internal/catalog"
)

// InvalidLineError reports a line item that violates its input invariants
// (negative quantity or price, discount percent outside [0,100]).
type InvalidLineError struct {
	Index  int
	Reason string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Index, e.Reason)
}

// UnsupportedRateCodeError reports a rate code absent from the tariff
// catalog. Unknown codes never default to a zero rate.
type UnsupportedRateCodeError struct {
	Index int
	Code  catalog.RateCode
}

func (e *UnsupportedRateCodeError) Error() string {
	return fmt.Sprintf("line %d: unsupported rate code %q", e.Index, e.Code)
}

// InvalidDiscountError reports a malformed global discount (negative
// values or a percentage outside [0,100]).
type InvalidDiscountError struct {
	Reason string
}

func (e *InvalidDiscountError) Error() string {
	return "global discount: " + e.Reason
}

// DiscountExceedsBaseError reports a global discount amount larger than
// the sum of all bucket bases. The distributor refuses to produce a
// negative scale factor.
type DiscountExceedsBaseError struct {
	Discount  decimal.Decimal
	TotalBase decimal.Decimal
}

func (e *DiscountExceedsBaseError) Error() string {
	return fmt.Sprintf("global discount %s exceeds total base %s", e.Discount, e.TotalBase)
}

// InvalidGratuityError reports a negative gratuity.
type InvalidGratuityError struct {
	Gratuity decimal.Decimal
}

func (e *InvalidGratuityError) Error() string {
	return fmt.Sprintf("gratuity %s must not be negative", e.Gratuity)
}
