package fiscal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexti-ec/facturacion-api/internal/accesskey"
	"github.com/nexti-ec/facturacion-api/internal/catalog"
	"github.com/nexti-ec/facturacion-api/internal/fiscal"
)

func testEngine() *fiscal.Engine {
	return fiscal.NewEngine(catalog.DefaultRates(), &accesskey.Generator{Source: accesskey.FixedSource("12345678")})
}

func testHeader() accesskey.Header {
	return accesskey.Header{
		DocumentType:  accesskey.DocTypeFactura,
		RUC:           "1792123456001",
		Establishment: "001",
		EmissionPoint: "001",
		Sequential:    "000000001",
		IssuedAt:      time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Environment:   accesskey.EnvironmentTest,
		EmissionMode:  accesskey.EmissionNormal,
	}
}

func TestComputeSingleLineFifteenPercent(t *testing.T) {
	out, err := testEngine().Compute(fiscal.Input{
		Header: testHeader(),
		Lines: []fiscal.LineItem{
			{Quantity: dec("2"), UnitPrice: dec("10.00"), RateCode: catalog.RateFifteen},
		},
	})
	require.NoError(t, err)

	bucket := out.Totals.Buckets[catalog.RateFifteen]
	assert.True(t, bucket.Base.Equal(dec("20.00")), "base %s", bucket.Base)
	assert.True(t, bucket.Tax.Equal(dec("3.00")), "tax %s", bucket.Tax)
	assert.True(t, out.Totals.TotalTax.Equal(dec("3.00")), "total tax %s", out.Totals.TotalTax)
	assert.True(t, out.Totals.GrandTotal.Equal(dec("23.00")), "grand total %s", out.Totals.GrandTotal)
	assert.True(t, out.Totals.TotalDiscounts.IsZero())
	assert.Len(t, out.AccessKey, 49)
}

func TestComputeWithGlobalPercentDiscount(t *testing.T) {
	out, err := testEngine().Compute(fiscal.Input{
		Header: testHeader(),
		Lines: []fiscal.LineItem{
			{Quantity: dec("2"), UnitPrice: dec("10.00"), RateCode: catalog.RateFifteen},
		},
		GlobalDiscount: &fiscal.GlobalDiscount{Percent: dec("10")},
	})
	require.NoError(t, err)

	bucket := out.Totals.Buckets[catalog.RateFifteen]
	assert.True(t, bucket.Base.Equal(dec("18.00")), "base %s", bucket.Base)
	assert.True(t, bucket.Tax.Equal(dec("2.70")), "tax %s", bucket.Tax)
	assert.True(t, out.Totals.GrandTotal.Equal(dec("20.70")), "grand total %s", out.Totals.GrandTotal)
	assert.True(t, out.Totals.TotalDiscounts.Equal(dec("2.00")), "discounts %s", out.Totals.TotalDiscounts)
}

func TestComputeDiscountExceedsBase(t *testing.T) {
	_, err := testEngine().Compute(fiscal.Input{
		Header: testHeader(),
		Lines: []fiscal.LineItem{
			{Quantity: dec("1"), UnitPrice: dec("10.00"), RateCode: catalog.RateFifteen},
		},
		GlobalDiscount: &fiscal.GlobalDiscount{Amount: dec("15")},
	})
	var exceeds *fiscal.DiscountExceedsBaseError
	require.ErrorAs(t, err, &exceeds)
}

func TestComputeGratuityAddedUntaxed(t *testing.T) {
	out, err := testEngine().Compute(fiscal.Input{
		Header: testHeader(),
		Lines: []fiscal.LineItem{
			{Quantity: dec("1"), UnitPrice: dec("10.00"), RateCode: catalog.RateFifteen},
		},
		Gratuity: dec("1.00"),
	})
	require.NoError(t, err)
	assert.True(t, out.Totals.Gratuity.Equal(dec("1.00")))
	assert.True(t, out.Totals.GrandTotal.Equal(dec("12.50")), "grand total %s", out.Totals.GrandTotal)
}

func TestComputeNegativeGratuity(t *testing.T) {
	_, err := testEngine().Compute(fiscal.Input{
		Header: testHeader(),
		Lines: []fiscal.LineItem{
			{Quantity: dec("1"), UnitPrice: dec("10.00"), RateCode: catalog.RateFifteen},
		},
		Gratuity: dec("-1"),
	})
	var gratuity *fiscal.InvalidGratuityError
	require.ErrorAs(t, err, &gratuity)
}

func TestComputeDeterministic(t *testing.T) {
	input := fiscal.Input{
		Header: testHeader(),
		Lines: []fiscal.LineItem{
			{Quantity: dec("3"), UnitPrice: dec("7.33"), DiscountPercent: dec("5"), RateCode: catalog.RateFifteen},
			{Quantity: dec("1"), UnitPrice: dec("12.10"), RateCode: catalog.RateZero},
			{Quantity: dec("2"), UnitPrice: dec("4.99"), RateCode: catalog.RateExempt},
		},
		GlobalDiscount: &fiscal.GlobalDiscount{Percent: dec("3")},
		Gratuity:       dec("0.50"),
	}
	engine := testEngine()
	first, err := engine.Compute(input)
	require.NoError(t, err)
	second, err := engine.Compute(input)
	require.NoError(t, err)

	assert.Equal(t, first.AccessKey, second.AccessKey)
	assert.True(t, first.Totals.GrandTotal.Equal(second.Totals.GrandTotal))
	assert.True(t, first.Totals.TotalTax.Equal(second.Totals.TotalTax))
	for code, bucket := range first.Totals.Buckets {
		other := second.Totals.Buckets[code]
		assert.True(t, bucket.Base.Equal(other.Base), "bucket %s base", code)
		assert.True(t, bucket.Tax.Equal(other.Tax), "bucket %s tax", code)
	}
}

func TestComputeBaseConservation(t *testing.T) {
	lines := []fiscal.LineItem{
		{Quantity: dec("3"), UnitPrice: dec("7.33"), DiscountAmount: dec("1.10"), RateCode: catalog.RateFifteen},
		{Quantity: dec("1"), UnitPrice: dec("12.10"), RateCode: catalog.RateZero},
		{Quantity: dec("2"), UnitPrice: dec("4.99"), DiscountPercent: dec("10"), RateCode: catalog.RateFive},
	}
	out, err := testEngine().Compute(fiscal.Input{Header: testHeader(), Lines: lines})
	require.NoError(t, err)

	want := dec("0")
	for _, l := range lines {
		gross := l.Quantity.Mul(l.UnitPrice)
		discount := l.DiscountAmount
		if discount.IsZero() {
			discount = gross.Mul(l.DiscountPercent).Div(dec("100"))
		}
		want = want.Add(gross.Sub(discount))
	}

	got := dec("0")
	for _, bucket := range out.Totals.Buckets {
		got = got.Add(bucket.Base)
	}
	// Within rounding tolerance of one cent.
	assert.True(t, got.Sub(want).Abs().LessThanOrEqual(dec("0.01")), "got %s want %s", got, want)
}

func TestAggregateTotalsIdempotent(t *testing.T) {
	buckets := allocate(t,
		fiscal.LineItem{Quantity: dec("3"), UnitPrice: dec("3.37"), RateCode: catalog.RateFifteen},
		fiscal.LineItem{Quantity: dec("1"), UnitPrice: dec("0.99"), RateCode: catalog.RateTwelve},
	)
	rates := catalog.DefaultRates()
	first, err := fiscal.AggregateTotals(buckets, rates, dec("0"), dec("0"))
	require.NoError(t, err)
	second, err := fiscal.AggregateTotals(buckets, rates, dec("0"), dec("0"))
	require.NoError(t, err)
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
	assert.True(t, first.TotalTax.Equal(second.TotalTax))
}

func TestAggregateTotalsRoundsHalfUp(t *testing.T) {
	// 0.50 * 15% = 0.075, which rounds half-up to 0.08.
	buckets := allocate(t,
		fiscal.LineItem{Quantity: dec("1"), UnitPrice: dec("0.50"), RateCode: catalog.RateFifteen},
	)
	totals, err := fiscal.AggregateTotals(buckets, catalog.DefaultRates(), dec("0"), dec("0"))
	require.NoError(t, err)
	assert.True(t, totals.Buckets[catalog.RateFifteen].Tax.Equal(dec("0.08")), "tax %s", totals.Buckets[catalog.RateFifteen].Tax)
}
