package catalog_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nexti-ec/facturacion-api/internal/catalog"
)

func TestDefaultRatesLookup(t *testing.T) {
	rates := catalog.DefaultRates()
	cases := map[catalog.RateCode]string{
		catalog.RateZero:       "0",
		catalog.RateTwelve:     "12",
		catalog.RateFourteen:   "14",
		catalog.RateFifteen:    "15",
		catalog.RateFive:       "5",
		catalog.RateNotSubject: "0",
		catalog.RateExempt:     "0",
		catalog.RateThirteen:   "13",
	}
	for code, percent := range cases {
		rate, ok := rates.Lookup(code)
		if !ok {
			t.Fatalf("missing catalog code %s", code)
		}
		if !rate.Percent.Equal(decimal.RequireFromString(percent)) {
			t.Fatalf("code %s: expected %s%%, got %s", code, percent, rate.Percent)
		}
	}
	if _, ok := rates.Lookup(catalog.RateCode("99")); ok {
		t.Fatal("expected unknown code to miss")
	}
}

func TestDefaultRatesOrderIsStable(t *testing.T) {
	first := catalog.DefaultRates().Codes()
	second := catalog.DefaultRates().Codes()
	if len(first) != len(second) {
		t.Fatalf("catalog size changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("catalog order changed at %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestValidPaymentMethod(t *testing.T) {
	methods := catalog.DefaultPaymentMethods()
	if !catalog.ValidPaymentMethod(methods, "19") {
		t.Fatal("expected tarjeta de crédito to be valid")
	}
	if catalog.ValidPaymentMethod(methods, "99") {
		t.Fatal("expected unknown method to be invalid")
	}
}
