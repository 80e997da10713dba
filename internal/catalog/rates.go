package catalog

import "github.com/shopspring/decimal"

// RateCode identifies an entry in the SRI IVA tariff table (tabla de
// tarifas del IVA). Codes are the catalog values carried on the wire by
// electronic documents, not percentages.
type RateCode string

const (
	RateZero       RateCode = "0"  // 0%
	RateTwelve     RateCode = "2"  // 12%
	RateFourteen   RateCode = "3"  // 14%
	RateFifteen    RateCode = "4"  // 15%
	RateFive       RateCode = "5"  // 5%
	RateNotSubject RateCode = "6"  // no objeto de impuesto
	RateExempt     RateCode = "7"  // exento de IVA
	RateThirteen   RateCode = "10" // 13%
)

// Rate describes one tariff entry: catalog code, display label and the
// percentage applied to the taxable base.
type Rate struct {
	Code    RateCode        `json:"code"`
	Label   string          `json:"label"`
	Percent decimal.Decimal `json:"percent"`
}

// RateTable is the immutable tariff catalog. Entries keep catalog order so
// listings and bucket output are stable.
type RateTable struct {
	entries []Rate
	index   map[RateCode]Rate
}

// NewRateTable builds a table from the provided entries. Later duplicates
// overwrite earlier ones in the index but keep the first position.
func NewRateTable(entries []Rate) *RateTable {
	t := &RateTable{index: make(map[RateCode]Rate, len(entries))}
	for _, e := range entries {
		if _, seen := t.index[e.Code]; !seen {
			t.entries = append(t.entries, e)
		}
		t.index[e.Code] = e
	}
	return t
}

// DefaultRates returns the built-in SRI tariff catalog.
func DefaultRates() *RateTable {
	pct := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	return NewRateTable([]Rate{
		{Code: RateZero, Label: "Tarifa 0%", Percent: pct(0)},
		{Code: RateTwelve, Label: "Tarifa 12%", Percent: pct(12)},
		{Code: RateFourteen, Label: "Tarifa 14%", Percent: pct(14)},
		{Code: RateFifteen, Label: "Tarifa 15%", Percent: pct(15)},
		{Code: RateFive, Label: "Tarifa 5%", Percent: pct(5)},
		{Code: RateNotSubject, Label: "No objeto de impuesto", Percent: pct(0)},
		{Code: RateExempt, Label: "Exento de IVA", Percent: pct(0)},
		{Code: RateThirteen, Label: "Tarifa 13%", Percent: pct(13)},
	})
}

// Lookup returns the tariff entry for the given code.
func (t *RateTable) Lookup(code RateCode) (Rate, bool) {
	r, ok := t.index[code]
	return r, ok
}

// Codes returns every catalog code in catalog order.
func (t *RateTable) Codes() []RateCode {
	out := make([]RateCode, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Code)
	}
	return out
}

// Rates returns a copy of the catalog entries in catalog order.
func (t *RateTable) Rates() []Rate {
	out := make([]Rate, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of catalog entries.
func (t *RateTable) Len() int { return len(t.entries) }
