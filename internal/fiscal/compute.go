package fiscal

import (
	"github.com/shopspring/decimal"

	"github.com/nexti-ec/facturacion-api/internal/accesskey"
	"github.com/nexti-ec/facturacion-api/internal/catalog"
)

// Input is the immutable snapshot of one draft document. The caller (the
// form-submission handler) assembles it once per request; nothing in it is
// mutated by the pipeline.
type Input struct {
	Header         accesskey.Header
	Lines          []LineItem
	GlobalDiscount *GlobalDiscount
	Gratuity       decimal.Decimal
	// NumericCode optionally pins the key's 8-digit code. Empty means
	// the engine's code source decides.
	NumericCode string
}

// Output pairs the mandated tax breakdown with the document's access key.
type Output struct {
	Totals    *DocumentTotals
	AccessKey string
}

// Engine runs the fiscal pipeline: normalize lines, allocate tax buckets,
// distribute the global discount, aggregate totals, and generate the
// access key. It holds only immutable reference data and is safe for
// concurrent use.
type Engine struct {
	Rates *catalog.RateTable
	Keys  *accesskey.Generator
}

// NewEngine wires an engine over the given tariff catalog and key
// generator.
func NewEngine(rates *catalog.RateTable, keys *accesskey.Generator) *Engine {
	return &Engine{Rates: rates, Keys: keys}
}

// Compute runs the whole pipeline. Either the full totals-plus-key pair is
// returned or an error; there is no partial output.
func (e *Engine) Compute(in Input) (*Output, error) {
	normalized, lineDiscounts, err := NormalizeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	buckets, err := AllocateBuckets(normalized, e.Rates)
	if err != nil {
		return nil, err
	}
	buckets, distributed, err := DistributeGlobalDiscount(buckets, in.GlobalDiscount)
	if err != nil {
		return nil, err
	}
	totals, err := AggregateTotals(buckets, e.Rates, in.Gratuity, lineDiscounts.Add(distributed))
	if err != nil {
		return nil, err
	}

	key, err := e.generateKey(in)
	if err != nil {
		return nil, err
	}
	return &Output{Totals: totals, AccessKey: key}, nil
}

func (e *Engine) generateKey(in Input) (string, error) {
	keys := e.Keys
	if keys == nil {
		keys = &accesskey.Generator{}
	}
	if in.NumericCode != "" {
		return keys.GenerateWithCode(in.Header, in.NumericCode)
	}
	return keys.Generate(in.Header)
}
