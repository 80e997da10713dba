// Package accesskey builds the 49-digit clave de acceso that every SRI
// electronic document carries. The key is the 48-digit field payload plus
// a modulus-11 check digit.
package accesskey

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// SRI document type codes (tabla 3).
const (
	DocTypeFactura      = "01"
	DocTypeLiquidacion  = "03"
	DocTypeNotaCredito  = "04"
	DocTypeNotaDebito   = "05"
	DocTypeGuiaRemision = "06"
	DocTypeRetencion    = "07"
)

// Environment selects the SRI environment the document targets.
type Environment string

const (
	EnvironmentTest       Environment = "test"
	EnvironmentProduction Environment = "production"
)

// Code returns the single-digit SRI ambiente code.
func (e Environment) Code() (string, bool) {
	switch e {
	case EnvironmentTest:
		return "1", true
	case EnvironmentProduction:
		return "2", true
	}
	return "", false
}

// EmissionMode selects the SRI emission type.
type EmissionMode string

const (
	EmissionNormal      EmissionMode = "normal"
	EmissionContingency EmissionMode = "contingency"
)

// Code returns the single-digit SRI tipo de emisión code.
func (m EmissionMode) Code() (string, bool) {
	switch m {
	case EmissionNormal:
		return "1", true
	case EmissionContingency:
		return "2", true
	}
	return "", false
}

// Header carries the document metadata encoded into the key. Sequential is
// the already-formatted 9-digit number issued by the numbering authority;
// the generator treats it as opaque.
type Header struct {
	DocumentType  string
	RUC           string
	Establishment string
	EmissionPoint string
	Sequential    string
	IssuedAt      time.Time
	Environment   Environment
	EmissionMode  EmissionMode
}

// InvalidHeaderFieldError reports a header field that violates its fixed
// width or numeric format.
type InvalidHeaderFieldError struct {
	Field string
	Value string
	Want  string
}

func (e *InvalidHeaderFieldError) Error() string {
	return fmt.Sprintf("header field %s=%q: want %s", e.Field, e.Value, e.Want)
}

// CodeSource supplies the 8-digit numeric code embedded in the key.
// Injecting the source keeps key generation deterministic under test.
type CodeSource interface {
	NumericCode() (string, error)
}

// RandomSource draws the numeric code from crypto/rand.
type RandomSource struct{}

// NumericCode returns a fresh zero-padded 8-digit code.
func (RandomSource) NumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", fmt.Errorf("draw numeric code: %w", err)
	}
	return fmt.Sprintf("%08d", n), nil
}

// FixedSource always returns the same code. Test helper.
type FixedSource string

// NumericCode returns the fixed code.
func (s FixedSource) NumericCode() (string, error) { return string(s), nil }

// Generator produces access keys. The zero value uses crypto/rand codes.
type Generator struct {
	Source CodeSource
}

// Generate builds the 49-digit key for the header, drawing the numeric
// code from the generator's source.
func (g *Generator) Generate(h Header) (string, error) {
	source := g.Source
	if source == nil {
		source = RandomSource{}
	}
	code, err := source.NumericCode()
	if err != nil {
		return "", err
	}
	return g.GenerateWithCode(h, code)
}

// GenerateWithCode builds the 49-digit key using the caller-supplied
// 8-digit numeric code. The payload is, in order: emission date ddmmyyyy,
// document type (2), issuer RUC (13), environment (1), establishment (3),
// emission point (3), sequential (9), numeric code (8), emission type (1).
func (g *Generator) GenerateWithCode(h Header, code string) (string, error) {
	payload, err := buildPayload(h, code)
	if err != nil {
		return "", err
	}
	check, err := CheckDigit(payload)
	if err != nil {
		return "", err
	}
	return payload + fmt.Sprintf("%d", check), nil
}

func buildPayload(h Header, code string) (string, error) {
	if h.IssuedAt.IsZero() {
		return "", &InvalidHeaderFieldError{Field: "emissionDate", Value: "", Want: "a calendar date"}
	}
	envCode, ok := h.Environment.Code()
	if !ok {
		return "", &InvalidHeaderFieldError{Field: "environment", Value: string(h.Environment), Want: "test or production"}
	}
	modeCode, ok := h.EmissionMode.Code()
	if !ok {
		return "", &InvalidHeaderFieldError{Field: "emissionMode", Value: string(h.EmissionMode), Want: "normal or contingency"}
	}
	fields := []struct {
		name  string
		value string
		width int
	}{
		{"documentType", h.DocumentType, 2},
		{"issuerTaxId", h.RUC, 13},
		{"establishment", h.Establishment, 3},
		{"emissionPoint", h.EmissionPoint, 3},
		{"sequentialNumber", h.Sequential, 9},
		{"numericCode", code, 8},
	}
	for _, f := range fields {
		if err := requireDigits(f.name, f.value, f.width); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.Grow(48)
	b.WriteString(h.IssuedAt.Format("02012006"))
	b.WriteString(h.DocumentType)
	b.WriteString(h.RUC)
	b.WriteString(envCode)
	b.WriteString(h.Establishment)
	b.WriteString(h.EmissionPoint)
	b.WriteString(h.Sequential)
	b.WriteString(code)
	b.WriteString(modeCode)
	return b.String(), nil
}

func requireDigits(field, value string, width int) error {
	if len(value) != width {
		return &InvalidHeaderFieldError{Field: field, Value: value, Want: fmt.Sprintf("exactly %d digits", width)}
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return &InvalidHeaderFieldError{Field: field, Value: value, Want: fmt.Sprintf("exactly %d digits", width)}
		}
	}
	return nil
}

// CheckDigit computes the modulus-11 check digit over the 48-digit
// payload. Weights cycle 2..7 starting from the rightmost digit; the raw
// result 11 maps to 0 and 10 maps to 1.
func CheckDigit(payload string) (int, error) {
	if len(payload) != 48 {
		return 0, &InvalidHeaderFieldError{Field: "payload", Value: payload, Want: "exactly 48 digits"}
	}
	weights := [6]int{2, 3, 4, 5, 6, 7}
	sum := 0
	for i := 0; i < len(payload); i++ {
		c := payload[len(payload)-1-i]
		if c < '0' || c > '9' {
			return 0, &InvalidHeaderFieldError{Field: "payload", Value: payload, Want: "exactly 48 digits"}
		}
		sum += int(c-'0') * weights[i%6]
	}
	switch r := 11 - sum%11; r {
	case 11:
		return 0, nil
	case 10:
		return 1, nil
	default:
		return r, nil
	}
}

// Validate recomputes the check digit of a full 49-digit key.
func Validate(key string) error {
	if len(key) != 49 {
		return &InvalidHeaderFieldError{Field: "accessKey", Value: key, Want: "exactly 49 digits"}
	}
	check, err := CheckDigit(key[:48])
	if err != nil {
		return err
	}
	if key[48] != byte('0'+check) {
		return fmt.Errorf("access key check digit mismatch: have %c, want %d", key[48], check)
	}
	return nil
}
