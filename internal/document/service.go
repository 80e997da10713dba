package document

import (
	"context"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/nexti-ec/facturacion-api/internal/accesskey"
	"github.com/nexti-ec/facturacion-api/internal/catalog"
	"github.com/nexti-ec/facturacion-api/internal/fiscal"
	"github.com/nexti-ec/facturacion-api/internal/obs"
)

// HeaderPayload mirrors the document header of the invoicing form. Fields
// the form leaves blank are filled from the issuer defaults.
type HeaderPayload struct {
	DocumentType     string `json:"documentType" validate:"required,len=2,number"`
	Establishment    string `json:"establishment" validate:"omitempty,len=3,number"`
	EmissionPoint    string `json:"emissionPoint" validate:"omitempty,len=3,number"`
	SequentialNumber string `json:"sequentialNumber" validate:"required,len=9,number"`
	IssuerTaxID      string `json:"issuerTaxId" validate:"omitempty,len=13,number"`
	EmissionDate     string `json:"emissionDate" validate:"required,datetime=2006-01-02"`
	Environment      string `json:"environment" validate:"omitempty,oneof=test production"`
	EmissionMode     string `json:"emissionMode" validate:"omitempty,oneof=normal contingency"`
}

// LinePayload is one row of the form's line-item table.
type LinePayload struct {
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	RateCode        string          `json:"rateCode" validate:"required"`
}

// DiscountPayload is the document-level discount; amount and percent are
// mutually exclusive, amount wins when both are present.
type DiscountPayload struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// ComputeRequest is the full form submission.
type ComputeRequest struct {
	Header         HeaderPayload    `json:"header" validate:"required"`
	Lines          []LinePayload    `json:"lines" validate:"required,min=1,dive"`
	GlobalDiscount *DiscountPayload `json:"globalDiscount"`
	Gratuity       decimal.Decimal  `json:"gratuity"`
	PaymentMethod  string           `json:"paymentMethod" validate:"omitempty"`
	NumericCode    string           `json:"numericCode" validate:"omitempty,len=8,number"`
}

// AccessKeyRequest asks for the key alone, without totals.
type AccessKeyRequest struct {
	Header      HeaderPayload `json:"header" validate:"required"`
	NumericCode string        `json:"numericCode" validate:"omitempty,len=8,number"`
}

// ComputeResult is the response body for a computed draft.
type ComputeResult struct {
	ID        string                 `json:"id"`
	Totals    *fiscal.DocumentTotals `json:"totals"`
	AccessKey string                 `json:"accessKey"`
}

// IssuerDefaults supplies header fields the form omits.
type IssuerDefaults struct {
	RUC           string
	Establishment string
	EmissionPoint string
	Environment   accesskey.Environment
}

// Service assembles the immutable fiscal input from a request and runs the
// engine once per submission.
type Service struct {
	Engine   *fiscal.Engine
	Issuer   IssuerDefaults
	Payments []catalog.PaymentMethod
	Validate *validator.Validate
}

// Compute validates the submission, runs the pipeline and returns the
// totals plus access key.
func (s *Service) Compute(ctx context.Context, req ComputeRequest) (*ComputeResult, error) {
	_, span := otel.Tracer("document").Start(ctx, "document.compute")
	defer span.End()

	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	if req.PaymentMethod != "" && len(s.Payments) > 0 && !catalog.ValidPaymentMethod(s.Payments, req.PaymentMethod) {
		return nil, fmt.Errorf("unknown payment method code %q", req.PaymentMethod)
	}
	header, err := s.header(req.Header)
	if err != nil {
		return nil, err
	}

	lines := make([]fiscal.LineItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, fiscal.LineItem{
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountAmount:  l.DiscountAmount,
			DiscountPercent: l.DiscountPercent,
			RateCode:        catalog.RateCode(l.RateCode),
		})
	}
	var discount *fiscal.GlobalDiscount
	if req.GlobalDiscount != nil {
		discount = &fiscal.GlobalDiscount{Amount: req.GlobalDiscount.Amount, Percent: req.GlobalDiscount.Percent}
	}

	out, err := s.Engine.Compute(fiscal.Input{
		Header:         header,
		Lines:          lines,
		GlobalDiscount: discount,
		Gratuity:       req.Gratuity,
		NumericCode:    req.NumericCode,
	})
	obs.ObserveDocumentCompute(header.DocumentType, err)
	if err != nil {
		return nil, err
	}
	return &ComputeResult{ID: uuid.NewString(), Totals: out.Totals, AccessKey: out.AccessKey}, nil
}

// AccessKey generates the 49-digit key from the header alone.
func (s *Service) AccessKey(ctx context.Context, req AccessKeyRequest) (string, error) {
	_, span := otel.Tracer("document").Start(ctx, "document.access_key")
	defer span.End()

	if err := s.validateStruct(req); err != nil {
		return "", err
	}
	header, err := s.header(req.Header)
	if err != nil {
		return "", err
	}
	keys := s.Engine.Keys
	if keys == nil {
		keys = &accesskey.Generator{}
	}
	var key string
	if req.NumericCode != "" {
		key, err = keys.GenerateWithCode(header, req.NumericCode)
	} else {
		key, err = keys.Generate(header)
	}
	obs.ObserveAccessKey(string(header.Environment), err)
	return key, err
}

func (s *Service) validateStruct(v any) error {
	if s.Validate == nil {
		return nil
	}
	return s.Validate.Struct(v)
}

// header merges the payload with the issuer defaults and parses the
// emission date.
func (s *Service) header(p HeaderPayload) (accesskey.Header, error) {
	issuedAt, err := time.Parse("2006-01-02", p.EmissionDate)
	if err != nil {
		return accesskey.Header{}, &accesskey.InvalidHeaderFieldError{Field: "emissionDate", Value: p.EmissionDate, Want: "a yyyy-mm-dd date"}
	}
	env := accesskey.Environment(p.Environment)
	if p.Environment == "" {
		env = s.Issuer.Environment
	}
	mode := accesskey.EmissionMode(p.EmissionMode)
	if p.EmissionMode == "" {
		mode = accesskey.EmissionNormal
	}
	return accesskey.Header{
		DocumentType:  p.DocumentType,
		RUC:           valueOrDefault(p.IssuerTaxID, s.Issuer.RUC),
		Establishment: valueOrDefault(p.Establishment, s.Issuer.Establishment),
		EmissionPoint: valueOrDefault(p.EmissionPoint, s.Issuer.EmissionPoint),
		Sequential:    p.SequentialNumber,
		IssuedAt:      issuedAt,
		Environment:   env,
		EmissionMode:  mode,
	}, nil
}

func valueOrDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
