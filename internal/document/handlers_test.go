package document_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexti-ec/facturacion-api/internal/accesskey"
	"github.com/nexti-ec/facturacion-api/internal/catalog"
	"github.com/nexti-ec/facturacion-api/internal/document"
	"github.com/nexti-ec/facturacion-api/internal/fiscal"
)

func newHandler() *document.Handler {
	engine := fiscal.NewEngine(catalog.DefaultRates(), &accesskey.Generator{Source: accesskey.FixedSource("12345678")})
	return &document.Handler{Svc: &document.Service{
		Engine: engine,
		Issuer: document.IssuerDefaults{
			RUC:           "1792123456001",
			Establishment: "001",
			EmissionPoint: "001",
			Environment:   accesskey.EnvironmentTest,
		},
		Payments: catalog.DefaultPaymentMethods(),
		Validate: validator.New(validator.WithRequiredStructEnabled()),
	}}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload.Error.Code
}

func validRequest() map[string]any {
	return map[string]any{
		"header": map[string]any{
			"documentType":     "01",
			"sequentialNumber": "000000001",
			"emissionDate":     "2024-01-15",
		},
		"lines": []map[string]any{
			{"quantity": "2", "unitPrice": "10.00", "rateCode": "4"},
		},
		"numericCode": "12345678",
	}
}

func TestCalcularHappyPath(t *testing.T) {
	h := newHandler()
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", validRequest())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var payload struct {
		Data document.ComputeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Data.ID)
	assert.Equal(t, "1501202401179212345600110010010000000011234567815", payload.Data.AccessKey)
	require.NotNil(t, payload.Data.Totals)
	assert.True(t, payload.Data.Totals.GrandTotal.Equal(decimal.RequireFromString("23")),
		"grand total %s", payload.Data.Totals.GrandTotal)
	bucket := payload.Data.Totals.Buckets[catalog.RateFifteen]
	assert.True(t, bucket.Tax.Equal(decimal.RequireFromString("3")), "tax %s", bucket.Tax)
}

func TestCalcularHeaderDefaultsFromIssuer(t *testing.T) {
	h := newHandler()
	req := validRequest()
	// Header omits establishment, point, RUC and environment; issuer
	// defaults complete them, so the key matches the fully-specified one.
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestCalcularDiscountExceedsBase(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req["globalDiscount"] = map[string]any{"amount": "100"}
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "DISCOUNT_EXCEEDS_BASE", decodeError(t, rr))
}

func TestCalcularUnknownRateCode(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req["lines"] = []map[string]any{
		{"quantity": "1", "unitPrice": "5.00", "rateCode": "99"},
	}
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "UNSUPPORTED_RATE_CODE", decodeError(t, rr))
}

func TestCalcularInvalidLine(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req["lines"] = []map[string]any{
		{"quantity": "-1", "unitPrice": "5.00", "rateCode": "4"},
	}
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_LINE", decodeError(t, rr))
}

func TestCalcularInvalidGratuity(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req["gratuity"] = "-2"
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_GRATUITY", decodeError(t, rr))
}

func TestCalcularValidationFailure(t *testing.T) {
	h := newHandler()
	req := validRequest()
	header := req["header"].(map[string]any)
	delete(header, "sequentialNumber")
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rr))
}

func TestCalcularRejectsMalformedJSON(t *testing.T) {
	h := newHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documentos/calcular", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	h.Calcular(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rr))
}

func TestCalcularUnknownPaymentMethod(t *testing.T) {
	h := newHandler()
	req := validRequest()
	req["paymentMethod"] = "99"
	rr := postJSON(t, h.Calcular, "/api/v1/documentos/calcular", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rr))
}

func TestClaveAcceso(t *testing.T) {
	h := newHandler()
	rr := postJSON(t, h.ClaveAcceso, "/api/v1/documentos/clave-acceso", map[string]any{
		"header": map[string]any{
			"documentType":     "01",
			"sequentialNumber": "000000001",
			"emissionDate":     "2024-01-15",
		},
		"numericCode": "12345678",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var payload struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "1501202401179212345600110010010000000011234567815", payload.Data["accessKey"])
}

func TestClaveAccesoInvalidHeaderField(t *testing.T) {
	h := newHandler()
	rr := postJSON(t, h.ClaveAcceso, "/api/v1/documentos/clave-acceso", map[string]any{
		"header": map[string]any{
			"documentType":     "01",
			"sequentialNumber": "000000001",
			"emissionDate":     "2024-01-15",
			"issuerTaxId":      "1792123456001",
			"establishment":    "001",
			"emissionPoint":    "001",
			"environment":      "test",
			"emissionMode":     "contingency",
		},
		"numericCode": "1234567a",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rr))
}
