package catalog

import (
	"net/http"

	"github.com/nexti-ec/facturacion-api/internal/common"
)

// Handler serves the reference catalogs consumed by the invoicing form.
type Handler struct {
	Rates    *RateTable
	Payments []PaymentMethod
}

// Tarifas lists the IVA tariff catalog.
func (h *Handler) Tarifas(w http.ResponseWriter, _ *http.Request) {
	if h.Rates == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate catalog not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Rates.Rates()})
}

// FormasPago lists the payment-method catalog.
func (h *Handler) FormasPago(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Payments})
}
