package catalog

// PaymentMethod is one entry of the SRI formas de pago catalog (tabla 24).
type PaymentMethod struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// DefaultPaymentMethods returns the subset of the formas de pago catalog
// the invoicing form offers.
func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{Code: "01", Label: "Sin utilización del sistema financiero"},
		{Code: "15", Label: "Compensación de deudas"},
		{Code: "16", Label: "Tarjeta de débito"},
		{Code: "17", Label: "Dinero electrónico"},
		{Code: "18", Label: "Tarjeta prepago"},
		{Code: "19", Label: "Tarjeta de crédito"},
		{Code: "20", Label: "Otros con utilización del sistema financiero"},
		{Code: "21", Label: "Endoso de títulos"},
	}
}

// ValidPaymentMethod reports whether the code exists in the catalog.
func ValidPaymentMethod(methods []PaymentMethod, code string) bool {
	for _, m := range methods {
		if m.Code == code {
			return true
		}
	}
	return false
}
