package document

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/nexti-ec/facturacion-api/internal/accesskey"
	"github.com/nexti-ec/facturacion-api/internal/common"
	"github.com/nexti-ec/facturacion-api/internal/fiscal"
)

// Handler exposes the fiscal computation core over HTTP.
type Handler struct {
	Svc *Service
}

// Calcular computes the full tax breakdown and access key for a draft
// document.
func (h *Handler) Calcular(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "document service not configured", nil)
		return
	}
	var payload ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	out, err := h.Svc.Compute(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, out)
}

// ClaveAcceso generates the 49-digit access key from header fields alone.
func (h *Handler) ClaveAcceso(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "document service not configured", nil)
		return
	}
	var payload AccessKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	key, err := h.Svc.AccessKey(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]string{"accessKey": key})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fe.Namespace()+": failed "+fe.Tag())
		}
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", details)
		return
	}
	common.JSONError(w, http.StatusBadRequest, errorCode(err), err.Error(), nil)
}

// errorCode maps core error kinds onto the API's stable error codes.
func errorCode(err error) string {
	var (
		invalidLine     *fiscal.InvalidLineError
		unsupportedRate *fiscal.UnsupportedRateCodeError
		invalidDiscount *fiscal.InvalidDiscountError
		exceedsBase     *fiscal.DiscountExceedsBaseError
		invalidGratuity *fiscal.InvalidGratuityError
		invalidHeader   *accesskey.InvalidHeaderFieldError
	)
	switch {
	case errors.As(err, &invalidLine):
		return common.CodeInvalidLine
	case errors.As(err, &unsupportedRate):
		return common.CodeUnsupportedRateCode
	case errors.As(err, &invalidDiscount):
		return common.CodeInvalidDiscount
	case errors.As(err, &exceedsBase):
		return common.CodeDiscountExceedsBase
	case errors.As(err, &invalidGratuity):
		return common.CodeInvalidGratuity
	case errors.As(err, &invalidHeader):
		return common.CodeInvalidHeaderField
	default:
		return common.CodeBadRequest
	}
}
