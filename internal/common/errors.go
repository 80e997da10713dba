package common

import "errors"

// Error codes shared by handlers when mapping domain failures onto the
// canonical error envelope.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeInternal            = "INTERNAL"
	CodeInvalidLine         = "INVALID_LINE"
	CodeUnsupportedRateCode = "UNSUPPORTED_RATE_CODE"
	CodeDiscountExceedsBase = "DISCOUNT_EXCEEDS_BASE"
	CodeInvalidDiscount     = "INVALID_DISCOUNT"
	CodeInvalidHeaderField  = "INVALID_HEADER_FIELD"
	CodeInvalidGratuity     = "INVALID_GRATUITY"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest builds a 400 AppError around a validation failure.
func BadRequest(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: 400, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
