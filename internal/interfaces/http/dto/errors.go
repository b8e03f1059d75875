package dto

import "net/http"

// Transport-level error codes. Domain errors keep their own codes
// (MISSING_VENDOR, INVALID_AMOUNT, ...) in responses.
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeTooLarge   = "REQUEST_TOO_LARGE"
)

// GenericInternalMessage is returned for unexpected errors in production
const GenericInternalMessage = "An unexpected error occurred"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// malformed or invalid input
	ErrCodeBadRequest:               http.StatusBadRequest,
	ErrCodeValidation:               http.StatusBadRequest,
	"INVALID_INPUT":                 http.StatusBadRequest,
	"MISSING_VENDOR":                http.StatusBadRequest,
	"INVALID_VENDOR":                http.StatusBadRequest,
	"EMPTY_VEHICLE_LIST":            http.StatusBadRequest,
	"INVALID_AMOUNT":                http.StatusBadRequest,
	"INVALID_ALLOCATION_STRATEGY":   http.StatusBadRequest,
	"ALLOCATION_MISMATCH":           http.StatusBadRequest,
	"INVALID_SHARED_INVOICE_TYPE":   http.StatusBadRequest,
	"VEHICLE_NOT_IN_SHARED_INVOICE": http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	// retryable conflicts
	"ALREADY_EXISTS":        http.StatusConflict,
	"DUPLICATE_NUMBER":      http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"OPTIMISTIC_LOCK_ERROR": http.StatusConflict,

	"INVALID_STATE": http.StatusUnprocessableEntity,

	ErrCodeTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
