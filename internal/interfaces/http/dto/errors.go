package dto

import "net/http"

// Error code constants
const (
	ErrCodeUnknown    = "ERR_UNKNOWN"
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeConflict   = "ERR_CONFLICT"
)

// DomainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed default to 500.
var DomainCodeHTTPStatus = map[string]int{
	"NOT_FOUND":            http.StatusNotFound,
	"SUBSCRIBER_NOT_FOUND": http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"INVOICE_ALREADY_PAID": http.StatusConflict,
	"NO_ACTIVE_PLAN":       http.StatusUnprocessableEntity,
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_STATE":        http.StatusConflict,
	"INVALID_MSISDN":       http.StatusBadRequest,
	"INVALID_STATUS":       http.StatusBadRequest,
	"INVALID_EMAIL":        http.StatusBadRequest,
	"INVALID_PLAN_CODE":    http.StatusBadRequest,
	"INVALID_MONTHLY_FEE":  http.StatusBadRequest,
	"INVALID_START_DATE":   http.StatusBadRequest,
	"INVALID_END_DATE":     http.StatusBadRequest,
	"INVALID_AMOUNT":       http.StatusBadRequest,
	"INVALID_METHOD":       http.StatusBadRequest,
	"INVALID_INVOICE":      http.StatusBadRequest,
	"INVALID_PERIOD":       http.StatusBadRequest,
	"KEY_MISMATCH":         http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
}

// GetHTTPStatus resolves the HTTP status for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := DomainCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
