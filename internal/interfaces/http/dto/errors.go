package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation        = "ERR_VALIDATION"
	ErrCodeInvalidTenantName = "ERR_INVALID_TENANT_NAME"
	ErrCodeInvalidEmail      = "ERR_INVALID_EMAIL"
	ErrCodeMissingProperty   = "ERR_MISSING_PROPERTY"
	ErrCodeMissingDates      = "ERR_MISSING_DATES"
	ErrCodeInvalidDateRange  = "ERR_INVALID_DATE_RANGE"
	ErrCodeInvalidRent       = "ERR_INVALID_RENT"
	ErrCodeInvalidLeadDays   = "ERR_INVALID_REMINDER_LEAD_DAYS"
	ErrCodeInvalidBudget     = "ERR_INVALID_BUDGET"
	ErrCodeInvalidStatus     = "ERR_INVALID_STATUS"
)

// Resource error codes
const (
	ErrCodeNotFound               = "ERR_NOT_FOUND"
	ErrCodeConflict               = "ERR_CONFLICT"
	ErrCodeActiveContractConflict = "ERR_ACTIVE_CONTRACT_CONFLICT"
	ErrCodeInvalidState           = "ERR_INVALID_STATE"
	ErrCodeDocumentAttachFailed   = "ERR_DOCUMENT_ATTACH_FAILED"
	ErrCodeManualCleanupRequired  = "ERR_MANUAL_CLEANUP_REQUIRED"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeInvalidTenantName: http.StatusBadRequest,
	ErrCodeInvalidEmail:      http.StatusBadRequest,
	ErrCodeMissingProperty:   http.StatusBadRequest,
	ErrCodeMissingDates:      http.StatusBadRequest,
	ErrCodeInvalidDateRange:  http.StatusBadRequest,
	ErrCodeInvalidRent:       http.StatusBadRequest,
	ErrCodeInvalidLeadDays:   http.StatusBadRequest,
	ErrCodeInvalidBudget:     http.StatusBadRequest,
	ErrCodeInvalidStatus:     http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeConflict:               http.StatusConflict,
	ErrCodeActiveContractConflict: http.StatusConflict,

	// Lifecycle rules -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Provisioning document step. The attach failure was fully compensated;
	// the cleanup case left rows behind.
	ErrCodeDocumentAttachFailed:  http.StatusBadGateway,
	ErrCodeManualCleanupRequired: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes whose API code is not simply ERR_<code>
var domainCodeMapping = map[string]string{
	"ROLLBACK_FAILED": ErrCodeManualCleanupRequired,
	"INTERNAL_ERROR":  ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format are returned as-is.
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
