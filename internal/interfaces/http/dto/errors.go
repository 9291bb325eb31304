package dto

import (
	"net/http"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
)

// Transport level error codes. Domain error codes are passed through unchanged.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_FAILED"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the bearer token cannot be verified
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeUnavailable is used when a dependency is down
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
)

// Aliases for the domain codes handlers refer to directly
const (
	ErrCodeInvalidInput = shared.CodeInvalidInput
	ErrCodeUnauthorized = shared.CodeUnauthorized
	ErrCodeForbidden    = shared.CodeForbidden
	ErrCodeNotFound     = shared.CodeNotFound
	ErrCodeConflict     = shared.CodeConflict
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input and validation -> 400
	ErrCodeBadRequest:              http.StatusBadRequest,
	ErrCodeValidation:              http.StatusBadRequest,
	shared.CodeInvalidInput:        http.StatusBadRequest,
	shared.CodeInvalidAmount:       http.StatusBadRequest,
	shared.CodeInvalidCurrency:     http.StatusBadRequest,
	payout.CodeNoParties:           http.StatusBadRequest,
	payout.CodeUnknownPrimaryParty: http.StatusBadRequest,
	payout.CodeInvalidSplit:        http.StatusBadRequest,
	payout.CodeInvalidRole:         http.StatusBadRequest,

	// Auth
	shared.CodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,

	// Resources
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeConflict:            http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
