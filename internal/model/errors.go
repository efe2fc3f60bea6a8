package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable kind of an API error.
type ErrorCode string

const (
	// Token issuance
	CodeConfiguration  ErrorCode = "configuration_error"
	CodeInvalidPayload ErrorCode = "invalid_payload"
	CodeSigning        ErrorCode = "signing_error"

	// Authentication
	CodeUnauthorized ErrorCode = "unauthorized"

	// Storage
	CodeConnectivity ErrorCode = "connectivity_error"

	// Requests
	CodeBadRequest  ErrorCode = "bad_request"
	CodeValidation  ErrorCode = "validation_error"
	CodeNotFound    ErrorCode = "not_found"
	CodeRateLimited ErrorCode = "rate_limited"
	CodeInternal    ErrorCode = "internal_error"
)

// APIError is the error body returned by every endpoint.
type APIError struct {
	Status  int          `json:"-"`
	Success bool         `json:"success"`
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.Code, e.Message)
}

// WriteJSON writes the error as a JSON response
func (e *APIError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}

func newAPIError(status int, code ErrorCode, message string) *APIError {
	return &APIError{
		Status:  status,
		Success: false,
		Code:    code,
		Message: message,
	}
}

// Common error constructors

func NewConfigurationError(message string) *APIError {
	return newAPIError(http.StatusInternalServerError, CodeConfiguration, message)
}

func NewInvalidPayloadError(message string) *APIError {
	return newAPIError(http.StatusBadRequest, CodeInvalidPayload, message)
}

// NewSigningError reports a signing failure. internal selects 500 over 400.
func NewSigningError(message string, internal bool) *APIError {
	status := http.StatusBadRequest
	if internal {
		status = http.StatusInternalServerError
	}
	return newAPIError(status, CodeSigning, message)
}

func NewUnauthorizedError(message string) *APIError {
	return newAPIError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func NewServiceUnavailableError(message string) *APIError {
	return newAPIError(http.StatusServiceUnavailable, CodeConnectivity, message)
}

func NewBadRequestError(message string) *APIError {
	return newAPIError(http.StatusBadRequest, CodeBadRequest, message)
}

func NewValidationError(errors []FieldError) *APIError {
	message := "One or more fields failed validation"
	if len(errors) > 0 {
		message = errors[0].Message
		if len(errors) > 1 {
			message = fmt.Sprintf("%s (and %d more errors)", message, len(errors)-1)
		}
	}
	e := newAPIError(http.StatusBadRequest, CodeValidation, message)
	e.Errors = errors
	return e
}

func NewNotFoundError(resource string) *APIError {
	return newAPIError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewRouteNotFoundError is returned for paths no route matches.
func NewRouteNotFoundError() *APIError {
	return newAPIError(http.StatusNotFound, CodeNotFound, "Requested URL Not Found!")
}

func NewMethodNotAllowedError() *APIError {
	return newAPIError(http.StatusMethodNotAllowed, CodeBadRequest, "Method Not Allowed!")
}

func NewRateLimitError(retryAfter int) *APIError {
	return newAPIError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
}

func NewInternalError(message string) *APIError {
	if message == "" {
		message = "Internal Server Error!"
	}
	return newAPIError(http.StatusInternalServerError, CodeInternal, message)
}
