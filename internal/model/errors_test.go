package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Error() Interface Tests
// ============================================================================

func TestAPIError_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	e := NewInvalidPayloadError("Payload must be a JSON object")

	errMsg := e.Error()

	if !strings.Contains(errMsg, "400") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, string(CodeInvalidPayload)) {
		t.Errorf("error message should contain code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "Payload must be a JSON object") {
		t.Errorf("error message should contain message, got: %s", errMsg)
	}
}

// ============================================================================
// WriteJSON Tests
// ============================================================================

func TestAPIError_WriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()

	NewConfigurationError("Token Secret Not Configured!").WriteJSON(rr)

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got %q", ct)
	}
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}

func TestAPIError_WriteJSON_Body(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()

	NewRouteNotFoundError().WriteJSON(rr)

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["message"] != "Requested URL Not Found!" {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if body["code"] != string(CodeNotFound) {
		t.Errorf("unexpected code: %v", body["code"])
	}
	if _, ok := body["Status"]; ok {
		t.Error("status must not be serialized into the body")
	}
	if _, ok := body["errors"]; ok {
		t.Error("errors should be omitted when empty")
	}
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestConstructors_StatusAndCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    *APIError
		status int
		code   ErrorCode
	}{
		{"configuration", NewConfigurationError("x"), http.StatusInternalServerError, CodeConfiguration},
		{"invalid payload", NewInvalidPayloadError("x"), http.StatusBadRequest, CodeInvalidPayload},
		{"signing caller", NewSigningError("x", false), http.StatusBadRequest, CodeSigning},
		{"signing internal", NewSigningError("x", true), http.StatusInternalServerError, CodeSigning},
		{"unauthorized", NewUnauthorizedError("x"), http.StatusUnauthorized, CodeUnauthorized},
		{"unavailable", NewServiceUnavailableError("x"), http.StatusServiceUnavailable, CodeConnectivity},
		{"bad request", NewBadRequestError("x"), http.StatusBadRequest, CodeBadRequest},
		{"not found", NewNotFoundError("Product"), http.StatusNotFound, CodeNotFound},
		{"method", NewMethodNotAllowedError(), http.StatusMethodNotAllowed, CodeBadRequest},
		{"rate limit", NewRateLimitError(30), http.StatusTooManyRequests, CodeRateLimited},
		{"internal", NewInternalError(""), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.Status)
			}
			if tt.err.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, tt.err.Code)
			}
			if tt.err.Success {
				t.Error("error envelopes must have success=false")
			}
		})
	}
}

func TestNewInternalError_DefaultMessage(t *testing.T) {
	t.Parallel()

	if got := NewInternalError("").Message; got != "Internal Server Error!" {
		t.Errorf("unexpected default message %q", got)
	}
}

func TestNewRateLimitError_IncludesRetryAfter(t *testing.T) {
	t.Parallel()

	if msg := NewRateLimitError(42).Message; !strings.Contains(msg, "42") {
		t.Errorf("message should mention retry delay, got %q", msg)
	}
}

func TestNewValidationError_Message(t *testing.T) {
	t.Parallel()

	single := NewValidationError([]FieldError{{Field: "title", Message: MsgTitleRequired}})
	if single.Message != MsgTitleRequired {
		t.Errorf("single error should use the field message, got %q", single.Message)
	}

	multi := NewValidationError([]FieldError{
		{Field: "title", Message: MsgTitleRequired},
		{Field: "price", Message: MsgPriceRequired},
	})
	if !strings.Contains(multi.Message, "and 1 more") {
		t.Errorf("multi error message should count the rest, got %q", multi.Message)
	}
	if len(multi.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(multi.Errors))
	}

	empty := NewValidationError(nil)
	if empty.Message == "" {
		t.Error("empty validation error still needs a message")
	}
}
