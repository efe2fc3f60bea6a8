// Package helpers provides common test utilities for e2e testing.
//
// This package includes HTTP request builders, response validators,
// and assertion helpers for testing API endpoints.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/model"
	"github.com/forgo/storefront/api/internal/service"
)

// TestSecret is the signing secret used by NewTestTokenService.
const TestSecret = "s3cret"

// ============================================================================
// Token Helpers
// ============================================================================

// NewTestTokenService returns a token service signing with TestSecret.
func NewTestTokenService() *service.TokenService {
	return service.NewTokenService(service.TokenServiceConfig{Secret: TestSecret})
}

// IssueToken issues a token for email, failing the test on error.
func IssueToken(t *testing.T, tokens *service.TokenService, email string) string {
	t.Helper()

	token, err := tokens.Issue(service.Claims{"email": email})
	if err != nil {
		t.Fatalf("helpers: failed to issue token: %v", err)
	}
	return token
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	raw     []byte
	headers map[string]string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithRawBody sets the request body verbatim
func (rb *RequestBuilder) WithRawBody(body string) *RequestBuilder {
	rb.raw = []byte(body)
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithToken adds a bearer token
func (rb *RequestBuilder) WithToken(token string) *RequestBuilder {
	return rb.WithHeader("Authorization", "Bearer "+token)
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	switch {
	case rb.raw != nil:
		bodyReader = bytes.NewReader(rb.raw)
	case rb.body != nil:
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)

	// Set content type for requests with body
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Add custom headers
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}

	return req
}

// Do builds the request and serves it through h.
func (rb *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	rb.t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, rb.Build())
	return rec
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertAPIError validates an error envelope
func AssertAPIError(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	var apiErr model.APIError
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &apiErr); err != nil {
		t.Fatalf("failed to decode error envelope: %v. Body: %s", err, string(bodyBytes))
	}

	if apiErr.Success {
		t.Error("expected success to be false")
	}
	if apiErr.Message == "" {
		t.Error("expected a message")
	}
	if expectedCode != "" && apiErr.Code != expectedCode {
		t.Errorf("expected code %q, got %q", expectedCode, apiErr.Code)
	}
}

// AssertValidationError checks for a validation error on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	AssertAPIError(t, resp, http.StatusBadRequest, model.CodeValidation)

	var apiErr model.APIError
	if err := json.Unmarshal(resp.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}

	for _, fe := range apiErr.Errors {
		if fe.Field == field {
			return // Found the expected field error
		}
	}

	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, apiErr.Errors)
}

// DecodeResponse decodes the response body into the given struct
func DecodeResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}
}

// GetDataFromResponse extracts the "data" field from a standard response
func GetDataFromResponse(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response struct {
		Data map[string]interface{} `json:"data"`
	}
	DecodeResponse(t, resp, &response)
	return response.Data
}

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// AssertRecordExists checks that a record exists in the database
func AssertRecordExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	if !recordExists(t, db, table, id) {
		t.Errorf("expected record %s:%s to exist", table, id)
	}
}

// AssertRecordNotExists checks that a record does not exist in the database
func AssertRecordNotExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	if recordExists(t, db, table, id) {
		t.Errorf("expected record %s:%s to not exist", table, id)
	}
}

func recordExists(t *testing.T, db database.Database, table, id string) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := db.Query(ctx, "SELECT * FROM type::thing($tb, $key)", map[string]interface{}{
		"tb":  table,
		"key": id,
	})
	if err != nil {
		t.Fatalf("helpers: failed to query %s:%s: %v", table, id, err)
	}
	return len(database.Records(results)) > 0
}

// ============================================================================
// Pointer Helpers
// ============================================================================

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to f
func Float64Ptr(f float64) *float64 {
	return &f
}
