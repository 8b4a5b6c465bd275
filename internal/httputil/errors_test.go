package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("response body is not an APIError: %v", err)
	}
	return apiErr
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "req_123", http.StatusTeapot, "test_error", "test_code", "something happened")

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %s", ct)
	}
	if rid := rec.Header().Get("X-Request-ID"); rid != "req_123" {
		t.Errorf("expected request ID header, got %s", rid)
	}

	apiErr := decodeError(t, rec)
	if apiErr.Error.Message != "something happened" || apiErr.Error.Code != "test_code" {
		t.Errorf("unexpected error body: %+v", apiErr)
	}
	if apiErr.Error.RequestID != "req_123" {
		t.Errorf("expected request ID in body, got %s", apiErr.Error.RequestID)
	}
}

func TestWriteAuthError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAuthError(rec, "req_1", "Invalid API key")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Error.Type != "authentication_error" {
		t.Errorf("unexpected type: %s", apiErr.Error.Type)
	}
}

func TestWriteGenerationError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteGenerationError(rec, "req_2")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Error.Code != "generation_failed" {
		t.Errorf("unexpected code: %s", apiErr.Error.Code)
	}
	if apiErr.Error.Message == "" {
		t.Error("generation errors must carry a user-renderable apology")
	}
}

func TestWriteRateLimitError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRateLimitError(rec, "req_3", "slow down")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}
