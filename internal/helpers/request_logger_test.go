package helpers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRedactBody(t *testing.T) {
	got := redactBody([]byte(`{"email":"jane@example.com","password":"secret1"}`))
	if strings.Contains(got, "secret1") {
		t.Errorf("password leaked: %s", got)
	}
	if !strings.Contains(got, redacted) || !strings.Contains(got, "jane@example.com") {
		t.Errorf("unexpected redacted body: %s", got)
	}

	if got := redactBody([]byte("not json")); got != "not json" {
		t.Errorf("expected non-JSON body unchanged, got %s", got)
	}
}

func TestRedactPath(t *testing.T) {
	if got := redactPath("/payments/callback/s3cret"); got != "/payments/callback/"+redacted {
		t.Errorf("callback token leaked: %s", got)
	}
	if got := redactPath("/payments/pay-1"); got != "/payments/pay-1" {
		t.Errorf("expected path unchanged, got %s", got)
	}
}

func TestExtractBusinessMetrics_Callback(t *testing.T) {
	body := []byte(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_123","ResultCode":0}}}`)
	metrics := extractBusinessMetrics(body)
	if metrics["checkout_request_id"] != "ws_CO_123" {
		t.Errorf("expected checkout id, got %v", metrics)
	}
}

func TestExtractResponseMetrics(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want string
	}{
		{"payment", `{"id":"pay-1","payment_type":"property_unlock","status":"pending"}`, "payment_id", "pay-1"},
		{"listing", `{"id":"prop-1","landlord_id":"u-1"}`, "property_id", "prop-1"},
		{"public property", `{"id":"prop-2","display_price":"KSh 45,000"}`, "property_id", "prop-2"},
		{"details", `{"property_id":"prop-3"}`, "property_id", "prop-3"},
		{"status", `{"id":"pay-1","payment_type":"property_unlock","status":"pending"}`, "status", "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := extractResponseMetrics([]byte(tt.body))
			if metrics[tt.key] != tt.want {
				t.Errorf("expected %s=%s, got %v", tt.key, tt.want, metrics)
			}
		})
	}
}

func TestRequestLoggerWithBody_PreservesBody(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"pay-1","payment_type":"property_unlock"}`))
	})

	body := `{"phone":"0712345678"}`
	req := httptest.NewRequest(http.MethodPost, "/properties/p1/unlock", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	RequestLoggerWithBody(next).ServeHTTP(w, req)

	if seen != body {
		t.Errorf("handler saw %q, want %q", seen, body)
	}
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pay-1") {
		t.Errorf("response body not forwarded: %s", w.Body.String())
	}
}

func TestLoggingResponseWriter_SkipsBinary(t *testing.T) {
	rec := httptest.NewRecorder()
	lrw := &loggingResponseWriter{ResponseWriter: rec}
	lrw.Header().Set("Content-Type", "image/jpeg")
	lrw.Write([]byte{0xff, 0xd8, 0xff})

	if lrw.body.Len() != 0 {
		t.Errorf("expected binary body not to be captured, got %d bytes", lrw.body.Len())
	}
	if rec.Body.Len() != 3 {
		t.Errorf("expected body forwarded, got %d bytes", rec.Body.Len())
	}
}
