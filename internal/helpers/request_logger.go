package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)
}

const (
	maxRequestBody  = 1000
	maxErrorBody    = 500
	maxCapturedBody = 64 << 10

	redacted = "[REDACTED]"
)

var sensitiveFields = []string{"password", "token"}

// Path prefixes whose remaining segment is a secret.
var sensitivePathPrefixes = []string{"/payments/callback/"}

func redactPath(path string) string {
	for _, prefix := range sensitivePathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return prefix + redacted
		}
	}
	return path
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.statusCode == 0 {
		lrw.statusCode = http.StatusOK
	}
	// Image bytes are not worth keeping.
	if lrw.body.Len() < maxCapturedBody && isTextual(lrw.Header().Get("Content-Type")) {
		lrw.body.Write(b)
	}
	return lrw.ResponseWriter.Write(b)
}

func isTextual(contentType string) bool {
	return contentType == "" ||
		strings.HasPrefix(contentType, "application/json") ||
		strings.HasPrefix(contentType, "text/")
}

func extractBusinessMetrics(body []byte) map[string]interface{} {
	metrics := make(map[string]interface{})

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return metrics
	}

	if propertyID, ok := data["property_id"].(string); ok && propertyID != "" {
		metrics["property_id"] = propertyID
	}
	if email, ok := data["email"].(string); ok && email != "" {
		metrics["email"] = email
	}

	// Daraja callbacks carry the checkout id in Body.stkCallback.
	if envelope, ok := data["Body"].(map[string]interface{}); ok {
		if cb, ok := envelope["stkCallback"].(map[string]interface{}); ok {
			if checkoutID, ok := cb["CheckoutRequestID"].(string); ok && checkoutID != "" {
				metrics["checkout_request_id"] = checkoutID
			}
		}
	}

	return metrics
}

func extractResponseMetrics(body []byte) map[string]interface{} {
	metrics := make(map[string]interface{})

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return metrics
	}

	if id, ok := data["id"].(string); ok && id != "" {
		if _, isPayment := data["payment_type"]; isPayment {
			metrics["payment_id"] = id
		} else if _, isProperty := data["landlord_id"]; isProperty {
			metrics["property_id"] = id
		} else if _, isProperty := data["display_price"]; isProperty {
			metrics["property_id"] = id
		}
	}
	if propertyID, ok := data["property_id"].(string); ok && propertyID != "" {
		metrics["property_id"] = propertyID
	}
	if checkoutID, ok := data["checkout_request_id"].(string); ok && checkoutID != "" {
		metrics["checkout_request_id"] = checkoutID
	}
	if status, ok := data["status"].(string); ok && status != "" {
		metrics["status"] = status
	}

	return metrics
}

// redactBody blanks credential fields of a JSON object body.
func redactBody(body []byte) string {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}

	changed := false
	for _, field := range sensitiveFields {
		if _, ok := data[field]; ok {
			data[field] = redacted
			changed = true
		}
	}
	if !changed {
		return string(body)
	}

	out, err := json.Marshal(data)
	if err != nil {
		return redacted
	}
	return string(out)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "...(truncated)"
	}
	return s
}

func RequestLoggerWithBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())

		logEvent := logger.Info().
			Str("event", "request_start").
			Str("method", r.Method).
			Str("path", redactPath(r.URL.Path)).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent())

		if requestID != "" {
			logEvent = logEvent.Str("request_id", requestID)
		}
		if r.URL.RawQuery != "" {
			logEvent = logEvent.Str("query", r.URL.RawQuery)
		}

		var requestMetrics map[string]interface{}
		if r.Body != nil && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			bodyBytes, err := io.ReadAll(r.Body)
			if err == nil && len(bodyBytes) > 0 {
				requestMetrics = extractBusinessMetrics(bodyBytes)
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

				for k, v := range requestMetrics {
					if strVal, ok := v.(string); ok {
						logEvent = logEvent.Str(k, strVal)
					}
				}

				if requestBodyStr := truncate(redactBody(bodyBytes), maxRequestBody); requestBodyStr != "" {
					logEvent = logEvent.Str("request_body", requestBodyStr)
				}
			}
		}

		logEvent.Msg("HTTP request started")

		lrw := &loggingResponseWriter{ResponseWriter: w}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		durationMs := float64(duration.Nanoseconds()) / 1e6

		responseMetrics := extractResponseMetrics(lrw.body.Bytes())

		logEvent = logger.Info().
			Str("event", "request_complete").
			Str("method", r.Method).
			Str("path", redactPath(r.URL.Path)).
			Int("status_code", lrw.statusCode).
			Float64("duration_ms", durationMs).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr)

		if requestID != "" {
			logEvent = logEvent.Str("request_id", requestID)
		}

		// Route params are only known once the router has matched.
		for _, param := range []string{"property_id", "payment_id", "message_id"} {
			if v := chi.URLParam(r, param); v != "" {
				logEvent = logEvent.Str(param, v)
			}
		}

		for k, v := range requestMetrics {
			if strVal, ok := v.(string); ok {
				logEvent = logEvent.Str(k, strVal)
			}
		}

		for k, v := range responseMetrics {
			if strVal, ok := v.(string); ok {
				logEvent = logEvent.Str(k, strVal)
			}
		}

		if lrw.statusCode >= 400 {
			logEvent = logEvent.
				Str("level", "error").
				Int("error_code", lrw.statusCode)

			if respBody := truncate(lrw.body.String(), maxErrorBody); respBody != "" {
				logEvent = logEvent.Str("error_response", respBody)
			}
		}

		if lrw.statusCode >= 500 {
			logEvent.Msg("HTTP request failed")
		} else if lrw.statusCode >= 400 {
			logEvent.Msg("HTTP request client error")
		} else {
			logEvent.Msg("HTTP request completed")
		}
	})
}
