package observability

import (
	"net/http"
	"strconv"
	"time"
)

// routes lists the paths reported verbatim in the route label. Anything
// else is folded into "other" to keep label cardinality bounded.
var routes = map[string]bool{
	"/ask":                true,
	"/article":            true,
	"/data":               true,
	"/api/verify-license": true,
	"/login":              true,
	"/logout":             true,
	"/status":             true,
	"/toggle":             true,
	"/healthz":            true,
	"/readyz":             true,
}

// RouteLabel returns the metrics label for a request path.
func RouteLabel(path string) string {
	if routes[path] {
		return path
	}
	return "other"
}

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - askgate_requests_total (counter): incremented per request with method, status class, and route labels
//   - askgate_request_duration_seconds (histogram): request duration with method and route labels
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		route := RouteLabel(r.URL.Path)

		// Build a status class label like "2xx", "4xx", "5xx".
		statusStr := strconv.Itoa(sw.status/100) + "xx"

		RequestsTotal.WithLabelValues(r.Method, statusStr, route).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
