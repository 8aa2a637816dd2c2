package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// Metrics returns a middleware recording request counts and latency.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// collections whose second segment is an identifier.
var idCollections = map[string]bool{
	"accounts":     true,
	"transfers":    true,
	"receivables":  true,
	"cards":        true,
	"verification": true,
}

// fixedSegments are never identifiers.
var fixedSegments = map[string]bool{
	"me":     true,
	"submit": true,
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /api/v1/cards/01ABC/block -> /api/v1/cards/:id/block
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if idCollections[parts[i-1]] && parts[i] != "" && !fixedSegments[parts[i]] {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
