package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// metrics.New registers collectors globally, so the package shares one set.
var testMetrics = metrics.New()

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{
			name:       "normalizes card path",
			method:     http.MethodPost,
			path:       "/api/v1/cards/01HZX/block",
			statusCode: http.StatusConflict,
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodGet,
			path:       "/health",
			statusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testMetrics.HTTPRequests.Reset()

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			Metrics(testMetrics)(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			normalized := normalizePath(tc.path)
			counter := testMetrics.HTTPRequests.WithLabelValues(tc.method, normalized, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestMetricsMiddlewareNilIsPassThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"account deposits", "/api/v1/accounts/ABC123/deposits", "/api/v1/accounts/:id/deposits"},
		{"own account", "/api/v1/accounts/me/entries", "/api/v1/accounts/me/entries"},
		{"transfer path", "/api/v1/transfers/XYZ789", "/api/v1/transfers/:id"},
		{"card action", "/api/v1/cards/C1/limits", "/api/v1/cards/:id/limits"},
		{"verification decision", "/api/v1/verification/u-42", "/api/v1/verification/:id"},
		{"verification submit", "/api/v1/verification/submit", "/api/v1/verification/submit"},
		{"collection", "/api/v1/transfers", "/api/v1/transfers"},
		{"non-matching path", "/api/v1/ledger/consistency", "/api/v1/ledger/consistency"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
