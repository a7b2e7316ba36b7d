package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"signcam/internal/logger"
	"signcam/internal/metrics"
)

func TestRequestMiddleware(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	})
	h := RequestMiddleware(logger.NewConsole(&logs), m)(mux)

	tests := []struct {
		path  string
		code  int
		level string
	}{
		{"/ok", http.StatusOK, "INFO"},
		{"/broken", http.StatusInternalServerError, "ERROR"},
		{"/missing", http.StatusNotFound, "WARNING"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			logs.Reset()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rec.Code)
			}
			if !strings.HasPrefix(logs.String(), tt.level) || !strings.Contains(logs.String(), tt.path) {
				t.Errorf("Expected %s log for %s, got %q", tt.level, tt.path, logs.String())
			}
		})
	}

	expected := `
# HELP signcam_http_requests_total Total number of HTTP requests
# TYPE signcam_http_requests_total counter
signcam_http_requests_total{method="GET",path="/broken",status="500"} 1
signcam_http_requests_total{method="GET",path="/ok",status="200"} 1
signcam_http_requests_total{method="GET",path="unmatched",status="404"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "signcam_http_requests_total"); err != nil {
		t.Error(err)
	}
}
