package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"signcam/internal/logger"
	"signcam/internal/metrics"
)

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestMiddleware logs every request and records its status and duration. Requests are labelled
// by the matched route pattern so unknown paths do not grow the metric set.
func RequestMiddleware(logger *logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(route, r.Method, rec.status, elapsed)

			if rec.status >= http.StatusInternalServerError {
				logger.Error("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			} else if rec.status >= http.StatusBadRequest {
				logger.Warning("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			} else {
				logger.Info("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			}
		})
	}
}
