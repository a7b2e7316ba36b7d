package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame results counted by FrameResult.
const (
	FrameSent    = "sent"
	FrameSkipped = "skipped"
	FrameApplied = "applied"
	FrameStale   = "stale"
	FrameFailed  = "failed"
)

// Metrics groups the collectors of the client. A nil *Metrics records nothing.
type Metrics struct {
	serviceRequests *prometheus.CounterVec
	serviceDuration *prometheus.HistogramVec
	frames          *prometheus.CounterVec
	liveSessions    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signcam_service_requests_total",
				Help: "Requests sent to the prediction service",
			}, []string{"endpoint", "outcome"},
		),
		serviceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signcam_service_request_duration_seconds",
				Help:    "Duration of prediction service requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"endpoint"},
		),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signcam_frames_total",
				Help: "Live mode frames by result",
			}, []string{"result"},
		),
		liveSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signcam_live_sessions_total",
				Help: "Finished live captures by stop reason",
			}, []string{"reason"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signcam_http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"path", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signcam_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"path"},
		),
	}

	reg.MustRegister(m.serviceRequests, m.serviceDuration, m.frames, m.liveSessions, m.httpRequests, m.httpDuration)
	return m
}

// ObserveServiceRequest records one call to the prediction service.
func (m *Metrics) ObserveServiceRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.serviceRequests.WithLabelValues(endpoint, outcome).Inc()
	m.serviceDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// FrameResult counts a live mode frame.
func (m *Metrics) FrameResult(result string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(result).Inc()
}

// LiveStopped counts a finished live capture.
func (m *Metrics) LiveStopped(reason string) {
	if m == nil {
		return
	}
	m.liveSessions.WithLabelValues(reason).Inc()
}

// ObserveHTTP records one request served by the web UI.
func (m *Metrics) ObserveHTTP(path, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path).Observe(d.Seconds())
}
