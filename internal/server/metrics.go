package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/codescan/internal/search"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codescan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Decode metrics
	decodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_decode_requests_total",
			Help: "Total number of decode requests by source and result",
		},
		[]string{"source", "result"}, // result: found, not_found, error
	)

	decodeAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codescan_decode_attempts",
			Help:    "Decoder invocations per search",
			Buckets: []float64{1, 2, 5, 9, 18, 27, 36},
		},
		[]string{"result"},
	)

	winningTransform = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_winning_transform_total",
			Help: "Searches won per transform and angle",
		},
		[]string{"transform", "angle"},
	)

	attemptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codescan_attempt_duration_seconds",
			Help:    "Duration of a single transform and decode attempt",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	attemptErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_attempt_errors_total",
			Help: "Attempts skipped because the transform failed",
		},
		[]string{"transform"},
	)

	backendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_backend_failures_total",
			Help: "Decoder errors and panics per backend",
		},
		[]string{"backend"},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codescan_upload_size_bytes",
			Help:    "Size of request bodies in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codescan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codescan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"},
	)
)

// observeAttempt is registered as the pipeline's search observer.
func observeAttempt(ev search.Event) {
	attemptDuration.Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		attemptErrors.WithLabelValues(ev.Attempt.Transform).Inc()
	}
}

// recordBackendFailure is registered as the pipeline's backend failure hook.
func recordBackendFailure(backend string, _ error) {
	backendFailures.WithLabelValues(backend).Inc()
}

// recordOutcome counts a finished search.
func recordOutcome(source string, out search.Outcome) {
	result := "not_found"
	switch {
	case out.Err != nil:
		result = "error"
	case out.Found:
		result = "found"
		winningTransform.WithLabelValues(out.Attempt.Transform, strconv.Itoa(out.Attempt.Angle)).Inc()
	}
	decodeRequestsTotal.WithLabelValues(source, result).Inc()
	decodeAttempts.WithLabelValues(result).Observe(float64(out.Attempts))
}

func recordRejected(source string) {
	decodeRequestsTotal.WithLabelValues(source, "error").Inc()
}

func secondsToDuration(sec int) time.Duration { return time.Duration(sec) * time.Second }
