package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kittycore/internal/core"
)

var (
	registerOnce sync.Once

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kittycore",
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Registry entry point calls by outcome.",
		},
		[]string{"operation", "success"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kittycore",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Registry entry point latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kittycore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kittycore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers the collectors with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operations, operationDuration, httpRequests, httpDuration)
	})
}

// PrometheusRecorder implements core.MetricsRecorder on the default registry.
type PrometheusRecorder struct{}

var _ core.MetricsRecorder = PrometheusRecorder{}

// NewPrometheusRecorder registers the collectors and returns a recorder.
func NewPrometheusRecorder() PrometheusRecorder {
	RegisterMetrics()
	return PrometheusRecorder{}
}

// Observe records one service operation.
func (PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	operations.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
