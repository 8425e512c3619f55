// Package metrics provides the orchestrator's internal Prometheus metrics.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds every Prometheus metric the orchestrator exports.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Pipeline stage metrics
	stageDuration    *prometheus.HistogramVec
	modelRequests    *prometheus.CounterVec
	modelLatency     *prometheus.HistogramVec
	promptTokens     *prometheus.HistogramVec
	pipelineOutcomes *prometheus.CounterVec

	// Readiness / health metrics
	readinessDenials *prometheus.CounterVec
	providerHealth   *prometheus.GaugeVec

	// Progress bus metrics
	progressEventsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers every metric under namespace and returns a bound
// Collector.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of one pipeline stage (initial, meta, ultra)",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	c.modelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of per-model vendor calls, by outcome status",
		},
		[]string{"provider", "model", "status"},
	)

	c.modelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Vendor call latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.promptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prompt_tokens_estimate",
			Help:      "Best-effort prompt token count per vendor call, for observability only",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 12),
		},
		[]string{"provider", "model"},
	)

	c.pipelineOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Total number of analyze() runs by terminal status",
		},
		[]string{"status", "error_code"},
	)

	c.readinessDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_denials_total",
			Help:      "Total number of models excluded from a run by the readiness gate",
		},
		[]string{"model", "reason"},
	)

	c.providerHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_health",
			Help:      "Current provider health classification (1=healthy, 0.5=degraded, 0=unavailable)",
		},
		[]string{"provider"},
	)

	c.progressEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "progress_events_total",
			Help:      "Total number of progress events published, by type",
		},
		[]string{"type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records one completed HTTP request/response cycle.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordStageDuration records how long one pipeline stage took to settle.
func (c *Collector) RecordStageDuration(stage string, duration time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordModelRequest records the outcome of a single vendor call.
func (c *Collector) RecordModelRequest(provider, model, status string, duration time.Duration, promptTokensEstimate int) {
	c.modelRequests.WithLabelValues(provider, model, status).Inc()
	c.modelLatency.WithLabelValues(provider, model).Observe(duration.Seconds())
	if promptTokensEstimate > 0 {
		c.promptTokens.WithLabelValues(provider, model).Observe(float64(promptTokensEstimate))
	}
}

// RecordPipelineOutcome records one analyze() run's terminal status.
func (c *Collector) RecordPipelineOutcome(status, errorCode string) {
	c.pipelineOutcomes.WithLabelValues(status, errorCode).Inc()
}

// RecordReadinessDenial records one model excluded from a run by the
// readiness gate.
func (c *Collector) RecordReadinessDenial(model, reason string) {
	c.readinessDenials.WithLabelValues(model, reason).Inc()
}

// SetProviderHealth records the current classification for provider.
func (c *Collector) SetProviderHealth(provider string, value float64) {
	c.providerHealth.WithLabelValues(provider).Set(value)
}

// RecordProgressEvent records one event published to the progress bus.
func (c *Collector) RecordProgressEvent(eventType string) {
	c.progressEventsTotal.WithLabelValues(eventType).Inc()
}

// statusCode buckets an HTTP status into its class, to keep label
// cardinality bounded.
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
