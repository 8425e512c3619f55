// Package metrics provides Prometheus instrumentation for the orchestrator,
// covering HTTP, pipeline stage, vendor model, readiness, and progress-bus
// activity.
//
// # Overview
//
// Collector registers every metric once via promauto at construction, so
// callers never manage a Registry directly. All metrics share one
// namespace and are grouped by label for dashboarding and alerting.
//
// # Core types
//
//   - Collector — holds the Counter/Histogram/Gauge vectors, grouped by
//     concern (HTTP, pipeline stage, model, readiness, progress events).
//
// # Metric groups
//
//   - HTTP: request count, duration, request/response size, grouped by
//     method/path/status (status bucketed to 2xx/3xx/4xx/5xx).
//   - Pipeline: stage duration histogram, per-model request count and
//     latency, a best-effort prompt token estimate histogram, and the
//     overall pipeline outcome counter.
//   - Readiness: a counter of model exclusions by reason, and a gauge
//     tracking each provider's current health classification.
//   - Progress: a counter of events published to the progress bus, by type.
package metrics
