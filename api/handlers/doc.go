// Package handlers implements the orchestrator's HTTP request handlers.
//
// # Core types
//
//   - AnalyzeHandler    — runs the pipeline and answers POST /api/orchestrator/analyze
//   - StreamHandler     — subscribes a caller to progress.Bus events (SSE and WebSocket)
//   - ModelsHandler     — answers GET /api/orchestrator/models from the Registry
//   - ReadinessHandler  — answers GET /api/orchestrator/readiness from the readiness gate
//   - HealthHandler     — liveness/readiness probes (/health, /healthz, /ready)
//   - Response          — the envelope every handler writes (success, data, error, timestamp)
//   - ErrorInfo         — structured error detail (code, message, retryable)
package handlers
