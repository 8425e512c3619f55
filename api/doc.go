// Package api defines the wire types for the UltrAI orchestrator's HTTP API.
//
// # API Overview
//
// The orchestrator exposes:
//   - POST /api/orchestrator/analyze   — run the three-stage pipeline synchronously
//   - GET  /api/orchestrator/stream    — subscribe to progress events for a run (SSE)
//   - GET  /api/orchestrator/models    — list every registered model_id
//   - GET  /api/orchestrator/readiness — report per-model availability
//   - GET  /healthz, /metrics          — operational endpoints
//
// # Authentication
//
// Caller identity is opportunistically extracted from an unverified bearer
// token for logging and correlation; the orchestrator does not itself
// authenticate callers (see cmd/ultrai/middleware.go for the upstream gateway
// contract this assumes).
//
// # Base URL
//
// The default base URL is:
//
//	http://localhost:8080
package api
