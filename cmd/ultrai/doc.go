/*
Package main provides the orchestrator's executable entry point.

# Overview

cmd/ultrai is the orchestrator's server binary: it loads configuration,
wires the Registry, Provider adapters, Health Prober, Progress Bus, and
Pipeline Engine together, and serves the HTTP API and Prometheus metrics
on separate ports.

# Core types

  - Server     — owns the HTTP and metrics listeners and their graceful shutdown
  - Middleware — the HTTP middleware function signature func(http.Handler) http.Handler

# Capabilities

  - Subcommands: serve, version, health
  - Middleware chain (outermost first): Recovery, RequestID,
    SecurityHeaders, RequestLogger, MetricsMiddleware, OTelTracing,
    CallerIdentity (opportunistic JWT sub extraction for logging only, never
    an auth decision), CORS, RateLimiter (per remote IP)
  - Config hot reload: HotReloadManager watches the config file and keeps
    the reloaded Config; the middleware, Pipeline Engine and Registry keep
    the values they were built with at startup
  - Metrics server on a separate port exposing /metrics
  - Graceful shutdown: signal -> stop hot reload -> stop health prober ->
    close HTTP -> close metrics -> wait
  - Build-time injection: Version, BuildTime, GitCommit via ldflags
*/
package main
