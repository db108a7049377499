// Package observability provides structured logging, Prometheus metrics,
// health checks, tracing setup and graceful shutdown for the govdesk
// services.
package observability
