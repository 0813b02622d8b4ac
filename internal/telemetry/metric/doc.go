// Package metric provides Prometheus metrics for pgpauth.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: Custom collector sampling replay cache size on scrape
//
// Metrics include:
//
//   - Token issuance and verification counters by result
//   - Signing latency histogram
//   - HTTP request counters and latency histograms
//   - Replay cache size and storage statistics
//
// Metrics are exposed at /metrics in Prometheus format. Recording methods
// are safe on a nil *Registry, so components can run without metrics.
package metric
