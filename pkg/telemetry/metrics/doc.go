// Package metrics collects Prometheus metrics for provider connectivity.
//
// Metrics cover the full provider surface: chat request counts and
// latencies, streamed chunk counts, classified errors by kind,
// availability gauge updated by poller events, and probe counts. The
// Collector owns a private registry and exposes it over HTTP via Handler.
package metrics
