package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks provider connectivity and performance.
//
// Metrics:
//   - ganymede_provider_available: availability status (1=available, 0=unavailable)
//   - ganymede_provider_probes_total: availability probes by result
//   - ganymede_provider_requests_total: chat requests by provider/model/outcome
//   - ganymede_provider_latency_seconds: chat call latency
//   - ganymede_provider_errors_total: classified errors by kind
//   - ganymede_provider_stream_chunks_total: streamed chunks delivered
type ProviderMetrics struct {
	available    *prometheus.GaugeVec
	probes       *prometheus.CounterVec
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	streamChunks *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the
// given registry.
func NewProviderMetrics(registry prometheus.Registerer) *ProviderMetrics {
	pm := &ProviderMetrics{
		available: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ganymede",
				Name:      "provider_available",
				Help:      "Provider availability status (1=available, 0=unavailable)",
			},
			[]string{"provider"},
		),

		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ganymede",
				Name:      "provider_probes_total",
				Help:      "Total availability probes by result",
			},
			[]string{"provider", "result"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ganymede",
				Name:      "provider_requests_total",
				Help:      "Total chat requests by provider, model, and outcome",
			},
			[]string{"provider", "model", "outcome"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ganymede",
				Name:      "provider_latency_seconds",
				Help:      "Chat call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ganymede",
				Name:      "provider_errors_total",
				Help:      "Total classified errors by kind",
			},
			[]string{"provider", "kind"},
		),

		streamChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ganymede",
				Name:      "provider_stream_chunks_total",
				Help:      "Total streamed chunks delivered",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.available,
		pm.probes,
		pm.requests,
		pm.latency,
		pm.errors,
		pm.streamChunks,
	)

	return pm
}

// UpdateAvailability updates a provider's availability gauge.
func (pm *ProviderMetrics) UpdateAvailability(provider string, available bool) {
	value := 0.0
	if available {
		value = 1.0
	}
	pm.available.WithLabelValues(provider).Set(value)
}

// RecordProbe records one availability probe result.
func (pm *ProviderMetrics) RecordProbe(provider string, available bool) {
	result := "unavailable"
	if available {
		result = "available"
	}
	pm.probes.WithLabelValues(provider, result).Inc()
}

// RecordChat records one chat call with its outcome ("success" or
// "error") and latency.
func (pm *ProviderMetrics) RecordChat(provider, model, outcome string, latency time.Duration) {
	pm.requests.WithLabelValues(provider, model, outcome).Inc()
	pm.latency.WithLabelValues(provider, model).Observe(latency.Seconds())
}

// RecordError records a classified error by kind.
func (pm *ProviderMetrics) RecordError(provider, kind string) {
	pm.errors.WithLabelValues(provider, kind).Inc()
}

// RecordStreamChunk records one delivered stream chunk.
func (pm *ProviderMetrics) RecordStreamChunk(provider string) {
	pm.streamChunks.WithLabelValues(provider).Inc()
}
