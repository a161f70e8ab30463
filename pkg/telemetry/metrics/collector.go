package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the metrics registry and the per-concern metric groups.
type Collector struct {
	registry *prometheus.Registry
	provider *ProviderMetrics
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		provider: NewProviderMetrics(registry),
	}
}

// Provider returns the provider metrics group.
func (c *Collector) Provider() *ProviderMetrics {
	return c.provider
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
