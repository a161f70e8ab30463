package config

import (
	"time"

	"mercator-hq/ganymede/pkg/availability"
	"mercator-hq/ganymede/pkg/providers"
)

// ApplyDefaults fills in zero-valued fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.ActiveProvider == "" && len(cfg.Providers) > 0 {
		cfg.ActiveProvider = cfg.Providers[0].ID
	}

	for i := range cfg.Providers {
		applyProviderDefaults(&cfg.Providers[i])
	}

	if cfg.Availability == (availability.Policy{}) {
		cfg.Availability = availability.DefaultPolicy()
	}

	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 500 * time.Millisecond
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Retry.Jitter == 0 {
		cfg.Retry.Jitter = 0.2
	}

	if cfg.Catalog.Backend == "" {
		cfg.Catalog.Backend = "memory"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = "localhost:9464"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
}

func applyProviderDefaults(entry *ProviderEntry) {
	if entry.DisplayName == "" {
		entry.DisplayName = entry.ID
	}
	if entry.Type == providers.TypeOllama && entry.BaseURL == "" {
		entry.BaseURL = "http://localhost:11434"
	}
	if entry.Timeout == 0 {
		entry.Timeout = providers.DefaultTimeout
	}
	if entry.MaxRetries == 0 {
		entry.MaxRetries = 3
	}
	if entry.ProbeTimeout == 0 {
		entry.ProbeTimeout = providers.DefaultProbeTimeout
	}
}
