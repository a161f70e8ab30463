package config

import (
	"time"

	"mercator-hq/ganymede/pkg/availability"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/retry"
)

// Config is the root configuration structure.
type Config struct {
	// ActiveProvider is the id of the initially selected provider.
	// Defaults to the first configured provider.
	ActiveProvider string `yaml:"active_provider"`

	// Providers is the ordered list of backend configurations. Order
	// matters: it is the registration order, and therefore the fallback
	// order.
	Providers []ProviderEntry `yaml:"providers"`

	// Availability holds the polling policy.
	Availability availability.Policy `yaml:"availability"`

	// Retry holds the retry executor settings applied to chat calls.
	Retry RetryConfig `yaml:"retry"`

	// Catalog configures the model catalog store.
	Catalog CatalogConfig `yaml:"catalog"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProviderEntry configures one backend adapter.
type ProviderEntry struct {
	// ID uniquely identifies the provider.
	ID string `yaml:"id"`

	// DisplayName is a human-readable label. Defaults to ID.
	DisplayName string `yaml:"display_name"`

	// Type selects the adapter: "ollama", "openai-compat", or "cli".
	Type string `yaml:"type"`

	// BaseURL is the backend endpoint for HTTP adapters.
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token for backends that need one.
	APIKey string `yaml:"api_key"`

	// DefaultModel is used when a request does not name a model.
	DefaultModel string `yaml:"default_model"`

	// Timeout bounds one non-streaming call, or stream establishment.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the retry budget for chat calls.
	MaxRetries int `yaml:"max_retries"`

	// ProbeTimeout bounds one availability probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// Command and Args configure the "cli" adapter.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ToProviderConfig converts an entry to the adapter configuration.
func (e ProviderEntry) ToProviderConfig() providers.ProviderConfig {
	return providers.ProviderConfig{
		ID:           e.ID,
		DisplayName:  e.DisplayName,
		Type:         e.Type,
		BaseURL:      e.BaseURL,
		APIKey:       e.APIKey,
		DefaultModel: e.DefaultModel,
		Timeout:      e.Timeout,
		MaxRetries:   e.MaxRetries,
		ProbeTimeout: e.ProbeTimeout,
		Command:      e.Command,
		Args:         e.Args,
	}
}

// RetryConfig configures the retry executor.
type RetryConfig struct {
	// BaseDelay is the first backoff delay.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Jitter is the random fraction applied to each delay, in [0, 1].
	Jitter float64 `yaml:"jitter"`
}

// ToOptions converts the config to retry executor options for a given
// retry budget.
func (r RetryConfig) ToOptions(maxRetries int) retry.Options {
	return retry.Options{
		MaxRetries: maxRetries,
		BaseDelay:  r.BaseDelay,
		MaxDelay:   r.MaxDelay,
		Jitter:     r.Jitter,
	}
}

// CatalogConfig configures the model catalog store.
type CatalogConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file, required for the sqlite backend.
	Path string `yaml:"path"`

	// RefreshSchedule is a cron expression for scheduled refreshes.
	// Empty disables scheduled refreshing.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics HTTP listen address.
	ListenAddress string `yaml:"listen_address"`

	// Path is the scrape path.
	Path string `yaml:"path"`
}
