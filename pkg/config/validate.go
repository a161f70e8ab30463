package config

import (
	"fmt"

	"mercator-hq/ganymede/pkg/providers"
)

// Validate checks the configuration for errors. It is run after defaults
// and environment overrides have been applied.
func Validate(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}

	seen := make(map[string]struct{}, len(cfg.Providers))
	for i, entry := range cfg.Providers {
		if err := validateProvider(entry); err != nil {
			return fmt.Errorf("provider %d (%q): %w", i, entry.ID, err)
		}
		if _, dup := seen[entry.ID]; dup {
			return fmt.Errorf("duplicate provider id %q", entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}

	if _, ok := seen[cfg.ActiveProvider]; !ok {
		return fmt.Errorf("active_provider %q is not a configured provider", cfg.ActiveProvider)
	}

	if err := cfg.Availability.Validate(); err != nil {
		return fmt.Errorf("availability: %w", err)
	}

	if cfg.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry: base_delay must be positive, got %s", cfg.Retry.BaseDelay)
	}
	if cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		return fmt.Errorf("retry: max_delay %s must not be below base_delay %s", cfg.Retry.MaxDelay, cfg.Retry.BaseDelay)
	}
	if cfg.Retry.Jitter < 0 || cfg.Retry.Jitter > 1 {
		return fmt.Errorf("retry: jitter must be in [0, 1], got %g", cfg.Retry.Jitter)
	}

	switch cfg.Catalog.Backend {
	case "memory":
	case "sqlite":
		if cfg.Catalog.Path == "" {
			return fmt.Errorf("catalog: sqlite backend requires a path")
		}
	default:
		return fmt.Errorf("catalog: unknown backend %q (expected memory or sqlite)", cfg.Catalog.Backend)
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry: unknown log level %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry: unknown log format %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}

func validateProvider(entry ProviderEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("id cannot be empty")
	}

	switch entry.Type {
	case providers.TypeOllama, providers.TypeOpenAICompat:
		if entry.BaseURL == "" {
			return fmt.Errorf("base_url is required for type %q", entry.Type)
		}
	case providers.TypeCLI:
		if entry.Command == "" {
			return fmt.Errorf("command is required for type %q", entry.Type)
		}
	default:
		return fmt.Errorf("unknown type %q", entry.Type)
	}

	if entry.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", entry.Timeout)
	}
	if entry.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", entry.MaxRetries)
	}
	if entry.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", entry.ProbeTimeout)
	}

	return nil
}
