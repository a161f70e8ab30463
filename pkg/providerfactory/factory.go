// Package providerfactory constructs provider adapters from configuration
// and assembles them into a registry.
package providerfactory

import (
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/providers/clitool"
	"mercator-hq/ganymede/pkg/providers/ollama"
	"mercator-hq/ganymede/pkg/providers/openaicompat"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// NewProvider creates a provider adapter from its configuration.
//
// Supported provider types:
//   - "ollama": Ollama's native API
//   - "openai-compat": OpenAI-compatible chat completion APIs
//     (LM Studio, vLLM, llama.cpp server, hosted OpenAI)
//   - "cli": external command line tools
//
// When config.Type is empty it is inferred from the provider id.
func NewProvider(config providers.ProviderConfig) (providers.Provider, error) {
	providerType := config.Type
	if providerType == "" {
		providerType = inferProviderType(config.ID)
		config.Type = providerType
	}

	slog.Debug("creating provider",
		"id", config.ID,
		"type", providerType,
		"base_url", config.BaseURL,
	)

	var provider providers.Provider
	var err error

	switch providerType {
	case providers.TypeOllama:
		provider, err = ollama.NewProvider(config)

	case providers.TypeOpenAICompat:
		provider, err = openaicompat.NewProvider(config)

	case providers.TypeCLI:
		provider, err = clitool.NewProvider(config)

	default:
		return nil, &providers.ConfigError{
			Provider: config.ID,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: ollama, openai-compat, cli)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", config.ID, err)
	}

	return provider, nil
}

// BuildRegistry constructs every configured provider in declaration order,
// registers them, and selects the configured active provider. When pm is
// non-nil each adapter is wrapped with metrics instrumentation. On any
// construction failure the partially-built registry is closed.
func BuildRegistry(cfg *config.Config, logger *slog.Logger, pm *metrics.ProviderMetrics) (*registry.Registry, error) {
	reg := registry.New(logger)

	for _, entry := range cfg.Providers {
		provider, err := NewProvider(entry.ToProviderConfig())
		if err != nil {
			reg.Close()
			return nil, err
		}

		if pm != nil {
			provider = metrics.Instrument(provider, pm)
		}

		if err := reg.Register(provider); err != nil {
			provider.Close()
			reg.Close()
			return nil, err
		}
	}

	if cfg.ActiveProvider != "" {
		if err := reg.SetActive(cfg.ActiveProvider); err != nil {
			reg.Close()
			return nil, err
		}
	}

	return reg, nil
}

// inferProviderType guesses the adapter from the provider id. Ollama is the
// common local default; anything else speaking HTTP is assumed to be
// OpenAI-compatible.
func inferProviderType(id string) string {
	switch {
	case strings.Contains(id, "ollama"):
		return providers.TypeOllama
	default:
		return providers.TypeOpenAICompat
	}
}
