package providerfactory

import (
	"io"
	"log/slog"
	"testing"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewProviderOllama(t *testing.T) {
	p, err := NewProvider(providers.ProviderConfig{
		ID:   "ollama-local",
		Type: providers.TypeOllama,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.Name() != "ollama-local" {
		t.Errorf("unexpected name: %s", p.Name())
	}
}

func TestNewProviderOpenAICompat(t *testing.T) {
	p, err := NewProvider(providers.ProviderConfig{
		ID:      "lmstudio",
		Type:    providers.TypeOpenAICompat,
		BaseURL: "http://localhost:1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
}

func TestNewProviderCLI(t *testing.T) {
	p, err := NewProvider(providers.ProviderConfig{
		ID:      "external-tool",
		Type:    providers.TypeCLI,
		Command: "cat",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
}

func TestNewProviderUnsupportedType(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{
		ID:   "mystery",
		Type: "carrier-pigeon",
	})
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestNewProviderInfersType(t *testing.T) {
	p, err := NewProvider(providers.ProviderConfig{ID: "ollama-local"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.Config().Type != providers.TypeOllama {
		t.Errorf("expected inferred ollama type, got %q", p.Config().Type)
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg := &config.Config{
		ActiveProvider: "lmstudio",
		Providers: []config.ProviderEntry{
			{ID: "ollama-local", Type: providers.TypeOllama, BaseURL: "http://localhost:11434"},
			{ID: "lmstudio", Type: providers.TypeOpenAICompat, BaseURL: "http://localhost:1234"},
		},
	}

	reg, err := BuildRegistry(cfg, discardLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reg.Close()

	if reg.Len() != 2 {
		t.Errorf("expected 2 providers, got %d", reg.Len())
	}

	ids := reg.List()
	if ids[0] != "ollama-local" || ids[1] != "lmstudio" {
		t.Errorf("registration order not preserved: %v", ids)
	}

	if reg.ActiveID() != "lmstudio" {
		t.Errorf("expected lmstudio active, got %q", reg.ActiveID())
	}
}

func TestBuildRegistryInstrumented(t *testing.T) {
	collector := metrics.NewCollector()

	cfg := &config.Config{
		Providers: []config.ProviderEntry{
			{ID: "ollama-local", Type: providers.TypeOllama, BaseURL: "http://localhost:11434"},
		},
	}

	reg, err := BuildRegistry(cfg, discardLogger(), collector.Provider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reg.Close()

	p, err := reg.Get("ollama-local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*metrics.InstrumentedProvider); !ok {
		t.Errorf("expected instrumented provider, got %T", p)
	}
}

func TestBuildRegistryConstructionFailure(t *testing.T) {
	cfg := &config.Config{
		Providers: []config.ProviderEntry{
			{ID: "ollama-local", Type: providers.TypeOllama, BaseURL: "http://localhost:11434"},
			{ID: "broken", Type: providers.TypeCLI},
		},
	}

	if _, err := BuildRegistry(cfg, discardLogger(), nil); err == nil {
		t.Fatal("expected error for provider missing its command")
	}
}

func TestBuildRegistryUnknownActive(t *testing.T) {
	cfg := &config.Config{
		ActiveProvider: "nope",
		Providers: []config.ProviderEntry{
			{ID: "ollama-local", Type: providers.TypeOllama, BaseURL: "http://localhost:11434"},
		},
	}

	if _, err := BuildRegistry(cfg, discardLogger(), nil); err == nil {
		t.Fatal("expected error for unknown active provider")
	}
}
