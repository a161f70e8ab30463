package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/ganymede/pkg/providers"
)

// DefaultBaseURL is the standard local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// Provider is the Ollama provider adapter.
// It implements the providers.Provider interface against Ollama's native API.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Ollama provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.ID == "" {
		return nil, &providers.ConfigError{
			Provider: "ollama",
			Field:    "id",
			Message:  "provider id is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Type == "" {
		config.Type = providers.TypeOllama
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	p.Logger().Info("Ollama provider initialized",
		"base_url", config.BaseURL,
		"default_model", config.DefaultModel,
	)

	return p, nil
}

// Chat sends a chat completion request and returns the full response.
func (p *Provider) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	model := p.resolveModel(ctx, req.Model)
	wireReq := buildChatRequest(req, model, false)

	var wireResp chatResponse
	if err := p.DoJSON(ctx, http.MethodPost, p.URL("/api/chat"), wireReq, &wireResp, nil); err != nil {
		return nil, err
	}

	resp := toChatResponse(&wireResp)

	p.Logger().Debug("chat request succeeded",
		"model", resp.Model,
		"content_len", len(resp.Content),
	)

	return resp, nil
}

// ChatStream establishes a streaming chat session and returns the pull
// reader over its NDJSON records. Establishment shares the unary retry and
// model-resolution path; once the stream is open, failures surface from
// Read without retry.
func (p *Provider) ChatStream(ctx context.Context, req *providers.ChatRequest) (providers.StreamReader, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	model := p.resolveModel(ctx, req.Model)
	body, err := json.Marshal(buildChatRequest(req, model, true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.OpenStream(ctx, http.MethodPost, p.URL("/api/chat"), body, nil)
	if err != nil {
		return nil, err
	}

	return newStreamReader(p.Name(), model, resp.Body, p.Logger()), nil
}

// IsAvailable probes the model enumeration endpoint. 2xx means reachable;
// anything else, including timeout, degrades to false.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.Probe(ctx, p.URL("/api/tags"))
}

// resolveModel applies the model override/default and falls back to the
// first enumerated model when the requested one is not present.
func (p *Provider) resolveModel(ctx context.Context, override string) string {
	requested := override
	if requested == "" {
		requested = p.Config().DefaultModel
	}
	return providers.ResolveModel(ctx, p.Name(), requested, p.ListModels)
}
