package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/ganymede/pkg/providers"
)

// Provider is the adapter for OpenAI-compatible chat completion APIs.
// It implements the providers.Provider interface.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new OpenAI-compatible provider instance.
// The API key is optional: local servers (LM Studio, vLLM) ignore it.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.ID == "" {
		return nil, &providers.ConfigError{
			Provider: "openai-compat",
			Field:    "id",
			Message:  "provider id is required",
		}
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.ID,
			Field:    "base_url",
			Message:  "base URL is required",
		}
	}
	if config.Type == "" {
		config.Type = providers.TypeOpenAICompat
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	p.Logger().Info("OpenAI-compatible provider initialized",
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
	if err := p.DoJSON(ctx, http.MethodPost, p.URL("/v1/chat/completions"), wireReq, &wireResp, nil); err != nil {
		return nil, err
	}

	resp, err := toChatResponse(p.Name(), &wireResp)
	if err != nil {
		return nil, err
	}

	p.Logger().Debug("chat request succeeded",
		"model", resp.Model,
		"content_len", len(resp.Content),
	)

	return resp, nil
}

// ChatStream establishes a streaming chat session over SSE.
func (p *Provider) ChatStream(ctx context.Context, req *providers.ChatRequest) (providers.StreamReader, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	model := p.resolveModel(ctx, req.Model)
	body, err := json.Marshal(buildChatRequest(req, model, true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{"Accept": "text/event-stream"}
	resp, err := p.OpenStream(ctx, http.MethodPost, p.URL("/v1/chat/completions"), body, headers)
	if err != nil {
		return nil, err
	}

	return newStreamReader(p.Name(), model, resp.Body, p.Logger()), nil
}

// IsAvailable probes the model enumeration endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.Probe(ctx, p.URL("/v1/models"))
}

// ListModels enumerates backend-known model names.
// Degrades to an empty slice on any failure.
func (p *Provider) ListModels(ctx context.Context) []string {
	var wire modelsResponse
	if err := p.DoJSON(ctx, http.MethodGet, p.URL("/v1/models"), nil, &wire, nil); err != nil {
		p.Logger().Debug("model enumeration failed", "error", err)
		return nil
	}

	names := make([]string, 0, len(wire.Data))
	for _, m := range wire.Data {
		names = append(names, m.ID)
	}
	return names
}

// ListModelsWithDetails enumerates backend-known models. The OpenAI models
// surface carries no size/digest metadata, so entries hold names only.
func (p *Provider) ListModelsWithDetails(ctx context.Context) []providers.ModelInfo {
	names := p.ListModels(ctx)
	models := make([]providers.ModelInfo, 0, len(names))
	for _, name := range names {
		models = append(models, providers.ModelInfo{Name: name})
	}
	return models
}

// ListRunningModels degrades to empty: OpenAI-compatible backends expose
// no currently-loaded-model query.
func (p *Provider) ListRunningModels(ctx context.Context) []providers.ModelInfo {
	return nil
}

func (p *Provider) resolveModel(ctx context.Context, override string) string {
	requested := override
	if requested == "" {
		requested = p.Config().DefaultModel
	}
	return providers.ResolveModel(ctx, p.Name(), requested, p.ListModels)
}
