package ollama

import (
	"context"
	"net/http"

	"mercator-hq/ganymede/pkg/providers"
)

// ListModels enumerates backend-known model names.
// Enumeration is advisory: any failure degrades to an empty slice.
func (p *Provider) ListModels(ctx context.Context) []string {
	var wire tagsResponse
	if err := p.DoJSON(ctx, http.MethodGet, p.URL("/api/tags"), nil, &wire, nil); err != nil {
		p.Logger().Debug("model enumeration failed", "error", err)
		return nil
	}

	names := make([]string, 0, len(wire.Models))
	for _, m := range wire.Models {
		names = append(names, m.Name)
	}
	return names
}

// ListModelsWithDetails enumerates backend-known models with metadata and
// merges the currently-loaded set in by name match.
func (p *Provider) ListModelsWithDetails(ctx context.Context) []providers.ModelInfo {
	var wire tagsResponse
	if err := p.DoJSON(ctx, http.MethodGet, p.URL("/api/tags"), nil, &wire, nil); err != nil {
		p.Logger().Debug("model enumeration failed", "error", err)
		return nil
	}

	running := make(map[string]bool)
	for _, m := range p.ListRunningModels(ctx) {
		running[m.Name] = true
	}

	models := make([]providers.ModelInfo, 0, len(wire.Models))
	for _, m := range wire.Models {
		info := toModelInfo(m)
		info.IsRunning = running[info.Name]
		models = append(models, info)
	}
	return models
}

// ListRunningModels enumerates currently-loaded models via /api/ps.
func (p *Provider) ListRunningModels(ctx context.Context) []providers.ModelInfo {
	var wire psResponse
	if err := p.DoJSON(ctx, http.MethodGet, p.URL("/api/ps"), nil, &wire, nil); err != nil {
		p.Logger().Debug("running model enumeration failed", "error", err)
		return nil
	}

	models := make([]providers.ModelInfo, 0, len(wire.Models))
	for _, m := range wire.Models {
		models = append(models, providers.ModelInfo{
			Name:      m.Name,
			Size:      m.Size,
			Digest:    m.Digest,
			IsRunning: true,
		})
	}
	return models
}
