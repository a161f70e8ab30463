package modelcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// Catalog refreshes and serves cached model enumerations.
type Catalog struct {
	store  Store
	logger *slog.Logger
}

// NewCatalog creates a catalog backed by the given store.
func NewCatalog(store Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		store:  store,
		logger: logger.With("component", "modelcatalog"),
	}
}

// Refresh enumerates a provider's models and stores the result. An empty
// enumeration keeps the previous snapshot: enumeration degrades to empty
// on any backend failure, and a transient failure must not wipe a usable
// cache.
func (c *Catalog) Refresh(ctx context.Context, provider providers.Provider) error {
	id := provider.Name()

	models := provider.ListModelsWithDetails(ctx)
	if len(models) == 0 {
		c.logger.Debug("model enumeration empty, keeping previous snapshot", "provider", id)
		return nil
	}

	snapshot := &Snapshot{
		ProviderID:  id,
		Models:      models,
		RefreshedAt: time.Now(),
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store model snapshot for %q: %w", id, err)
	}

	c.logger.Info("model catalog refreshed",
		"provider", id,
		"models", len(models),
	)
	return nil
}

// Snapshot returns a provider's cached enumeration, or nil when nothing
// has been cached yet.
func (c *Catalog) Snapshot(ctx context.Context, providerID string) (*Snapshot, error) {
	return c.store.Load(ctx, providerID)
}

// Models returns a provider's cached model names, or an empty slice when
// nothing has been cached.
func (c *Catalog) Models(ctx context.Context, providerID string) []string {
	snapshot, err := c.store.Load(ctx, providerID)
	if err != nil {
		c.logger.Debug("failed to load model snapshot", "provider", providerID, "error", err)
		return nil
	}
	if snapshot == nil {
		return nil
	}
	return snapshot.Names()
}

// Forget drops a provider's snapshot, typically when the provider is
// removed from configuration.
func (c *Catalog) Forget(ctx context.Context, providerID string) error {
	return c.store.Delete(ctx, providerID)
}

// RefreshAll refreshes every given provider, continuing past individual
// failures.
func (c *Catalog) RefreshAll(ctx context.Context, list []providers.Provider) {
	for _, provider := range list {
		if ctx.Err() != nil {
			return
		}
		if err := c.Refresh(ctx, provider); err != nil {
			c.logger.Error("model catalog refresh failed",
				"provider", provider.Name(),
				"error", err,
			)
		}
	}
}

// Close closes the underlying store.
func (c *Catalog) Close() error {
	return c.store.Close()
}
