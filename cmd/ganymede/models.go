package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/modelcatalog"
	"mercator-hq/ganymede/pkg/providerfactory"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/registry"
)

var modelsFlags struct {
	provider string
	details  bool
	running  bool
	format   string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List backend-known models",
	Long: `List the models known to the configured providers.

A reachable backend is enumerated live and the result is saved to the model
catalog. When a backend is down, the last cached enumeration is shown with
its age, so the model list stays usable across outages.

Examples:
  # All providers
  ganymede models

  # One provider, with metadata
  ganymede models --provider ollama-local --details

  # Currently loaded models only
  ganymede models --running`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelsFlags.provider, "provider", "", "provider id (defaults to all providers)")
	modelsCmd.Flags().BoolVar(&modelsFlags.details, "details", false, "include size and family metadata")
	modelsCmd.Flags().BoolVar(&modelsFlags.running, "running", false, "only currently loaded models")
	modelsCmd.Flags().StringVar(&modelsFlags.format, "format", "text", "output format: text, json")
}

// openCatalog creates the model catalog from configuration.
func openCatalog(cfg *config.Config, logger *slog.Logger) (*modelcatalog.Catalog, error) {
	var store modelcatalog.Store
	switch cfg.Catalog.Backend {
	case "sqlite":
		var err error
		store, err = modelcatalog.NewSQLiteStore(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open model catalog: %w", err)
		}
	default:
		store = modelcatalog.NewMemoryStore()
	}
	return modelcatalog.NewCatalog(store, logger), nil
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	reg, err := providerfactory.BuildRegistry(cfg, logger, nil)
	if err != nil {
		return cli.NewCommandError("models", err)
	}
	defer reg.Close()

	catalog, err := openCatalog(cfg, logger)
	if err != nil {
		return cli.NewCommandError("models", err)
	}
	defer catalog.Close()

	ids := reg.List()
	if modelsFlags.provider != "" {
		if !reg.Has(modelsFlags.provider) {
			return fmt.Errorf("unknown provider %q", modelsFlags.provider)
		}
		ids = []string{modelsFlags.provider}
	}

	ctx := cli.SetupSignalHandler()

	type listing struct {
		Provider string                `json:"provider"`
		Cached   bool                  `json:"cached"`
		CacheAge string                `json:"cache_age,omitempty"`
		Models   []providers.ModelInfo `json:"models"`
	}

	listings := make([]listing, 0, len(ids))
	for _, id := range ids {
		l := listing{Provider: id}
		l.Models, l.Cached, l.CacheAge = enumerateModels(ctx, reg, catalog, id)
		listings = append(listings, l)
	}

	if modelsFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, listings)
	}

	headers := []string{"PROVIDER", "MODEL", "SOURCE"}
	if modelsFlags.details {
		headers = append(headers, "SIZE", "FAMILY", "RUNNING")
	}
	table := cli.NewTable(os.Stdout, headers...)

	for _, l := range listings {
		source := "live"
		if l.Cached {
			source = fmt.Sprintf("cached (%s old)", l.CacheAge)
		}
		if len(l.Models) == 0 {
			table.Row(l.Provider, "(none)", source)
			continue
		}
		for _, m := range l.Models {
			row := []string{l.Provider, m.Name, source}
			if modelsFlags.details {
				row = append(row, formatSize(m.Size), m.Family, formatBool(m.IsRunning))
			}
			table.Row(row...)
		}
	}
	return table.Flush()
}

// enumerateModels lists a provider's models, preferring a live enumeration
// and falling back to the catalog cache when the backend is unreachable.
func enumerateModels(ctx context.Context, reg *registry.Registry, catalog *modelcatalog.Catalog, id string) (models []providers.ModelInfo, cached bool, age string) {
	provider, err := reg.Get(id)
	if err != nil {
		return nil, false, ""
	}

	if modelsFlags.running {
		return provider.ListRunningModels(ctx), false, ""
	}

	live := provider.ListModelsWithDetails(ctx)
	if len(live) > 0 {
		if err := catalog.Refresh(ctx, provider); err != nil {
			slog.Debug("catalog refresh failed", "provider", id, "error", err)
		}
		return live, false, ""
	}

	snapshot, err := catalog.Snapshot(ctx, id)
	if err != nil || snapshot == nil {
		return nil, false, ""
	}
	return snapshot.Models, true, snapshot.Age().Round(time.Second).String()
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes > 0:
		return fmt.Sprintf("%d B", bytes)
	default:
		return "-"
	}
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
