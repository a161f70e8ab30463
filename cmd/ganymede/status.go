package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/availability"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/modelcatalog"
	"mercator-hq/ganymede/pkg/providerfactory"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

var statusFlags struct {
	watch       bool
	metricsAddr string
	format      string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider availability",
	Long: `Show the availability of every configured provider.

Without flags, each provider is probed once and the result printed. With
--watch, providers are polled continuously under the configured availability
policy and state changes are printed as they happen; advisory and exhaustion
events from the polling backoff are included.

Examples:
  # One-shot availability check
  ganymede status

  # Poll continuously until interrupted
  ganymede status --watch

  # Poll and expose Prometheus metrics
  ganymede status --watch --metrics-addr localhost:9464`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusFlags.watch, "watch", false, "poll continuously until interrupted")
	statusCmd.Flags().StringVar(&statusFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while watching")
	statusCmd.Flags().StringVar(&statusFlags.format, "format", "text", "output format: text, json")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	var collector *metrics.Collector
	var pm *metrics.ProviderMetrics
	if statusFlags.metricsAddr != "" {
		collector = metrics.NewCollector()
		pm = collector.Provider()
	}

	reg, err := providerfactory.BuildRegistry(cfg, logger, pm)
	if err != nil {
		return cli.NewCommandError("status", err)
	}
	defer reg.Close()

	ctx := cli.SetupSignalHandler()

	if !statusFlags.watch {
		return printStatus(ctx, reg)
	}
	return watchStatus(ctx, cfg, reg, collector, logger)
}

// printStatus probes every provider once.
func printStatus(ctx context.Context, reg *registry.Registry) error {
	type entry struct {
		Provider  string `json:"provider"`
		Active    bool   `json:"active"`
		Available bool   `json:"available"`
	}

	ids := reg.List()
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		provider, err := reg.Get(id)
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			Provider:  id,
			Active:    id == reg.ActiveID(),
			Available: provider.IsAvailable(ctx),
		})
	}

	if statusFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, entries)
	}

	table := cli.NewTable(os.Stdout, "PROVIDER", "ACTIVE", "AVAILABLE")
	for _, e := range entries {
		table.Row(e.Provider, formatBool(e.Active), formatBool(e.Available))
	}
	return table.Flush()
}

// watchStatus polls all providers until the context is canceled, printing
// poller events as they arrive.
func watchStatus(ctx context.Context, cfg *config.Config, reg *registry.Registry, collector *metrics.Collector, logger *slog.Logger) error {
	catalog, err := openCatalog(cfg, logger)
	if err != nil {
		return cli.NewCommandError("status", err)
	}
	defer catalog.Close()

	poller, err := availability.NewPoller(cfg.Availability,
		availability.WithLogger(logger),
		availability.WithModelRefresh(func(ctx context.Context, p providers.Provider) {
			if err := catalog.Refresh(ctx, p); err != nil {
				logger.Warn("model refresh on recovery failed", "provider", p.Name(), "error", err)
			}
		}),
	)
	if err != nil {
		return cli.NewCommandError("status", err)
	}
	defer poller.Close()

	for _, id := range reg.List() {
		provider, err := reg.Get(id)
		if err != nil {
			continue
		}
		if err := poller.Watch(provider); err != nil {
			return cli.NewCommandError("status", err)
		}
	}

	// Scheduled catalog refresh keeps the cache warm during long watches.
	if cfg.Catalog.RefreshSchedule != "" {
		scheduler := modelcatalog.NewScheduler(catalog, registryProviders(reg), cfg.Catalog.RefreshSchedule)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("status", err)
		}
		defer scheduler.Stop()
	}

	if collector != nil {
		serveMetrics(ctx, collector)
	}

	// Config edits during a watch take effect on restart; note them so the
	// operator is not misled by stale settings.
	if watcher, err := config.NewFileWatcher(cfgFile, logger); err == nil {
		go watcher.Watch(ctx, func() error {
			fmt.Fprintln(os.Stderr, "configuration changed on disk; restart to apply")
			return nil
		})
		defer watcher.Stop()
	}

	fmt.Println("watching provider availability (ctrl-c to stop)")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-poller.Events():
			printEvent(event)
		}
	}
}

// registryProviders adapts the registry to the scheduler's provider source.
func registryProviders(reg *registry.Registry) modelcatalog.Source {
	return func() []providers.Provider {
		ids := reg.List()
		list := make([]providers.Provider, 0, len(ids))
		for _, id := range ids {
			if p, err := reg.Get(id); err == nil {
				list = append(list, p)
			}
		}
		return list
	}
}

func printEvent(e availability.Event) {
	stamp := e.Timestamp.Format(time.TimeOnly)

	switch e.Type {
	case availability.EventAvailabilityChanged:
		state := "unavailable"
		if e.Available {
			state = "available"
		}
		fmt.Printf("%s  %-20s %s\n", stamp, e.ProviderID, state)

	case availability.EventAdvisory:
		fmt.Printf("%s  %-20s advisory: %s\n", stamp, e.ProviderID, e.Message)

	case availability.EventExhausted:
		fmt.Printf("%s  %-20s polling exhausted after %d attempts\n", stamp, e.ProviderID, e.AttemptCount)
	}
}

// serveMetrics exposes the Prometheus handler until ctx is canceled.
func serveMetrics(ctx context.Context, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	server := &http.Server{Addr: statusFlags.metricsAddr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server failed: %v\n", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
}
