package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report whether the result is valid.

Examples:
  # Validate the default config.yaml
  ganymede validate

  # Validate a specific file
  ganymede validate --config /etc/ganymede/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Printf("%s is valid\n", cfgFile)
	fmt.Println()
	fmt.Printf("Providers:       %d\n", len(cfg.Providers))
	for _, p := range cfg.Providers {
		marker := " "
		if p.ID == cfg.ActiveProvider {
			marker = "*"
		}
		fmt.Printf("  %s %s (%s)\n", marker, p.ID, p.Type)
	}
	fmt.Printf("Catalog backend: %s\n", cfg.Catalog.Backend)
	if cfg.Catalog.RefreshSchedule != "" {
		fmt.Printf("Refresh:         %s\n", cfg.Catalog.RefreshSchedule)
	}
	fmt.Printf("Poll interval:   %s\n", cfg.Availability.BaseInterval)

	return nil
}
