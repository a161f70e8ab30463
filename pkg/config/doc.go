// Package config loads, validates, and watches the YAML configuration.
//
// Configuration is loaded in a fixed sequence: read the YAML file, apply
// defaults, apply GANYMEDE_* environment overrides, then validate the
// final result. Environment variables always win over file values.
//
// Providers are configured as an ordered list; the order determines
// fallback selection in the registry. A FileWatcher can watch the config
// file and trigger a reload callback with debouncing, so rapid editor
// saves collapse into a single reload.
package config
