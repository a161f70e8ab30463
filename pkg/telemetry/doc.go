// Package telemetry provides observability for Ganymede.
//
// # Components
//
//   - logging: Structured logging with secret redaction
//   - metrics: Prometheus metrics collection
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "text"})
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	reg := metrics.NewProviderMetrics(prometheus.DefaultRegisterer)
//	reg.RecordChat("ollama-local", "llama3.1:8b", "success", time.Second)
//
// Secrets never reach log output: API keys and bearer tokens are redacted
// by the logging handler before writing.
package telemetry
