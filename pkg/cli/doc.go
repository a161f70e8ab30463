// Package cli provides shared helpers for the ganymede command line tool:
// output formatting, signal-aware contexts, command error types and the
// waiting spinner.
package cli
