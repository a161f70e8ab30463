// Package logging configures structured logging on top of log/slog.
//
// New builds an *slog.Logger from a small Config (level, format, writer).
// All string attribute values pass through a redactor that masks API keys
// and bearer tokens before they reach the output, so a provider
// configuration can be logged without leaking credentials.
package logging
