// Package ollama implements the provider adapter for a local Ollama server.
//
// The adapter speaks Ollama's native HTTP API:
//
//   - POST /api/chat for chat, returning a single JSON body for unary
//     calls and newline-delimited JSON records when streaming
//   - GET /api/tags for model enumeration
//   - GET /api/ps for currently-loaded models
//
// The availability probe is a short-timeout GET against /api/tags.
//
// Streaming reads raw NDJSON, buffering incomplete trailing lines across
// reads and skipping malformed lines without aborting the session. If the
// transport closes without an explicit done record, the adapter synthesizes
// the terminal chunk so callers always observe exactly one.
package ollama
