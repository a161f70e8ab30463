package providers

import "context"

// Provider is the core interface every backend adapter implements.
// Semantics are identical across backends; the conversation orchestrator
// and the availability poller program against this contract only.
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return promptly when
// the context is cancelled.
type Provider interface {
	// Chat sends a chat completion request and returns the full response.
	// The effective model is resolved against a fresh best-effort model
	// enumeration; the request runs under the retry executor with the
	// adapter's per-call timeout composed with the caller's context.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatStream sends a streaming chat completion request and returns a
	// pull-based reader over the incremental response. Retry and timeout
	// apply to establishing the stream only; once open, a mid-stream
	// failure surfaces as an error from Read without retry.
	//
	// The returned reader is finite and non-restartable. The caller must
	// Close it on every exit path; Close releases the underlying
	// connection.
	ChatStream(ctx context.Context, req *ChatRequest) (StreamReader, error)

	// IsAvailable performs a fast reachability probe against a lightweight
	// backend endpoint. It is independently timed (ProbeTimeout) and never
	// fails: any error degrades to false.
	IsAvailable(ctx context.Context) bool

	// ListModels enumerates backend-known model names.
	// Degrades to an empty slice on any failure.
	ListModels(ctx context.Context) []string

	// ListModelsWithDetails enumerates backend-known models with metadata,
	// with the currently-loaded set merged in by name match.
	// Degrades to an empty slice on any failure.
	ListModelsWithDetails(ctx context.Context) []ModelInfo

	// ListRunningModels enumerates currently-loaded models.
	// Degrades to an empty slice on any failure.
	ListRunningModels(ctx context.Context) []ModelInfo

	// Name returns the provider's configured id.
	Name() string

	// Config returns the provider's immutable configuration.
	Config() ProviderConfig

	// Close releases adapter resources (idle connections, etc.).
	// After Close the provider must not be used.
	Close() error
}

// StreamReader is the pull-based iterator over a streaming chat session.
//
// Read blocks until the next chunk arrives, the stream ends, or ctx is
// cancelled. After the terminal chunk (Done=true) has been returned, Read
// reports io.EOF. Exactly one terminal chunk is observed per session, even
// when the raw transport closes without an explicit terminal record.
type StreamReader interface {
	// Read returns the next chunk.
	// Returns nil, io.EOF once the session is complete.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close releases the underlying connection. Safe to call more than
	// once, and safe to call while a Read is pending.
	Close() error
}
