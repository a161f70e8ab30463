package providers

import "time"

// Message represents a single message in a conversation.
// Slice order is conversation order and is preserved on the wire.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request. Each counter is nil
// when the backend did not report it; a nil counter means "unknown", not
// zero. TotalTokens is derived by summation when both parts are present
// but no total was reported.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens *int `json:"prompt_tokens,omitempty"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens *int `json:"completion_tokens,omitempty"`

	// TotalTokens is the total number of tokens used
	TotalTokens *int `json:"total_tokens,omitempty"`
}

// IntPtr returns a pointer to v, for populating optional usage counters.
func IntPtr(v int) *int { return &v }

// ChatRequest represents a provider-agnostic chat completion request.
// Cancellation is carried by the context.Context passed alongside it.
type ChatRequest struct {
	// Model overrides the adapter's configured default model when set
	Model string `json:"model,omitempty"`

	// Messages is the conversation history, in conversation order
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0 means backend default)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the generated completion length (0 means backend default)
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stream indicates whether the caller intends incremental delivery
	Stream bool `json:"stream,omitempty"`
}

// ChatResponse represents a provider-agnostic chat completion response,
// normalized from backend-specific envelopes.
type ChatResponse struct {
	// ID uniquely identifies the response. Backends that do not supply
	// one get a generated id.
	ID string `json:"id"`

	// Content is the full generated text
	Content string `json:"content"`

	// Model is the model that actually produced the response, which may
	// differ from the requested model after fallback resolution
	Model string `json:"model"`

	// FinishReason indicates why generation stopped
	// (stop, length, error, cancelled)
	FinishReason string `json:"finish_reason"`

	// Usage contains token counters; nil when the backend reported none
	Usage *TokenUsage `json:"usage,omitempty"`
}

// StreamChunk represents a single unit of a streaming response.
//
// A streaming session yields zero or more chunks with Done=false followed
// by exactly one chunk with Done=true. Concatenating every Delta up to and
// including the terminal chunk reproduces the content an equivalent
// non-streaming call would have returned.
type StreamChunk struct {
	// Delta is the incremental content in this chunk
	Delta string `json:"delta"`

	// Done marks the terminal chunk of the session
	Done bool `json:"done"`

	// FinishReason is set on the terminal chunk when the backend reported one
	FinishReason string `json:"finish_reason,omitempty"`

	// Model is the model generating the response, when reported
	Model string `json:"model,omitempty"`
}

// ModelInfo describes a model known to a backend.
type ModelInfo struct {
	// Name uniquely identifies the model within its backend
	Name string `json:"name"`

	// Size is the model size in bytes
	Size int64 `json:"size"`

	// Digest is the backend's content digest for the model
	Digest string `json:"digest"`

	// ModifiedAt is the backend-reported last-modified timestamp
	ModifiedAt time.Time `json:"modified_at"`

	// Family is the model family (e.g. "llama"), when reported
	Family string `json:"family,omitempty"`

	// ParameterSize is the parameter count label (e.g. "8B"), when reported
	ParameterSize string `json:"parameter_size,omitempty"`

	// QuantizationLevel is the quantization label (e.g. "Q4_K_M"), when reported
	QuantizationLevel string `json:"quantization_level,omitempty"`

	// IsRunning is true when the model is currently loaded by the backend,
	// derived by cross-referencing the running-model query
	IsRunning bool `json:"is_running"`
}

// ProviderConfig contains configuration for a single adapter instance.
// It is immutable for the lifetime of the adapter; a settings change
// constructs a new adapter instance.
type ProviderConfig struct {
	// ID is the provider identifier (e.g. "ollama", "openai")
	ID string

	// DisplayName is the human-readable name shown in the UI layer
	DisplayName string

	// Type selects the adapter implementation (ollama, openai-compat, cli)
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication key (optional for local backends)
	APIKey string

	// DefaultModel is used when a request carries no model override
	DefaultModel string

	// Timeout bounds each chat call and each stream establishment
	Timeout time.Duration

	// MaxRetries is the retry budget for transient failures
	MaxRetries int

	// ProbeTimeout bounds the availability probe (default 5s)
	ProbeTimeout time.Duration

	// Command is the executable for CLI-driven adapters
	Command string

	// Args are extra arguments passed to Command
	Args []string

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonError     = "error"
	FinishReasonCancelled = "cancelled"
)

// Provider type constants
const (
	TypeOllama       = "ollama"
	TypeOpenAICompat = "openai-compat"
	TypeCLI          = "cli"
)
