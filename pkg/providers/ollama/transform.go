package ollama

import (
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/providers"
)

// Ollama wire types. The chat request/response shapes are shared between
// unary and streaming calls; a stream is a sequence of chatResponse records
// terminated by one with done=true.

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []providers.Message `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *chatOptions        `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount *int        `json:"prompt_eval_count,omitempty"`
	EvalCount       *int        `json:"eval_count,omitempty"`
}

type tagsResponse struct {
	Models []tagModel `json:"models"`
}

type tagModel struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
	Details    struct {
		Family            string `json:"family,omitempty"`
		ParameterSize     string `json:"parameter_size,omitempty"`
		QuantizationLevel string `json:"quantization_level,omitempty"`
	} `json:"details"`
}

type psResponse struct {
	Models []psModel `json:"models"`
}

type psModel struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

// buildChatRequest transforms a provider-agnostic request to the Ollama
// wire shape. model is the already-resolved effective model.
func buildChatRequest(req *providers.ChatRequest, model string, stream bool) *chatRequest {
	wire := &chatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   stream,
	}

	if req.Temperature > 0 || req.MaxTokens > 0 {
		wire.Options = &chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	return wire
}

// toChatResponse normalizes an Ollama envelope into the canonical response.
// Ollama supplies no response id, so one is generated.
func toChatResponse(wire *chatResponse) *providers.ChatResponse {
	return &providers.ChatResponse{
		ID:           "chat-" + uuid.New().String(),
		Content:      wire.Message.Content,
		Model:        wire.Model,
		FinishReason: normalizeFinishReason(wire.DoneReason, wire.Done),
		Usage:        toUsage(wire.PromptEvalCount, wire.EvalCount),
	}
}

// toUsage converts Ollama eval counters to canonical usage. Counters the
// backend omitted stay absent rather than zero; the total is derived by
// summation when both parts are present.
func toUsage(prompt, completion *int) *providers.TokenUsage {
	if prompt == nil && completion == nil {
		return nil
	}

	usage := &providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
	}
	if prompt != nil && completion != nil {
		usage.TotalTokens = providers.IntPtr(*prompt + *completion)
	}
	return usage
}

// normalizeFinishReason maps Ollama's done_reason to canonical values.
func normalizeFinishReason(reason string, done bool) string {
	switch reason {
	case "stop", "":
		if done {
			return providers.FinishReasonStop
		}
		return ""
	case "length":
		return providers.FinishReasonLength
	default:
		return providers.FinishReasonError
	}
}

// toModelInfo converts a tags entry to canonical model metadata.
func toModelInfo(m tagModel) providers.ModelInfo {
	return providers.ModelInfo{
		Name:              m.Name,
		Size:              m.Size,
		Digest:            m.Digest,
		ModifiedAt:        m.ModifiedAt,
		Family:            m.Details.Family,
		ParameterSize:     m.Details.ParameterSize,
		QuantizationLevel: m.Details.QuantizationLevel,
	}
}
