package openaicompat

import (
	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/providers"
)

// OpenAI-compatible wire types, trimmed to the surface this adapter uses.

type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []providers.Message `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Stream      bool                `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage,omitempty"`
}

type streamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type streamResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// buildChatRequest transforms a provider-agnostic request to the wire shape.
func buildChatRequest(req *providers.ChatRequest, model string, stream bool) *chatRequest {
	return &chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}

// toChatResponse normalizes the backend envelope into the canonical
// response. Responses without choices are a backend contract violation.
func toChatResponse(providerID string, wire *chatResponse) (*providers.ChatResponse, error) {
	if len(wire.Choices) == 0 {
		return nil, &providers.Error{
			Kind:     providers.KindAPI,
			Provider: providerID,
			Message:  "response contains no choices",
		}
	}

	choice := wire.Choices[0]

	id := wire.ID
	if id == "" {
		id = "chat-" + uuid.New().String()
	}

	return &providers.ChatResponse{
		ID:           id,
		Content:      choice.Message.Content,
		Model:        wire.Model,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage:        toUsage(wire.Usage),
	}, nil
}

// toUsage converts wire usage to canonical counters. A missing usage block
// stays absent; a missing total is derived by summation when both parts
// are present.
func toUsage(wire *wireUsage) *providers.TokenUsage {
	if wire == nil {
		return nil
	}

	usage := &providers.TokenUsage{
		PromptTokens:     wire.PromptTokens,
		CompletionTokens: wire.CompletionTokens,
		TotalTokens:      wire.TotalTokens,
	}
	if usage.TotalTokens == nil && usage.PromptTokens != nil && usage.CompletionTokens != nil {
		usage.TotalTokens = providers.IntPtr(*usage.PromptTokens + *usage.CompletionTokens)
	}
	if usage.PromptTokens == nil && usage.CompletionTokens == nil && usage.TotalTokens == nil {
		return nil
	}
	return usage
}

// normalizeFinishReason maps wire finish reasons to the canonical set.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop", "":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	default:
		return providers.FinishReasonError
	}
}
