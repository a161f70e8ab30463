package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// StreamFormat selects the wire framing a mock streaming response uses.
type StreamFormat int

const (
	// StreamNDJSON emits one JSON object per line, as Ollama does.
	StreamNDJSON StreamFormat = iota
	// StreamSSE emits "data: ..." Server-Sent Events frames.
	StreamSSE
)

// MockServer is a mock HTTP server for testing provider adapters.
// It simulates backend API responses including errors and streaming.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode   int
	Body         interface{}
	Delay        time.Duration
	Headers      map[string]string
	StreamChunks []string
	StreamFormat StreamFormat
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific endpoint.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.requestCount
}

// ResetRequestCount resets the request counter.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.requestCount = 0
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleStream(w, response)
		return
	}

	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

func (ms *MockServer) handleStream(w http.ResponseWriter, response MockResponse) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	switch response.StreamFormat {
	case StreamSSE:
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		for _, chunk := range response.StreamChunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()

	default:
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		for _, chunk := range response.StreamChunks {
			fmt.Fprintf(w, "%s\n", chunk)
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// MockOllamaChatResponse creates a non-streaming /api/chat response body.
func MockOllamaChatResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"model": model,
		"message": map[string]interface{}{
			"role":    "assistant",
			"content": content,
		},
		"done":              true,
		"done_reason":       "stop",
		"prompt_eval_count": 10,
		"eval_count":        20,
	}
}

// MockOllamaStreamLine creates one NDJSON line of a streaming /api/chat
// response. A non-empty doneReason marks the terminal line.
func MockOllamaStreamLine(delta, model, doneReason string) string {
	line := map[string]interface{}{
		"model": model,
		"message": map[string]interface{}{
			"role":    "assistant",
			"content": delta,
		},
		"done": doneReason != "",
	}
	if doneReason != "" {
		line["done_reason"] = doneReason
		line["prompt_eval_count"] = 10
		line["eval_count"] = 20
	}

	bytes, _ := json.Marshal(line)
	return string(bytes)
}

// MockOllamaTags creates an /api/tags response body listing the given
// model names.
func MockOllamaTags(names ...string) map[string]interface{} {
	models := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		models = append(models, map[string]interface{}{
			"name":        name,
			"size":        4661224676,
			"digest":      "sha256:abc123",
			"modified_at": time.Now().Format(time.RFC3339),
			"details": map[string]interface{}{
				"family":             "llama",
				"parameter_size":     "8B",
				"quantization_level": "Q4_K_M",
			},
		})
	}
	return map[string]interface{}{"models": models}
}

// MockOllamaPS creates an /api/ps response body listing the given
// currently-loaded model names.
func MockOllamaPS(names ...string) map[string]interface{} {
	models := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		models = append(models, map[string]interface{}{
			"name":   name,
			"size":   5137025024,
			"digest": "sha256:abc123",
		})
	}
	return map[string]interface{}{"models": models}
}

// MockOpenAIResponse creates a chat completion response body.
func MockOpenAIResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// MockOpenAIStreamChunk creates one SSE data payload of a streaming chat
// completion.
func MockOpenAIStreamChunk(delta, model, finishReason string) string {
	choice := map[string]interface{}{
		"index": 0,
		"delta": map[string]interface{}{
			"content": delta,
		},
	}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	}
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{choice},
	}

	bytes, _ := json.Marshal(chunk)
	return string(bytes)
}

// MockModelsResponse creates a /v1/models response body.
func MockModelsResponse(ids ...string) map[string]interface{} {
	data := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]interface{}{
			"id":     id,
			"object": "model",
		})
	}
	return map[string]interface{}{"object": "list", "data": data}
}

// MockErrorResponse creates a mock error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	body := map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    statusCode,
		},
	}

	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// MockRateLimitError creates a 429 rate limit error response.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}
