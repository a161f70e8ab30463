package providers

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// TestConfig returns a test provider configuration.
func TestConfig(id, providerType string) providers.ProviderConfig {
	return providers.ProviderConfig{
		ID:                  id,
		DisplayName:         id,
		Type:                providerType,
		BaseURL:             "http://localhost:8080",
		Timeout:             5 * time.Second,
		MaxRetries:          2,
		ProbeTimeout:        1 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(id, providerType, baseURL string) providers.ProviderConfig {
	config := TestConfig(id, providerType)
	config.BaseURL = baseURL
	return config
}

// TestMessage creates a test message.
func TestMessage(role, content string) providers.Message {
	return providers.Message{
		Role:    role,
		Content: content,
	}
}

// TestChatRequest creates a test chat request.
func TestChatRequest(model string, messages ...providers.Message) *providers.ChatRequest {
	return &providers.ChatRequest{
		Model:    model,
		Messages: messages,
	}
}

// TestStreamingRequest creates a test streaming chat request.
func TestStreamingRequest(model string, messages ...providers.Message) *providers.ChatRequest {
	req := TestChatRequest(model, messages...)
	req.Stream = true
	return req
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertKind fails the test unless err is a classified error of the given
// kind.
func AssertKind(t *testing.T, err error, kind providers.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var perr *providers.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *providers.Error, got %T: %v", err, err)
	}
	if perr.Kind != kind {
		t.Fatalf("expected kind %q, got %q (%v)", kind, perr.Kind, err)
	}
}

// AssertEqual fails the test if got != expected.
func AssertEqual(t *testing.T, got, expected interface{}) {
	t.Helper()
	if got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

// AssertTrue fails the test if condition is false.
func AssertTrue(t *testing.T, condition bool, message string) {
	t.Helper()
	if !condition {
		t.Fatalf("assertion failed: %s", message)
	}
}

// AssertFalse fails the test if condition is true.
func AssertFalse(t *testing.T, condition bool, message string) {
	t.Helper()
	if condition {
		t.Fatalf("assertion failed: %s", message)
	}
}

// CollectStream drains a stream reader to completion and returns every
// chunk observed, including the terminal one.
func CollectStream(t *testing.T, reader providers.StreamReader) ([]*providers.StreamChunk, error) {
	t.Helper()
	defer reader.Close()

	var collected []*providers.StreamChunk
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		chunk, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			return collected, nil
		}
		if err != nil {
			return collected, err
		}
		collected = append(collected, chunk)
	}
}

// ConcatenateChunks concatenates the delta text from all chunks.
func ConcatenateChunks(chunks []*providers.StreamChunk) string {
	var result string
	for _, chunk := range chunks {
		result += chunk.Delta
	}
	return result
}

// WaitForCondition waits for a condition to become true within a timeout.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}

		<-ticker.C
	}
}
