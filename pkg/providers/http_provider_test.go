package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testProvider(baseURL string) *HTTPProvider {
	return NewHTTPProvider(ProviderConfig{
		ID:           "test",
		Type:         "ollama",
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		ProbeTimeout: 500 * time.Millisecond,
	})
}

func TestDoJSONRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	var resp struct {
		Status string `json:"status"`
	}
	req := map[string]string{"hello": "world"}

	if err := p.DoJSON(context.Background(), http.MethodPost, p.URL("/api/test"), req, &resp, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected ok, got %q", resp.Status)
	}
}

func TestDoJSONMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	var resp map[string]interface{}
	err := p.DoJSON(context.Background(), http.MethodGet, p.URL("/"), nil, &resp, nil)

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if pe.Kind != KindAPI {
		t.Errorf("expected api_error for malformed envelope, got %s", pe.Kind)
	}
}

func TestBearerAuthHeader(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := NewHTTPProvider(ProviderConfig{
		ID:      "test",
		BaseURL: server.URL,
		APIKey:  "sk-test-key",
	})
	defer p.Close()

	if err := p.DoJSON(context.Background(), http.MethodGet, p.URL("/"), nil, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth := gotAuth.Load(); auth != "Bearer sk-test-key" {
		t.Errorf("expected bearer header, got %q", auth)
	}
}

func TestDoRequestRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("rate limit exceeded"))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	resp, err := p.DoRequest(context.Background(), http.MethodGet, p.URL("/"), nil, nil)
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	resp.Body.Close()

	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestDoRequestDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	_, err := p.DoRequest(context.Background(), http.MethodGet, p.URL("/"), nil, nil)

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if pe.Kind != KindInvalidRequest {
		t.Errorf("expected invalid_request, got %s", pe.Kind)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", n)
	}
}

func TestRateLimitMessageCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	p := NewHTTPProvider(ProviderConfig{ID: "test", BaseURL: server.URL})
	defer p.Close()

	_, err := p.doOnce(context.Background(), p.client, http.MethodGet, p.URL("/"), nil, nil)

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if pe.Kind != KindRateLimit {
		t.Errorf("expected rate_limit, got %s", pe.Kind)
	}
	if !strings.Contains(pe.Message, "30s") {
		t.Errorf("expected retry hint in message, got %q", pe.Message)
	}
}

func TestProbeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	if !p.Probe(context.Background(), p.URL("/")) {
		t.Error("expected probe to succeed")
	}
}

func TestProbeDegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	if p.Probe(context.Background(), p.URL("/")) {
		t.Error("expected probe to fail on 500")
	}
}

func TestProbeDegradesOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	p := NewHTTPProvider(ProviderConfig{
		ID:           "test",
		BaseURL:      server.URL,
		ProbeTimeout: 50 * time.Millisecond,
	})
	defer p.Close()

	start := time.Now()
	if p.Probe(context.Background(), p.URL("/")) {
		t.Error("expected probe to fail on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("probe did not honor its own timeout, took %s", elapsed)
	}
}

func TestProbeDegradesOnConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	if p.Probe(context.Background(), p.URL("/")) {
		t.Error("expected probe to fail against closed server")
	}
}

func TestURLJoining(t *testing.T) {
	p := NewHTTPProvider(ProviderConfig{ID: "test", BaseURL: "http://localhost:11434/"})
	defer p.Close()

	if got := p.URL("/api/tags"); got != "http://localhost:11434/api/tags" {
		t.Errorf("unexpected url: %s", got)
	}
}

func TestDoRequestHonorsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	p := testProvider(server.URL)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.DoRequest(ctx, http.MethodGet, p.URL("/"), nil, nil)
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request outlived its context, took %s", elapsed)
	}
}
