package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/retry"
)

// Default tuning applied when ProviderConfig leaves a field zero.
const (
	DefaultTimeout      = 120 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// HTTPProvider is the base implementation for HTTP-based adapters.
// It provides connection pooling, retry with backoff, per-call timeout
// composition, and failure classification. Concrete adapters (ollama,
// openaicompat) embed this struct and implement the Provider interface
// on top of it.
type HTTPProvider struct {
	// config contains the immutable provider configuration
	config ProviderConfig

	// client serves unary requests and probes; bounded by config.Timeout
	client *http.Client

	// streamClient serves streaming requests: response headers are
	// bounded by config.Timeout but the body read is governed solely by
	// the request context, so long generations are not cut off
	streamClient *http.Client

	logger *slog.Logger
}

// NewHTTPProvider creates a new base HTTP provider with pooled transports.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = DefaultProbeTimeout
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 5
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	streamTransport := transport.Clone()
	streamTransport.ResponseHeaderTimeout = config.Timeout

	return &HTTPProvider{
		config:       config,
		client:       &http.Client{Transport: transport, Timeout: config.Timeout},
		streamClient: &http.Client{Transport: streamTransport},
		logger:       slog.Default().With("provider", config.ID),
	}
}

// Name returns the provider's configured id.
func (p *HTTPProvider) Name() string {
	return p.config.ID
}

// Config returns the provider's immutable configuration.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// Logger returns the provider-scoped logger for embedding adapters.
func (p *HTTPProvider) Logger() *slog.Logger {
	return p.logger
}

// CallContext composes the per-call timeout with the caller's context so
// that whichever fires first aborts the call. The returned CancelFunc must
// run on every exit path to release the timer.
func (p *HTTPProvider) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.config.Timeout)
}

// RetryOptions returns the retry policy for this provider's requests.
func (p *HTTPProvider) RetryOptions() retry.Options {
	return retry.Options{MaxRetries: p.config.MaxRetries}
}

// URL joins path onto the configured base URL.
func (p *HTTPProvider) URL(path string) string {
	return p.config.BaseURL + path
}

// doOnce performs a single HTTP attempt. Transport failures and non-2xx
// statuses come back classified; on success the response body is open and
// owned by the caller.
func (p *HTTPProvider) doOnce(ctx context.Context, client *http.Client, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.config.APIKey != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, Classify(p.config.ID, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	resp.Body.Close()

	classified := ClassifyStatus(p.config.ID, resp.StatusCode, strings.TrimSpace(string(errorBody)))
	if classified.Kind == KindRateLimit {
		if after := RetryAfter(resp.Header.Get("Retry-After")); after > 0 {
			classified.Message = fmt.Sprintf("%s (retry after %s)", classified.Message, after)
		}
	}
	return nil, classified
}

// DoRequest performs an HTTP request under the retry executor. Transient
// failures (network, timeout, rate limit) are retried up to the configured
// budget with exponential backoff; invalid requests and backend API errors
// abort immediately. Cancellation is honored before each attempt and
// during backoff.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	return retry.Do(ctx, p.RetryOptions(), func(ctx context.Context) (*http.Response, error) {
		return p.doOnce(ctx, p.client, method, url, body, headers)
	})
}

// OpenStream establishes a streaming request under the retry executor.
/// Retries apply only to establishing the connection: once the response is
// returned, the body is a live stream owned by the caller and mid-stream
// failures are not retried. The body read is governed by ctx, not by the
// unary timeout.
func (p *HTTPProvider) OpenStream(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	return retry.Do(ctx, p.RetryOptions(), func(ctx context.Context) (*http.Response, error) {
		return p.doOnce(ctx, p.streamClient, method, url, body, headers)
	})
}

// DoJSON performs a JSON request/response round trip with the per-call
// timeout composed in. The timeout timer is released on every exit path.
func (p *HTTPProvider) DoJSON(ctx context.Context, method, url string, reqBody, respBody interface{}, headers map[string]string) error {
	ctx, cancel := p.CallContext(ctx)
	defer cancel()

	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classify(p.config.ID, fmt.Errorf("failed to read response: %w", err))
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &Error{
				Kind:     KindAPI,
				Provider: p.config.ID,
				Message:  "malformed response envelope",
				Cause:    err,
			}
		}
	}

	return nil
}

// Probe performs the availability check: a single GET against url bounded
// independently by ProbeTimeout. Any failure (network, timeout, non-2xx)
// degrades to false; probes never raise.
func (p *HTTPProvider) Probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.ProbeTimeout)
	defer cancel()

	resp, err := p.doOnce(ctx, p.client, http.MethodGet, url, nil, nil)
	if err != nil {
		p.logger.Debug("availability probe failed", "url", url, "error", err)
		return false
	}

	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return true
}

// Close releases idle connections. The provider must not be used after.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	p.streamClient.CloseIdleConnections()
	p.logger.Debug("provider closed")
	return nil
}
