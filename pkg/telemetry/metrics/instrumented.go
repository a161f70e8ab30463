package metrics

import (
	"context"
	"errors"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// InstrumentedProvider wraps a Provider and records metrics for every
// call that passes through it. All Provider semantics are preserved.
type InstrumentedProvider struct {
	providers.Provider
	metrics *ProviderMetrics
}

// Instrument wraps a provider with metrics collection.
func Instrument(p providers.Provider, pm *ProviderMetrics) *InstrumentedProvider {
	return &InstrumentedProvider{Provider: p, metrics: pm}
}

// Chat records request count, latency, outcome, and any classified error
// kind.
func (ip *InstrumentedProvider) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	start := time.Now()
	resp, err := ip.Provider.Chat(ctx, req)
	latency := time.Since(start)

	provider := ip.Name()
	model := req.Model
	if resp != nil && resp.Model != "" {
		model = resp.Model
	}

	if err != nil {
		ip.metrics.RecordChat(provider, model, "error", latency)
		ip.recordError(provider, err)
		return nil, err
	}

	ip.metrics.RecordChat(provider, model, "success", latency)
	return resp, nil
}

// ChatStream instruments stream establishment and wraps the reader to
// count delivered chunks.
func (ip *InstrumentedProvider) ChatStream(ctx context.Context, req *providers.ChatRequest) (providers.StreamReader, error) {
	start := time.Now()
	reader, err := ip.Provider.ChatStream(ctx, req)
	latency := time.Since(start)

	provider := ip.Name()
	if err != nil {
		ip.metrics.RecordChat(provider, req.Model, "error", latency)
		ip.recordError(provider, err)
		return nil, err
	}

	ip.metrics.RecordChat(provider, req.Model, "success", latency)
	return &instrumentedStream{inner: reader, metrics: ip.metrics, provider: provider}, nil
}

// IsAvailable records the probe result and updates the availability
// gauge.
func (ip *InstrumentedProvider) IsAvailable(ctx context.Context) bool {
	available := ip.Provider.IsAvailable(ctx)

	provider := ip.Name()
	ip.metrics.RecordProbe(provider, available)
	ip.metrics.UpdateAvailability(provider, available)
	return available
}

func (ip *InstrumentedProvider) recordError(provider string, err error) {
	var perr *providers.Error
	if errors.As(err, &perr) {
		ip.metrics.RecordError(provider, string(perr.Kind))
		return
	}
	ip.metrics.RecordError(provider, string(providers.KindAPI))
}

type instrumentedStream struct {
	inner    providers.StreamReader
	metrics  *ProviderMetrics
	provider string
}

func (s *instrumentedStream) Read(ctx context.Context) (*providers.StreamChunk, error) {
	chunk, err := s.inner.Read(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStreamChunk(s.provider)
	return chunk, nil
}

func (s *instrumentedStream) Close() error {
	return s.inner.Close()
}
