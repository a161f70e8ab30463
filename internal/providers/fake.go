package providers

import (
	"context"
	"io"
	"sync"

	"mercator-hq/ganymede/pkg/providers"
)

// FakeProvider is an in-memory Provider implementation for tests that do
// not need a real HTTP backend. Availability and the model list can be
// changed while a test runs; probe and close calls are counted.
type FakeProvider struct {
	cfg providers.ProviderConfig

	mu         sync.Mutex
	available  bool
	models     []string
	response   string
	probeCount int
	closeCount int
}

// NewFakeProvider creates a fake provider that reports the given
// availability.
func NewFakeProvider(id string, available bool) *FakeProvider {
	return &FakeProvider{
		cfg: providers.ProviderConfig{
			ID:           id,
			DisplayName:  id,
			Type:         providers.TypeOllama,
			DefaultModel: "fake-model",
		},
		available: available,
		models:    []string{"fake-model"},
		response:  "fake response",
	}
}

// SetAvailable changes the availability the next probe reports.
func (f *FakeProvider) SetAvailable(available bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
}

// SetModels replaces the model list.
func (f *FakeProvider) SetModels(models ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = models
}

// ProbeCount returns how many times IsAvailable has been called.
func (f *FakeProvider) ProbeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCount
}

// CloseCount returns how many times Close has been called.
func (f *FakeProvider) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCount
}

func (f *FakeProvider) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &providers.ChatResponse{
		ID:           "chat-fake",
		Content:      f.response,
		Model:        f.cfg.DefaultModel,
		FinishReason: providers.FinishReasonStop,
	}, nil
}

func (f *FakeProvider) ChatStream(ctx context.Context, req *providers.ChatRequest) (providers.StreamReader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &fakeStream{delta: f.response, model: f.cfg.DefaultModel}, nil
}

func (f *FakeProvider) IsAvailable(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCount++
	return f.available
}

func (f *FakeProvider) ListModels(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	models := make([]string, len(f.models))
	copy(models, f.models)
	return models
}

func (f *FakeProvider) ListModelsWithDetails(ctx context.Context) []providers.ModelInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	infos := make([]providers.ModelInfo, 0, len(f.models))
	for _, name := range f.models {
		infos = append(infos, providers.ModelInfo{Name: name})
	}
	return infos
}

func (f *FakeProvider) ListRunningModels(ctx context.Context) []providers.ModelInfo {
	return nil
}

func (f *FakeProvider) Name() string {
	return f.cfg.ID
}

func (f *FakeProvider) Config() providers.ProviderConfig {
	return f.cfg
}

func (f *FakeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return nil
}

// fakeStream yields the whole response as a single chunk followed by a
// terminal chunk.
type fakeStream struct {
	delta string
	model string
	step  int
}

func (s *fakeStream) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s.step {
	case 0:
		s.step++
		return &providers.StreamChunk{Delta: s.delta, Model: s.model}, nil
	case 1:
		s.step++
		return &providers.StreamChunk{Done: true, FinishReason: providers.FinishReasonStop, Model: s.model}, nil
	default:
		return nil, io.EOF
	}
}

func (s *fakeStream) Close() error {
	s.step = 2
	return nil
}
