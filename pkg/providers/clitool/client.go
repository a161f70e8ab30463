package clitool

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/retry"
)

// Provider is the adapter for CLI-driven completion tools.
// It implements the providers.Provider interface by shelling out to the
// configured command.
type Provider struct {
	config providers.ProviderConfig
	logger *slog.Logger
}

// NewProvider creates a new CLI tool provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.ID == "" {
		return nil, &providers.ConfigError{
			Provider: "cli",
			Field:    "id",
			Message:  "provider id is required",
		}
	}

	if config.Command == "" {
		return nil, &providers.ConfigError{
			Provider: config.ID,
			Field:    "command",
			Message:  "command is required for CLI providers",
		}
	}

	if config.Timeout <= 0 {
		config.Timeout = providers.DefaultTimeout
	}
	if config.Type == "" {
		config.Type = providers.TypeCLI
	}

	p := &Provider{
		config: config,
		logger: slog.Default().With("provider", config.ID),
	}

	p.logger.Info("CLI provider initialized", "command", config.Command)

	return p, nil
}

// Name returns the provider's configured id.
func (p *Provider) Name() string {
	return p.config.ID
}

// Config returns the provider's immutable configuration.
func (p *Provider) Config() providers.ProviderConfig {
	return p.config
}

// Chat runs the tool and returns its stdout as the completion. The run goes
// through the retry executor with the shared classification contract; today
// every command failure classifies as non-retryable, so the budget only
// matters for future retryable classifications.
func (p *Provider) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	opts := retry.Options{MaxRetries: p.config.MaxRetries}
	return retry.Do(ctx, opts, func(ctx context.Context) (*providers.ChatResponse, error) {
		return p.runOnce(ctx, req)
	})
}

// runOnce executes a single attempt under the per-call timeout.
func (p *Provider) runOnce(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.config.Command, p.config.Args...)
	cmd.Stdin = strings.NewReader(renderTranscript(req.Messages))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, providers.Classify(p.config.ID, ctx.Err())
		}
		return nil, &providers.Error{
			Kind:     providers.KindAPI,
			Provider: p.config.ID,
			Message:  strings.TrimSpace(stderr.String()),
			Cause:    err,
		}
	}

	// A single trailing newline is the tool signalling end of output, not
	// completion text. ChatStream applies the same trim to its final delta
	// so the concatenated stream equals this content.
	return &providers.ChatResponse{
		ID:           "chat-" + uuid.New().String(),
		Content:      strings.TrimSuffix(stdout.String(), "\n"),
		Model:        p.config.DefaultModel,
		FinishReason: providers.FinishReasonStop,
	}, nil
}

// ChatStream runs the tool and yields its stdout line by line. Closing the
// reader terminates the process.
func (p *Provider) ChatStream(ctx context.Context, req *providers.ChatRequest) (providers.StreamReader, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	cmdCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(cmdCtx, p.config.Command, p.config.Args...)
	cmd.Stdin = strings.NewReader(renderTranscript(req.Messages))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, providers.Classify(p.config.ID, err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &providers.Error{
			Kind:     providers.KindNetwork,
			Provider: p.config.ID,
			Message:  "failed to start command",
			Cause:    err,
		}
	}

	return newStreamReader(p.config.ID, p.config.DefaultModel, cmd, stdout, cancel, p.logger), nil
}

// IsAvailable reports whether the configured command resolves on PATH.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := exec.LookPath(p.config.Command)
	return err == nil
}

// ListModels degrades to the configured default model: CLI tools expose no
// model enumeration.
func (p *Provider) ListModels(ctx context.Context) []string {
	if p.config.DefaultModel == "" {
		return nil
	}
	return []string{p.config.DefaultModel}
}

// ListModelsWithDetails mirrors ListModels with name-only entries.
func (p *Provider) ListModelsWithDetails(ctx context.Context) []providers.ModelInfo {
	names := p.ListModels(ctx)
	models := make([]providers.ModelInfo, 0, len(names))
	for _, name := range names {
		models = append(models, providers.ModelInfo{Name: name})
	}
	return models
}

// ListRunningModels degrades to empty: there is no loaded-model notion.
func (p *Provider) ListRunningModels(ctx context.Context) []providers.ModelInfo {
	return nil
}

// Close releases nothing: each call owns its own process.
func (p *Provider) Close() error {
	return nil
}

// renderTranscript flattens the conversation into the role-prefixed text
// form CLI tools consume, preserving conversation order.
func renderTranscript(messages []providers.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case providers.RoleSystem:
			b.WriteString("[system] ")
		case providers.RoleAssistant:
			b.WriteString("[assistant] ")
		default:
			b.WriteString("[user] ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
