package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providerfactory"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/registry"
)

var chatFlags struct {
	provider    string
	model       string
	system      string
	temperature float64
	maxTokens   int
	stream      bool
	format      string
}

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a chat completion request",
	Long: `Send a one-shot chat completion request to the active provider.

The prompt is taken from the arguments, or from stdin when no arguments are
given. Transient failures (network, timeout, rate limit) are retried with
exponential backoff.

Examples:
  # Ask the active provider
  ganymede chat "why is the sky blue?"

  # Stream tokens as they arrive
  ganymede chat --stream "tell me a story"

  # Pick a provider and model explicitly
  ganymede chat --provider lmstudio --model llama-3.1-8b "hello"

  # Pipe the prompt in
  cat prompt.txt | ganymede chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatFlags.provider, "provider", "", "provider id (defaults to the active provider)")
	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "", "model override")
	chatCmd.Flags().StringVar(&chatFlags.system, "system", "", "system prompt")
	chatCmd.Flags().Float64Var(&chatFlags.temperature, "temperature", 0, "sampling temperature")
	chatCmd.Flags().IntVar(&chatFlags.maxTokens, "max-tokens", 0, "completion token limit")
	chatCmd.Flags().BoolVar(&chatFlags.stream, "stream", false, "stream tokens as they arrive")
	chatCmd.Flags().StringVar(&chatFlags.format, "format", "text", "output format: text, json")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	prompt, err := readPrompt(args)
	if err != nil {
		return err
	}

	reg, err := providerfactory.BuildRegistry(cfg, logger, nil)
	if err != nil {
		return cli.NewCommandError("chat", err)
	}
	defer reg.Close()

	provider, err := selectProvider(reg, chatFlags.provider)
	if err != nil {
		return err
	}

	req := &providers.ChatRequest{
		Model:       chatFlags.model,
		Temperature: chatFlags.temperature,
		MaxTokens:   chatFlags.maxTokens,
	}
	if chatFlags.system != "" {
		req.Messages = append(req.Messages, providers.Message{
			Role:    providers.RoleSystem,
			Content: chatFlags.system,
		})
	}
	req.Messages = append(req.Messages, providers.Message{
		Role:    providers.RoleUser,
		Content: prompt,
	})

	ctx := cli.SetupSignalHandler()

	if chatFlags.stream {
		return streamChat(ctx, cfg, logger, provider, req, reg)
	}
	return unaryChat(ctx, cfg, logger, provider, req, reg)
}

func unaryChat(ctx context.Context, cfg *config.Config, logger *slog.Logger, provider providers.Provider, req *providers.ChatRequest, reg *registry.Registry) error {
	spinner := cli.NewSpinner(os.Stderr, "waiting for "+provider.Name())
	spinner.Start()
	resp, err := provider.Chat(ctx, req)
	spinner.Stop()

	if err != nil {
		refreshModelsOnMiss(ctx, cfg, logger, provider, err)
		return chatError(provider.Name(), err, reg)
	}

	if chatFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, resp)
	}

	fmt.Println(resp.Content)
	return nil
}

func streamChat(ctx context.Context, cfg *config.Config, logger *slog.Logger, provider providers.Provider, req *providers.ChatRequest, reg *registry.Registry) error {
	req.Stream = true

	reader, err := provider.ChatStream(ctx, req)
	if err != nil {
		refreshModelsOnMiss(ctx, cfg, logger, provider, err)
		return chatError(provider.Name(), err, reg)
	}
	defer reader.Close()

	for {
		chunk, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Println()
			refreshModelsOnMiss(ctx, cfg, logger, provider, err)
			return chatError(provider.Name(), err, reg)
		}

		fmt.Print(chunk.Delta)
		if chunk.Done {
			break
		}
	}

	fmt.Println()
	return nil
}

// chatError renders a failure with its suggested remediations.
func chatError(providerID string, err error, reg *registry.Registry) error {
	actions := providers.SuggestActions(err, reg)

	hints := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a {
		case providers.ActionRetry:
			hints = append(hints, "retry the request")
		case providers.ActionSwitchProvider:
			if fallback, ok := reg.NextAvailable(providerID); ok {
				hints = append(hints, fmt.Sprintf("switch to provider %q", fallback.Name()))
			}
		case providers.ActionRefreshModels:
			hints = append(hints, "refresh the model list (ganymede models)")
		case providers.ActionOpenSettings:
			hints = append(hints, "check the provider configuration")
		}
	}

	if len(hints) > 0 {
		return fmt.Errorf("%w\n  suggestions: %s", err, strings.Join(hints, "; "))
	}
	return err
}

// refreshModelsOnMiss re-enumerates the provider's models when a request was
// rejected for an unknown model, so a stale cached listing does not keep
// steering callers at a model the backend dropped.
func refreshModelsOnMiss(ctx context.Context, cfg *config.Config, logger *slog.Logger, provider providers.Provider, err error) {
	var perr *providers.Error
	if !errors.As(err, &perr) || perr.Kind != providers.KindModelNotFound {
		return
	}

	catalog, cerr := openCatalog(cfg, logger)
	if cerr != nil {
		logger.Debug("skipping model refresh", "error", cerr)
		return
	}
	defer catalog.Close()

	if rerr := catalog.Refresh(ctx, provider); rerr != nil {
		logger.Debug("model refresh failed", "provider", provider.Name(), "error", rerr)
	}
}

// selectProvider resolves the target provider: the explicit flag, or the
// registry's active selection.
func selectProvider(reg *registry.Registry, id string) (providers.Provider, error) {
	if id != "" {
		return reg.Get(id)
	}

	provider, ok := reg.Active()
	if !ok {
		return nil, fmt.Errorf("no active provider configured")
	}
	return provider, nil
}

// readPrompt assembles the prompt from arguments or stdin.
func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("empty prompt: pass it as an argument or on stdin")
	}
	return prompt, nil
}
