package clitool

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	testhelpers "mercator-hq/ganymede/internal/providers"
	"mercator-hq/ganymede/pkg/providers"
)

// catConfig runs cat, which echoes the rendered transcript back on stdout.
func catConfig() providers.ProviderConfig {
	return providers.ProviderConfig{
		ID:           "cli-test",
		Type:         providers.TypeCLI,
		Command:      "cat",
		DefaultModel: "external-tool",
		Timeout:      5 * time.Second,
	}
}

func TestNewProviderRequiresID(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{Command: "cat"})
	testhelpers.AssertError(t, err)
}

func TestNewProviderRequiresCommand(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{ID: "cli-test"})
	testhelpers.AssertError(t, err)
}

func TestChatEchoesTranscript(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	resp, err := p.Chat(context.Background(), testhelpers.TestChatRequest("",
		testhelpers.TestMessage(providers.RoleSystem, "be brief"),
		testhelpers.TestMessage(providers.RoleUser, "hello")))
	testhelpers.AssertNoError(t, err)

	testhelpers.AssertEqual(t, resp.Content, "[system] be brief\n[user] hello")
	testhelpers.AssertEqual(t, resp.Model, "external-tool")
	testhelpers.AssertEqual(t, resp.FinishReason, providers.FinishReasonStop)
}

func TestChatCommandFailure(t *testing.T) {
	cfg := catConfig()
	cfg.Command = "false"

	p, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	_, err = p.Chat(context.Background(), testhelpers.TestChatRequest("",
		testhelpers.TestMessage(providers.RoleUser, "hello")))
	testhelpers.AssertKind(t, err, providers.KindAPI)
}

func TestChatDoesNotRetryCommandFailure(t *testing.T) {
	cfg := catConfig()
	cfg.Command = "false"
	cfg.MaxRetries = 3

	p, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	start := time.Now()
	_, err = p.Chat(context.Background(), testhelpers.TestChatRequest("",
		testhelpers.TestMessage(providers.RoleUser, "hello")))
	testhelpers.AssertKind(t, err, providers.KindAPI)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("command failure must abort without backoff, took %s", elapsed)
	}
}

func TestChatTimeout(t *testing.T) {
	cfg := catConfig()
	cfg.Command = "sleep"
	cfg.Args = []string{"10"}
	cfg.Timeout = 50 * time.Millisecond

	p, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	start := time.Now()
	_, err = p.Chat(context.Background(), testhelpers.TestChatRequest("",
		testhelpers.TestMessage(providers.RoleUser, "hello")))
	testhelpers.AssertKind(t, err, providers.KindTimeout)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestChatValidatesRequest(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	_, err = p.Chat(context.Background(), &providers.ChatRequest{})
	testhelpers.AssertError(t, err)
}

func TestChatStream(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	reader, err := p.ChatStream(context.Background(), testhelpers.TestStreamingRequest("",
		testhelpers.TestMessage(providers.RoleUser, "line one"),
		testhelpers.TestMessage(providers.RoleAssistant, "line two")))
	testhelpers.AssertNoError(t, err)

	chunks, err := testhelpers.CollectStream(t, reader)
	testhelpers.AssertNoError(t, err)

	last := chunks[len(chunks)-1]
	testhelpers.AssertTrue(t, last.Done, "last chunk must be terminal")

	content := testhelpers.ConcatenateChunks(chunks)
	if !strings.Contains(content, "line one") || !strings.Contains(content, "line two") {
		t.Errorf("unexpected stream content: %q", content)
	}
}

func TestChatStreamConcatMatchesChat(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	messages := []providers.Message{
		testhelpers.TestMessage(providers.RoleSystem, "be brief"),
		testhelpers.TestMessage(providers.RoleUser, "hello"),
	}

	resp, err := p.Chat(context.Background(), testhelpers.TestChatRequest("", messages...))
	testhelpers.AssertNoError(t, err)

	reader, err := p.ChatStream(context.Background(), testhelpers.TestStreamingRequest("", messages...))
	testhelpers.AssertNoError(t, err)

	chunks, err := testhelpers.CollectStream(t, reader)
	testhelpers.AssertNoError(t, err)

	testhelpers.AssertEqual(t, testhelpers.ConcatenateChunks(chunks), resp.Content)
}

func TestChatStreamTrimsFinalNewline(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	reader, err := p.ChatStream(context.Background(), testhelpers.TestStreamingRequest("",
		testhelpers.TestMessage(providers.RoleUser, "only line")))
	testhelpers.AssertNoError(t, err)

	chunks, err := testhelpers.CollectStream(t, reader)
	testhelpers.AssertNoError(t, err)

	testhelpers.AssertEqual(t, testhelpers.ConcatenateChunks(chunks), "[user] only line")
}

func TestChatStreamFailsToStart(t *testing.T) {
	cfg := catConfig()
	cfg.Command = "no-such-binary-on-path"

	p, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	_, err = p.ChatStream(context.Background(), testhelpers.TestStreamingRequest("",
		testhelpers.TestMessage(providers.RoleUser, "hello")))
	testhelpers.AssertKind(t, err, providers.KindNetwork)
}

func TestChatStreamCloseTerminatesProcess(t *testing.T) {
	cfg := catConfig()
	cfg.Command = "sleep"
	cfg.Args = []string{"30"}

	p, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	reader, err := p.ChatStream(context.Background(), testhelpers.TestStreamingRequest("",
		testhelpers.TestMessage(providers.RoleUser, "hello")))
	testhelpers.AssertNoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		reader.Close()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not terminate the process")
	}

	if _, err := reader.Read(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	testhelpers.AssertTrue(t, p.IsAvailable(context.Background()), "cat resolves on PATH")

	cfg := catConfig()
	cfg.Command = "no-such-binary-on-path"
	missing, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer missing.Close()

	testhelpers.AssertFalse(t, missing.IsAvailable(context.Background()), "missing binary must probe false")
}

func TestListModels(t *testing.T) {
	p, err := NewProvider(catConfig())
	testhelpers.AssertNoError(t, err)
	defer p.Close()

	models := p.ListModels(context.Background())
	testhelpers.AssertEqual(t, len(models), 1)
	testhelpers.AssertEqual(t, models[0], "external-tool")

	cfg := catConfig()
	cfg.DefaultModel = ""
	bare, err := NewProvider(cfg)
	testhelpers.AssertNoError(t, err)
	defer bare.Close()

	if models := bare.ListModels(context.Background()); models != nil {
		t.Errorf("expected nil without a default model, got %v", models)
	}
}
