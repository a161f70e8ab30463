// Package providers implements a unified abstraction layer over the chat
// completion backends the planning copilot can talk to.
//
// # Overview
//
// The providers package gives the conversation orchestrator one contract for
// heterogeneous backends: a local Ollama server, OpenAI-compatible completion
// APIs (cloud or LM Studio/vLLM style local servers), and CLI-driven tools.
// It normalizes requests and responses, streams incremental output through a
// pull-based reader, probes reachability, enumerates models, and classifies
// every failure into a closed taxonomy with suggested recovery actions.
//
// # Architecture
//
// The package is organized into several layers:
//
//  1. Provider Interface - the contract all adapters implement
//  2. Base HTTP Provider - shared HTTP client logic (pooling, retry, timeout composition, classification)
//  3. Adapters - backend-specific sub-packages (ollama, openaicompat, clitool)
//  4. Error Classifier - maps raw failures to the Error taxonomy and derives actions
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    ID:           "ollama",
//	    BaseURL:      "http://localhost:11434",
//	    DefaultModel: "llama3.1",
//	    Timeout:      120 * time.Second,
//	}
//
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.Chat(ctx, &providers.ChatRequest{
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Draft a phase plan"}},
//	})
//
// # Streaming
//
// ChatStream returns a StreamReader. The caller pulls chunks until the
// terminal chunk (Done=true) is observed, then Read reports io.EOF:
//
//	stream, err := provider.ChatStream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for {
//	    chunk, err := stream.Read(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// Dropping the reader (Close) deterministically releases the underlying
// connection, on every exit path.
//
// # Error Classification
//
// Failures surface as *providers.Error carrying a Kind from the closed
// taxonomy, the originating provider id, a retryable flag, and the wrapped
// cause. SuggestActions derives the remediation affordances the presentation
// layer renders (retry, switch_provider, refresh_models, open_settings).
//
// Availability probes and model enumeration are advisory: they never raise,
// degrading to false / empty instead.
package providers
