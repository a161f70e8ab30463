// Ganymede is a connectivity layer for local and remote LLM backends.
//
// It manages a set of configured provider adapters (Ollama, OpenAI-compatible
// servers, CLI tools), keeps track of their availability, and exposes chat
// completion with retry, streaming and model-catalog support.
//
// Usage:
//
//	# One-shot chat against the active provider
//	ganymede chat "why is the sky blue?"
//
//	# Stream tokens as they arrive
//	ganymede chat --stream "tell me a story"
//
//	# List backend-known models
//	ganymede models --details
//
//	# Watch provider availability
//	ganymede status --watch
//
//	# Validate a configuration file
//	ganymede validate --config config.yaml
package main

func main() {
	Execute()
}
