// Package openaicompat implements the provider adapter for OpenAI-compatible
// chat completion APIs.
//
// It serves both hosted services and local servers that mimic the OpenAI
// surface (LM Studio, vLLM, LocalAI):
//
//   - POST /v1/chat/completions for chat, with SSE when streaming
//   - GET /v1/models for model enumeration
//
// The availability probe is a short-timeout GET against /v1/models.
// OpenAI-compatible backends expose no currently-loaded-model query, so
// ListRunningModels always degrades to empty.
package openaicompat
