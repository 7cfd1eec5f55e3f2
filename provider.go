package llmstream

import (
	"context"
)

// ProviderID identifies an LLM provider implementation.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderLorem     ProviderID = "lorem"
)

// String returns the provider id as a plain string.
func (p ProviderID) String() string {
	return string(p)
}

// Provider defines the interface that all LLM providers must implement.
// This abstraction allows supporting multiple providers (OpenAI, Anthropic,
// test fakes, etc.) while maintaining a consistent interface.
//
// Types used by this interface:
//   - GenerateRequest, Message: defined in request.go / types.go
//   - Response: defined in response.go
//   - StreamResult: defined in streaming.go
type Provider interface {
	// GenerateResponse generates a complete response from the LLM
	// provider (blocking). Used for non-streaming scenarios or as
	// fallback.
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*Response, error)

	// StreamResponse generates a streaming response (non-blocking).
	// Returns a channel that emits StreamResult values as they arrive.
	// The channel is closed after the final aggregate (Final == true)
	// or after an error result (Err != nil); exactly one of the two
	// terminates every stream.
	//
	// Usage:
	//   stream, err := provider.StreamResponse(ctx, req)
	//   if err != nil { return err }
	//   acc := llmstream.NewResultAccumulator()
	//   for res := range stream {
	//     if res.Err != nil { return res.Err }
	//     acc.Add(res)
	//   }
	//   resp := acc.Response()
	StreamResponse(ctx context.Context, req *GenerateRequest) (<-chan StreamResult, error)

	// Name returns the provider id (e.g., "openai", "anthropic", "lorem")
	Name() ProviderID

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}
