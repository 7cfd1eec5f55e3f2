package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	llmstream "github.com/voralis/llmstream-go"
)

// Provider implements the llmstream.Provider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, llmstream.ErrInvalidAPIKey
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmstream.ProviderID {
	return llmstream.ProviderAnthropic
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// GenerateResponse generates a response from Claude.
func (p *Provider) GenerateResponse(ctx context.Context, req *llmstream.GenerateRequest) (*llmstream.Response, error) {
	// Validate model
	if !p.SupportsModel(req.Model) {
		return nil, &llmstream.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Anthropic (must start with 'claude-')",
			Err:      llmstream.ErrInvalidModel,
		}
	}

	// Build Anthropic API parameters (shared logic with StreamResponse)
	apiParams, err := buildMessageParams(req)
	if err != nil {
		return nil, err
	}

	// Call Anthropic API
	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	// Run the same finalization path as streaming; with no streamed text
	// the aggregate carries the full part list.
	final := buildFinalResult(message, false)

	acc := llmstream.NewResultAccumulator()
	acc.Add(*final)
	return acc.Response(), nil
}
