package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	llmstream "github.com/voralis/llmstream-go"
)

// StreamResponse generates a streaming response from Claude.
// Returns a channel that emits StreamResult as deltas arrive from the API,
// terminated by exactly one final aggregate.
func (p *Provider) StreamResponse(ctx context.Context, req *llmstream.GenerateRequest) (<-chan llmstream.StreamResult, error) {
	// Validate model
	if !p.SupportsModel(req.Model) {
		return nil, &llmstream.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Anthropic (must start with 'claude-')",
			Err:      llmstream.ErrInvalidModel,
		}
	}

	// Build Anthropic API parameters (shared logic with GenerateResponse)
	apiParams, err := buildMessageParams(req)
	if err != nil {
		return nil, err
	}

	results := make(chan llmstream.StreamResult, 10) // Buffered to prevent blocking

	go func() {
		defer close(results)

		stream := p.client.Messages.NewStreaming(ctx, apiParams)

		// Accumulator for the final aggregate
		message := anthropic.Message{}
		hasStreamedText := false

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				results <- llmstream.StreamResult{
					Err: fmt.Errorf("failed to accumulate message: %w", err),
				}
				return
			}

			res, streamedText := partialFromEvent(event)
			if streamedText {
				hasStreamedText = true
			}
			if res == nil {
				continue
			}

			select {
			case <-ctx.Done():
				results <- llmstream.StreamResult{Err: ctx.Err()}
				return
			case results <- *res:
			}
		}

		if err := stream.Err(); err != nil {
			results <- llmstream.StreamResult{
				Err: fmt.Errorf("anthropic streaming error: %w", err),
			}
			return
		}

		final := buildFinalResult(&message, hasStreamedText)
		select {
		case <-ctx.Done():
		case results <- *final:
		}
	}()

	return results, nil
}

// partialFromEvent converts an Anthropic streaming event to a partial
// result. Returns nil for events that carry nothing consumer-visible
// (lifecycle markers, tool argument fragments, signatures). The second
// return reports whether the event carried streamed output text.
//
// Anthropic stream events include:
// - MessageStart: message metadata (id, model, role)
// - ContentBlockStart: new content block (index, type)
// - ContentBlockDelta: incremental content (text_delta, thinking_delta, input_json_delta, signature_delta)
// - ContentBlockStop: block finished
// - MessageDelta: message-level delta (stop_reason, stop_sequence)
// - MessageStop: streaming complete
func partialFromEvent(event anthropic.MessageStreamEventUnion) (*llmstream.StreamResult, bool) {
	e, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return nil, false
	}

	switch e.Delta.Type {
	case "text_delta":
		if e.Delta.Text == "" {
			return nil, false
		}
		return &llmstream.StreamResult{
			Output: &llmstream.Message{
				Role:  llmstream.RoleAssistant,
				Parts: []*llmstream.Part{llmstream.NewTextPart(e.Delta.Text)},
			},
		}, true

	case "thinking_delta":
		if e.Delta.Thinking == "" {
			return nil, false
		}
		return &llmstream.StreamResult{
			Metadata: map[string]interface{}{
				llmstream.MetadataKeyThinking: e.Delta.Thinking,
			},
		}, false

	default:
		// input_json_delta and signature_delta surface on the final
		// aggregate once their block is complete
		return nil, false
	}
}
