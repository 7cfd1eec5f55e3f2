package lorem

import (
	"context"
	"log"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	"github.com/google/uuid"

	llmstream "github.com/voralis/llmstream-go"
)

// Provider is a mock LLM provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() llmstream.ProviderID {
	return llmstream.ProviderLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-test"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// GenerateResponse generates a complete lorem ipsum response.
// Simulates a blocking API call to a real LLM provider.
func (p *Provider) GenerateResponse(ctx context.Context, req *llmstream.GenerateRequest) (*llmstream.Response, error) {
	// Validate model
	if !p.SupportsModel(req.Model) {
		return nil, &llmstream.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      llmstream.ErrInvalidModel,
		}
	}

	// Extract parameters
	params := req.Params
	if params == nil {
		params = &llmstream.RequestParams{}
	}
	maxTokens := params.GetMaxTokens(4096)

	// Simulate a short processing delay
	select {
	case <-time.After(getStreamDelay(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Generate lorem ipsum text
	// Estimate: 1 token ~ 4 characters
	text := p.generateText(maxTokens * 4)

	final := p.buildFinal(req, []*llmstream.Part{llmstream.NewTextPart(text)},
		len(strings.Fields(text)), llmstream.FinishReasonStop, false)

	acc := llmstream.NewResultAccumulator()
	acc.Add(*final)
	return acc.Response(), nil
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-slow: 2 words/second (500ms per word)
// - lorem-fast: 30 words/second (33ms per word)
// - lorem-medium: 10 words/second (100ms per word)
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond // 2 words/second
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond // 30 words/second
	}
	if strings.Contains(model, "medium") {
		return 100 * time.Millisecond // 10 words/second
	}
	return 100 * time.Millisecond // default: 10 words/second
}

// isCutoffModel returns true if the model should simulate max_tokens cutoff.
func isCutoffModel(model string) bool {
	return strings.Contains(model, "cutoff") || strings.Contains(model, "small")
}

// StreamResponse generates a streaming lorem ipsum response.
// Speed varies based on model name (lorem-slow, lorem-fast, lorem-medium).
// Rotates through: text (20 words) -> thinking (20 words, if enabled) ->
// tool call (if tools requested) -> repeat, then emits one final aggregate.
func (p *Provider) StreamResponse(ctx context.Context, req *llmstream.GenerateRequest) (<-chan llmstream.StreamResult, error) {
	// Validate model
	if !p.SupportsModel(req.Model) {
		return nil, &llmstream.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      llmstream.ErrInvalidModel,
		}
	}

	// Extract parameters
	params := req.Params
	if params == nil {
		params = &llmstream.RequestParams{}
	}
	maxTokens := params.GetMaxTokens(4096)
	thinkingEnabled := params.ThinkingEnabled != nil && *params.ThinkingEnabled
	toolsEnabled := len(params.Tools) > 0

	results := make(chan llmstream.StreamResult, 10)

	go func() {
		defer close(results)

		round := 0
		totalOutputTokens := 0
		finish := llmstream.FinishReasonStop
		toolIndex := 0
		hasStreamedText := false
		var toolCalls []*llmstream.Part

		log.Printf("[LOREM] StreamResponse started: model=%s, thinking_enabled=%v, tools_enabled=%v, max_tokens=%d",
			req.Model, thinkingEnabled, toolsEnabled, maxTokens)

		for totalOutputTokens < maxTokens {
			remainingTokens := maxTokens - totalOutputTokens

			// Round 0, 3, 6... : text (20 words)
			if round%3 == 0 || (round%3 == 1 && !thinkingEnabled) {
				targetWords := 20
				if remainingTokens < targetWords {
					targetWords = remainingTokens
				}

				sent, cutoff, err := p.streamText(ctx, results, targetWords, req.Model)
				if err != nil {
					results <- llmstream.StreamResult{Err: err}
					return
				}
				if sent > 0 {
					hasStreamedText = true
				}
				totalOutputTokens += sent
				round++

				if cutoff {
					finish = llmstream.FinishReasonLength
					break
				}
			} else if round%3 == 1 && thinkingEnabled {
				// Round 1, 4, 7... : thinking (20 words, only if enabled)
				targetWords := 20
				if remainingTokens < targetWords {
					targetWords = remainingTokens
				}

				sent, err := p.streamThinking(ctx, results, targetWords, req.Model)
				if err != nil {
					results <- llmstream.StreamResult{Err: err}
					return
				}
				totalOutputTokens += sent
				round++
			} else if toolsEnabled {
				// Round 2, 5, 8... : tool call, surfaced on the final aggregate
				if remainingTokens < 20 {
					break
				}

				tool := params.Tools[toolIndex%len(params.Tools)]
				toolCalls = append(toolCalls, p.mockToolCall(&tool))
				totalOutputTokens += 20
				round++
				toolIndex++
			} else {
				round++
			}

			// Safety check: prevent infinite loop
			if round > 100 {
				break
			}
		}

		if totalOutputTokens >= maxTokens {
			finish = llmstream.FinishReasonLength
		}

		log.Printf("[LOREM] StreamResponse finished: totalOutputTokens=%d, toolCalls=%d, finish=%s",
			totalOutputTokens, len(toolCalls), finish)

		final := p.buildFinal(req, toolCalls, totalOutputTokens, finish, hasStreamedText)
		select {
		case <-ctx.Done():
		case results <- *final:
		}
	}()

	return results, nil
}

// buildFinal assembles the single final aggregate. When text was streamed,
// parts holds only the non-text remainder (tool calls) and the aggregate
// output carries metadata alone.
func (p *Provider) buildFinal(req *llmstream.GenerateRequest, parts []*llmstream.Part, outputTokens int, finish llmstream.FinishReason, hasStreamedText bool) *llmstream.StreamResult {
	inputTokens := p.estimateTokens(req.Messages)

	res := &llmstream.StreamResult{
		Metadata: map[string]interface{}{
			llmstream.MetadataKeyModel: req.Model,
			"mock":                     true,
			"provider":                 "lorem",
		},
		Usage: &llmstream.TokenUsage{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
		FinishReason: finish,
		Final:        true,
	}

	if hasStreamedText {
		res.Output = &llmstream.Message{Role: llmstream.RoleAssistant}
		if len(parts) > 0 {
			res.Messages = []*llmstream.Message{{Role: llmstream.RoleAssistant, Parts: parts}}
		}
	} else {
		full := &llmstream.Message{Role: llmstream.RoleAssistant, Parts: parts}
		res.Output = full
		res.Messages = []*llmstream.Message{full}
	}

	return res
}

// streamText streams a text block word by word.
// Returns (word count, cutoff flag, error).
// For cutoff models, generates extra words and stops at the maxTokens limit.
func (p *Provider) streamText(ctx context.Context, results chan<- llmstream.StreamResult, maxTokens int, model string) (int, bool, error) {
	targetWords := maxTokens
	cutoffModel := isCutoffModel(model)

	if cutoffModel {
		// Cutoff models generate 50% more to simulate hitting max_tokens
		targetWords = maxTokens + (maxTokens / 2)
	}

	text := p.generateTextWords(targetWords)
	words := strings.Fields(text)
	delay := getStreamDelay(model)

	wordsSent := 0
	for _, word := range words {
		select {
		case <-ctx.Done():
			return wordsSent, false, ctx.Err()
		default:
		}

		if cutoffModel && wordsSent >= maxTokens {
			return wordsSent, true, nil
		}

		results <- llmstream.StreamResult{
			Output: &llmstream.Message{
				Role:  llmstream.RoleAssistant,
				Parts: []*llmstream.Part{llmstream.NewTextPart(word + " ")},
			},
		}

		time.Sleep(delay)
		wordsSent++
	}

	return wordsSent, false, nil
}

// streamThinking streams a thinking block as metadata-only partials.
// Returns (word count, error).
func (p *Provider) streamThinking(ctx context.Context, results chan<- llmstream.StreamResult, targetWords int, model string) (int, error) {
	text := p.generateTextWords(targetWords)
	words := strings.Fields(text)
	delay := getStreamDelay(model)

	wordsSent := 0
	for _, word := range words {
		select {
		case <-ctx.Done():
			return wordsSent, ctx.Err()
		default:
		}

		results <- llmstream.StreamResult{
			Metadata: map[string]interface{}{
				llmstream.MetadataKeyThinking: word + " ",
			},
		}

		time.Sleep(delay)
		wordsSent++
	}

	return wordsSent, nil
}

// mockToolCall builds a tool_call part with mock arguments for the
// requested tool.
func (p *Provider) mockToolCall(tool *llmstream.Tool) *llmstream.Part {
	var args map[string]interface{}

	switch tool.Function.Name {
	case "text_editor":
		args = map[string]interface{}{
			"command":   "str_replace",
			"file_path": "/path/to/file.txt",
			"old_str":   "consectetur",
			"new_str":   "adipiscing",
		}
	case "bash":
		args = map[string]interface{}{
			"command": "echo 'lorem ipsum'",
		}
	default:
		if tool.Type != llmstream.ToolTypeFunction {
			args = map[string]interface{}{
				"query": "lorem ipsum dolor sit amet",
			}
		} else if tool.Function.Parameters != nil {
			args = map[string]interface{}{
				"param1": "lorem",
				"param2": "ipsum",
			}
		} else {
			args = map[string]interface{}{
				"data": "mock input for " + tool.Function.Name,
			}
		}
	}

	name := tool.Function.Name
	if name == "" {
		name = string(tool.Type)
	}

	return llmstream.NewToolCallPart("toolu_"+uuid.NewString(), name, args)
}

// generateText generates lorem ipsum text with approximately targetChars characters.
func (p *Provider) generateText(targetChars int) string {
	var sb strings.Builder
	for sb.Len() < targetChars {
		paragraph := p.generator.Paragraph(3, 5)
		sb.WriteString(paragraph)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// generateTextWords generates lorem ipsum text with approximately targetWords words.
func (p *Provider) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0

	for wordCount < targetWords {
		// Generate sentence with 5-15 words
		sentence := p.generator.Sentence(5, 15)
		sb.WriteString(sentence)
		sb.WriteString(" ")

		wordCount += len(strings.Fields(sentence))

		// Add paragraph break every ~50 words
		if wordCount%50 == 0 {
			sb.WriteString("\n\n")
		}
	}

	return strings.TrimSpace(sb.String())
}

// estimateTokens estimates the token count for a list of messages.
// Uses word count as a rough approximation.
func (p *Provider) estimateTokens(messages []llmstream.Message) int {
	totalWords := 0
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if part != nil && part.IsText() {
				totalWords += len(strings.Fields(part.Text))
			}
		}
	}
	return totalWords
}
