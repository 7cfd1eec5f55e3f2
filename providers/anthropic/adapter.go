package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	llmstream "github.com/voralis/llmstream-go"
)

// convertToAnthropicMessages converts library messages to Anthropic SDK format.
// System messages are handled through params; thinking and telemetry live in
// message metadata and are not replayed.
func convertToAnthropicMessages(messages []llmstream.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		if msg.Role == llmstream.RoleSystem {
			// Lifted into params.System by the caller; skip here.
			continue
		}

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))

		for j, part := range msg.Parts {
			if part == nil {
				continue
			}

			switch part.PartType {
			case llmstream.PartTypeText:
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))

			case llmstream.PartTypeToolCall:
				if part.ToolCallID == "" || part.ToolName == "" {
					return nil, fmt.Errorf("message %d, part %d: tool_call part missing id or name", i, j)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(part.ToolCallID, part.Arguments, part.ToolName))

			case llmstream.PartTypeToolResult:
				if part.ToolCallID == "" {
					return nil, fmt.Errorf("message %d, part %d: tool_result part missing tool_call_id", i, j)
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolCallID, encodeToolResult(part.Result), false))

			case llmstream.PartTypeLink:
				blocks = append(blocks, anthropic.NewTextBlock(part.URL))

			default:
				// data parts (generated artifacts) are not replayable
			}
		}

		if len(blocks) == 0 {
			continue
		}

		var message anthropic.MessageParam
		switch msg.Role {
		case llmstream.RoleUser, llmstream.RoleTool:
			message = anthropic.NewUserMessage(blocks...)
		case llmstream.RoleAssistant:
			message = anthropic.NewAssistantMessage(blocks...)
		default:
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}

		result = append(result, message)
	}

	return result, nil
}

// encodeToolResult serializes a decoded tool result back to a string payload.
func encodeToolResult(result interface{}) string {
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(b)
}

// buildFinalResult maps a complete Anthropic message onto the final
// aggregate, applying the same reconciliation rule as every provider:
// text that was streamed incrementally is not re-emitted.
func buildFinalResult(msg *anthropic.Message, hasStreamedText bool) *llmstream.StreamResult {
	var parts []*llmstream.Part
	var thinking strings.Builder
	toolEvents := make(map[string][]interface{})

	for _, content := range msg.Content {
		switch content.Type {
		case "text":
			part := llmstream.NewTextPart(content.Text)
			part.Citations = convertCitations(content.Citations)
			parts = append(parts, part)

		case "thinking":
			thinking.WriteString(content.Thinking)

		case "tool_use":
			parts = append(parts, llmstream.NewToolCallPart(content.ID, content.Name, decodeToolInput(content.Input)))

		case "server_tool_use", "web_search_tool_result":
			// Server-executed search: recorded as telemetry, not parts
			record := gjson.Parse(content.RawJSON()).Value()
			toolEvents[llmstream.MetadataKeyWebSearch] = append(toolEvents[llmstream.MetadataKeyWebSearch], record)

		default:
			// Unknown block type: preserve raw for inspection
			part := &llmstream.Part{
				PartType:     llmstream.PartTypeData,
				ProviderData: json.RawMessage(content.RawJSON()),
			}
			parts = append(parts, part)
		}
	}

	msgMeta := make(map[string]interface{})
	if t := thinking.String(); t != "" {
		msgMeta[llmstream.MetadataKeyThinking] = t
	}
	for tool, events := range toolEvents {
		msgMeta[tool] = events
	}
	if len(msgMeta) == 0 {
		msgMeta = nil
	}

	resMeta := map[string]interface{}{
		llmstream.MetadataKeyResponseID: msg.ID,
		llmstream.MetadataKeyModel:      string(msg.Model),
		llmstream.MetadataKeyStatus:     string(msg.StopReason),
	}
	if msg.StopSequence != "" {
		resMeta["stop_sequence"] = msg.StopSequence
	}
	if msg.Usage.CacheCreationInputTokens > 0 {
		resMeta["cache_creation_input_tokens"] = int(msg.Usage.CacheCreationInputTokens)
	}
	if msg.Usage.CacheReadInputTokens > 0 {
		resMeta["cache_read_input_tokens"] = int(msg.Usage.CacheReadInputTokens)
	}

	res := &llmstream.StreamResult{
		Metadata:     resMeta,
		FinishReason: mapStopReason(msg.StopReason),
		Usage: &llmstream.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		Final: true,
	}

	if hasStreamedText {
		res.Output = &llmstream.Message{Role: llmstream.RoleAssistant, Metadata: msgMeta}
		var nonText []*llmstream.Part
		for _, p := range parts {
			if p != nil && !p.IsText() {
				nonText = append(nonText, p)
			}
		}
		if len(nonText) > 0 {
			res.Messages = []*llmstream.Message{{
				Role:     llmstream.RoleAssistant,
				Parts:    nonText,
				Metadata: msgMeta,
			}}
		}
	} else {
		full := &llmstream.Message{
			Role:     llmstream.RoleAssistant,
			Parts:    parts,
			Metadata: msgMeta,
		}
		res.Output = full
		res.Messages = []*llmstream.Message{full}
	}

	return res
}

// convertCitations maps Anthropic text citations onto library citations.
func convertCitations(citations []anthropic.TextCitationUnion) []llmstream.Citation {
	if len(citations) == 0 {
		return nil
	}

	result := make([]llmstream.Citation, 0, len(citations))
	for _, cite := range citations {
		citation := llmstream.Citation{
			Type:  cite.Type,
			URL:   cite.URL,
			Title: cite.Title,
		}
		if cite.CitedText != "" {
			cited := cite.CitedText
			citation.CitedText = &cited
		}
		if cite.Type == "char_location" {
			if cite.StartCharIndex >= 0 {
				idx := int(cite.StartCharIndex)
				citation.StartIndex = &idx
			}
			if cite.EndCharIndex >= 0 {
				idx := int(cite.EndCharIndex)
				citation.EndIndex = &idx
			}
		}
		result = append(result, citation)
	}
	return result
}

// decodeToolInput parses a tool input payload. Non-object payloads are
// preserved under the "value" key rather than dropped.
func decodeToolInput(input json.RawMessage) map[string]interface{} {
	if len(input) == 0 {
		return map[string]interface{}{}
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(input, &decoded); err == nil {
		return decoded
	}
	return map[string]interface{}{"value": string(input)}
}

// mapStopReason maps Anthropic stop reasons onto the provider-agnostic
// finish reason.
func mapStopReason(reason anthropic.StopReason) llmstream.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonToolUse:
		return llmstream.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		return llmstream.FinishReasonLength
	case anthropic.StopReasonRefusal:
		return llmstream.FinishReasonContentFilter
	default:
		return llmstream.FinishReasonUnspecified
	}
}
