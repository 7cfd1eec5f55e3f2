package openai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	llmstream "github.com/voralis/llmstream-go"
)

// responsesRequest represents an OpenAI Responses API request body.
type responsesRequest struct {
	Model              string            `json:"model"`
	Input              []interface{}     `json:"input"`
	Instructions       *string           `json:"instructions,omitempty"`
	MaxOutputTokens    *int              `json:"max_output_tokens,omitempty"`
	Temperature        *float64          `json:"temperature,omitempty"`
	TopP               *float64          `json:"top_p,omitempty"`
	Stream             bool              `json:"stream,omitempty"`
	Store              *bool             `json:"store,omitempty"`
	PreviousResponseID *string           `json:"previous_response_id,omitempty"`
	Truncation         *string           `json:"truncation,omitempty"`
	ServiceTier        *string           `json:"service_tier,omitempty"`
	User               *string           `json:"user,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ParallelToolCalls  *bool             `json:"parallel_tool_calls,omitempty"`
	Reasoning          *reasoningParams  `json:"reasoning,omitempty"`
	Text               *textParams       `json:"text,omitempty"`
	Tools              []interface{}     `json:"tools,omitempty"`
	ToolChoice         interface{}       `json:"tool_choice,omitempty"`
}

// reasoningParams configures reasoning effort and summary emission.
type reasoningParams struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// textParams configures output formatting (structured outputs).
type textParams struct {
	Format interface{} `json:"format,omitempty"`
}

// buildResponsesRequest constructs a Responses API request from a
// GenerateRequest. Shared between GenerateResponse and StreamResponse.
func buildResponsesRequest(req *llmstream.GenerateRequest) (*responsesRequest, error) {
	input, instructions, err := convertToInputItems(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := req.Params
	if params == nil {
		params = &llmstream.RequestParams{}
	}

	apiReq := &responsesRequest{
		Model: req.Model,
		Input: input,
	}

	// System prompt: params.System wins over a leading system message
	if params.System != nil {
		apiReq.Instructions = params.System
	} else if instructions != "" {
		apiReq.Instructions = &instructions
	}

	if params.MaxTokens != nil {
		apiReq.MaxOutputTokens = params.MaxTokens
	}
	if params.Temperature != nil {
		apiReq.Temperature = params.Temperature
	}
	if params.TopP != nil {
		apiReq.TopP = params.TopP
	}
	if params.Store != nil {
		apiReq.Store = params.Store
	}
	if params.PreviousResponseID != nil {
		apiReq.PreviousResponseID = params.PreviousResponseID
	}
	if params.Truncation != nil {
		apiReq.Truncation = params.Truncation
	}
	if params.ServiceTier != nil {
		apiReq.ServiceTier = params.ServiceTier
	}
	if params.User != nil {
		apiReq.User = params.User
	}
	if len(params.Metadata) > 0 {
		apiReq.Metadata = params.Metadata
	}
	if params.ParallelToolCalls != nil {
		apiReq.ParallelToolCalls = params.ParallelToolCalls
	}

	// Reasoning: thinking level maps to effort, enabling thinking turns
	// on summary emission
	if params.ThinkingEnabled != nil && *params.ThinkingEnabled {
		reasoning := &reasoningParams{Summary: "auto"}
		if params.ThinkingLevel != nil {
			reasoning.Effort = *params.ThinkingLevel
		}
		apiReq.Reasoning = reasoning
	} else if params.ThinkingLevel != nil {
		apiReq.Reasoning = &reasoningParams{Effort: *params.ThinkingLevel}
	}

	// Structured outputs
	if params.ResponseFormat != nil {
		apiReq.Text = &textParams{Format: convertResponseFormat(params.ResponseFormat)}
	}

	// Tools
	if len(params.Tools) > 0 {
		tools, err := convertToResponsesTools(params.Tools)
		if err != nil {
			return nil, fmt.Errorf("failed to convert tools: %w", err)
		}
		apiReq.Tools = tools
	}

	// Tool choice
	if params.ToolChoice != nil {
		apiReq.ToolChoice = convertToolChoice(params.ToolChoice)
	}

	return apiReq, nil
}

// convertToInputItems converts library messages to Responses input items.
// A leading system message is lifted into instructions.
func convertToInputItems(messages []llmstream.Message) ([]interface{}, string, error) {
	var items []interface{}
	var instructions string

	for i, msg := range messages {
		if msg.Role == llmstream.RoleSystem {
			if i == 0 {
				instructions = msg.Text()
				continue
			}
			return nil, "", fmt.Errorf("system message only allowed at position 0, found at %d", i)
		}

		switch msg.Role {
		case llmstream.RoleUser:
			item, err := convertUserMessage(&msg)
			if err != nil {
				return nil, "", fmt.Errorf("message %d: %w", i, err)
			}
			items = append(items, item)

		case llmstream.RoleAssistant:
			assistantItems, err := convertAssistantMessage(&msg)
			if err != nil {
				return nil, "", fmt.Errorf("message %d: %w", i, err)
			}
			items = append(items, assistantItems...)

		case llmstream.RoleTool:
			toolItems := convertToolMessage(&msg)
			items = append(items, toolItems...)

		default:
			return nil, "", fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}

	return items, instructions, nil
}

// convertUserMessage maps a user message onto one input message item.
func convertUserMessage(msg *llmstream.Message) (interface{}, error) {
	var content []interface{}
	for _, p := range msg.Parts {
		if p == nil {
			continue
		}
		switch p.PartType {
		case llmstream.PartTypeText:
			content = append(content, map[string]interface{}{
				"type": "input_text",
				"text": p.Text,
			})
		case llmstream.PartTypeData:
			uri := fmt.Sprintf("data:%s;base64,%s", p.MimeType, base64.StdEncoding.EncodeToString(p.Data))
			content = append(content, map[string]interface{}{
				"type":      "input_image",
				"image_url": uri,
			})
		case llmstream.PartTypeLink:
			content = append(content, map[string]interface{}{
				"type": "input_text",
				"text": p.URL,
			})
		case llmstream.PartTypeToolResult:
			// Tool results belong to role "tool"; tolerate them here
			// since some callers append results to the user turn.
			content = append(content, map[string]interface{}{
				"type": "input_text",
				"text": encodeToolResult(p.Result),
			})
		default:
			return nil, fmt.Errorf("unsupported user part type %q", p.PartType)
		}
	}

	return map[string]interface{}{
		"type":    "message",
		"role":    "user",
		"content": content,
	}, nil
}

// convertAssistantMessage maps an assistant message onto output message
// and function_call items for replay.
func convertAssistantMessage(msg *llmstream.Message) ([]interface{}, error) {
	var items []interface{}

	var content []interface{}
	for _, p := range msg.Parts {
		if p == nil {
			continue
		}
		switch p.PartType {
		case llmstream.PartTypeText:
			content = append(content, map[string]interface{}{
				"type": "output_text",
				"text": p.Text,
			})
		case llmstream.PartTypeToolCall:
			args, err := json.Marshal(p.Arguments)
			if err != nil {
				return nil, fmt.Errorf("tool call %s: %w", p.ToolCallID, err)
			}
			items = append(items, map[string]interface{}{
				"type":      "function_call",
				"call_id":   p.ToolCallID,
				"name":      p.ToolName,
				"arguments": string(args),
			})
		case llmstream.PartTypeData, llmstream.PartTypeLink:
			// Generated artifacts are not replayable as assistant input
			continue
		default:
			return nil, fmt.Errorf("unsupported assistant part type %q", p.PartType)
		}
	}

	if len(content) > 0 {
		items = append([]interface{}{map[string]interface{}{
			"type":    "message",
			"role":    "assistant",
			"content": content,
		}}, items...)
	}

	return items, nil
}

// convertToolMessage maps tool_result parts onto function_call_output items.
func convertToolMessage(msg *llmstream.Message) []interface{} {
	var items []interface{}
	for _, p := range msg.Parts {
		if p == nil || !p.IsToolResult() {
			continue
		}
		items = append(items, map[string]interface{}{
			"type":    "function_call_output",
			"call_id": p.ToolCallID,
			"output":  encodeToolResult(p.Result),
		})
	}
	return items
}

// encodeToolResult serializes a decoded tool result back to its wire form.
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

// convertToResponsesTools converts library tools to Responses tool entries.
func convertToResponsesTools(tools []llmstream.Tool) ([]interface{}, error) {
	result := make([]interface{}, 0, len(tools))

	for i, tool := range tools {
		if err := tool.Validate(); err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}

		switch tool.Type {
		case llmstream.ToolTypeFunction:
			parameters := tool.Function.Parameters
			if parameters == nil {
				parameters = make(map[string]interface{})
			}
			entry := map[string]interface{}{
				"type":       "function",
				"name":       tool.Function.Name,
				"parameters": parameters,
			}
			if tool.Function.Description != "" {
				entry["description"] = tool.Function.Description
			}
			result = append(result, entry)

		default:
			// Server tools: the type plus any configured options
			entry := map[string]interface{}{"type": tool.Type}
			for k, v := range tool.Options {
				entry[k] = v
			}
			result = append(result, entry)
		}
	}

	return result, nil
}

// convertToolChoice converts library tool choice to Responses format.
func convertToolChoice(tc *llmstream.ToolChoice) interface{} {
	if tc == nil {
		return "auto"
	}

	switch tc.Mode {
	case llmstream.ToolChoiceModeAuto:
		return "auto"
	case llmstream.ToolChoiceModeRequired:
		return "required"
	case llmstream.ToolChoiceModeNone:
		return "none"
	case llmstream.ToolChoiceModeSpecific:
		if tc.ToolName == nil {
			return "auto"
		}
		return map[string]interface{}{
			"type": "function",
			"name": *tc.ToolName,
		}
	default:
		return "auto"
	}
}

// convertResponseFormat maps the library response format to text.format.
func convertResponseFormat(rf *llmstream.ResponseFormat) interface{} {
	switch rf.Type {
	case "json_object":
		return map[string]interface{}{"type": "json_object"}
	case "json_schema":
		return map[string]interface{}{
			"type":   "json_schema",
			"schema": rf.JSONSchema,
		}
	default:
		return map[string]interface{}{"type": "text"}
	}
}

// BuildResponsesRequestDebug builds the Responses request payload for
// debugging. It returns the exact JSON that would be sent, as a map for
// flexible inspection.
func BuildResponsesRequestDebug(req *llmstream.GenerateRequest) (map[string]interface{}, error) {
	apiReq, err := buildResponsesRequest(req)
	if err != nil {
		return nil, err
	}

	jsonBytes, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal responses request: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses request: %w", err)
	}

	return result, nil
}
