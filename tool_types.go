package llmstream

import (
	"errors"
	"fmt"
)

// NewWebSearchTool creates a server-executed web search tool.
// The provider runs the search and streams telemetry events; the final
// message carries cited text.
func NewWebSearchTool() (*Tool, error) {
	tool := &Tool{Type: ToolTypeWebSearch}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create web search tool: %w", err)
	}

	return tool, nil
}

// NewFileSearchTool creates a server-executed file search tool over the
// given vector stores.
func NewFileSearchTool(vectorStoreIDs ...string) (*Tool, error) {
	tool := &Tool{Type: ToolTypeFileSearch}
	if len(vectorStoreIDs) > 0 {
		tool.Options = map[string]interface{}{
			"vector_store_ids": vectorStoreIDs,
		}
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create file search tool: %w", err)
	}

	return tool, nil
}

// NewCodeInterpreterTool creates a server-executed code interpreter tool.
// Files written by the interpreter surface as data parts on the final
// response.
func NewCodeInterpreterTool() (*Tool, error) {
	tool := &Tool{
		Type: ToolTypeCodeInterpreter,
		Options: map[string]interface{}{
			"container": map[string]interface{}{"type": "auto"},
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create code interpreter tool: %w", err)
	}

	return tool, nil
}

// NewImageGenerationTool creates a server-executed image generation tool.
// Progressive previews stream as telemetry; the finished image surfaces
// as a data part on the final response.
func NewImageGenerationTool() (*Tool, error) {
	tool := &Tool{
		Type: ToolTypeImageGeneration,
		Options: map[string]interface{}{
			"partial_images": 2,
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create image generation tool: %w", err)
	}

	return tool, nil
}

// NewLocalShellTool creates a local shell tool (consumer executes the
// commands the model requests).
func NewLocalShellTool() (*Tool, error) {
	tool := &Tool{Type: ToolTypeLocalShell}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create local shell tool: %w", err)
	}

	return tool, nil
}

// NewMCPTool creates a remote MCP server tool.
func NewMCPTool(serverLabel, serverURL string) (*Tool, error) {
	if serverLabel == "" {
		return nil, errors.New("mcp server label is required")
	}

	if serverURL == "" {
		return nil, errors.New("mcp server url is required")
	}

	tool := &Tool{
		Type: ToolTypeMCP,
		Options: map[string]interface{}{
			"server_label": serverLabel,
			"server_url":   serverURL,
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create mcp tool: %w", err)
	}

	return tool, nil
}

// NewFunctionTool creates a custom function tool following the universal
// function calling standard used by OpenAI, Anthropic, and Gemini.
//
// Parameters:
//   - name: Function name (required)
//   - description: What the function does (required)
//   - parameters: JSON Schema object defining function parameters (required)
//
// Example parameters:
//
//	map[string]interface{}{
//	  "type": "object",
//	  "properties": map[string]interface{}{
//	    "location": map[string]interface{}{
//	      "type": "string",
//	      "description": "The city and state, e.g. San Francisco, CA",
//	    },
//	    "unit": map[string]interface{}{
//	      "type": "string",
//	      "enum": []string{"celsius", "fahrenheit"},
//	    },
//	  },
//	  "required": []string{"location"},
//	}
func NewFunctionTool(name string, description string, parameters map[string]interface{}) (*Tool, error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}

	if description == "" {
		return nil, errors.New("tool description is required")
	}

	if parameters == nil {
		return nil, errors.New("parameters are required")
	}

	tool := &Tool{
		Type: ToolTypeFunction,
		Function: FunctionDetails{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create function tool: %w", err)
	}

	return tool, nil
}
