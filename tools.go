package llmstream

import (
	"errors"
	"fmt"
)

// Tool type constants (for unified tools array)
const (
	ToolTypeFunction        = "function"
	ToolTypeWebSearch       = "web_search"
	ToolTypeFileSearch      = "file_search"
	ToolTypeCodeInterpreter = "code_interpreter"
	ToolTypeImageGeneration = "image_generation"
	ToolTypeLocalShell      = "local_shell"
	ToolTypeMCP             = "mcp"
)

// ExecutionSide indicates where tool execution happens
type ExecutionSide string

const (
	ExecutionSideServer ExecutionSide = "server" // Provider executes tool
	ExecutionSideClient ExecutionSide = "client" // Consumer executes tool
)

// ToolChoiceMode controls tool selection behavior
type ToolChoiceMode string

const (
	ToolChoiceModeAuto     ToolChoiceMode = "auto"     // Model decides whether to use tools
	ToolChoiceModeRequired ToolChoiceMode = "required" // Model must use a tool
	ToolChoiceModeNone     ToolChoiceMode = "none"     // Model cannot use tools
	ToolChoiceModeSpecific ToolChoiceMode = "specific" // Model must use specific tool
)

// FunctionDetails represents the function definition within a tool.
// This matches the universal function-calling standard and converts
// cleanly to every provider's native shape.
type FunctionDetails struct {
	Name        string                 `json:"name"`                  // Function name (required)
	Description string                 `json:"description,omitempty"` // What the function does
	Parameters  map[string]interface{} `json:"parameters"`            // JSON Schema for parameters
}

// Tool represents a tool the model may use. Function tools carry a
// FunctionDetails schema and are executed by the consumer; server tools
// (web_search, file_search, code_interpreter, image_generation,
// local_shell, mcp) are executed by the provider and configured through
// Options.
//
// Provider mappings:
//   - OpenAI Responses: native tool entries per type
//   - Anthropic: function tools map to input_schema tools; server tools
//     map to the provider's server tool variants where available
type Tool struct {
	Type     string                 `json:"type"`              // One of the ToolType constants
	Function FunctionDetails        `json:"function"`          // Function definition (function tools only)
	Options  map[string]interface{} `json:"options,omitempty"` // Server tool configuration
}

// ExecutionSide reports where this tool executes.
func (t *Tool) ExecutionSide() ExecutionSide {
	if t.Type == ToolTypeFunction {
		return ExecutionSideClient
	}
	return ExecutionSideServer
}

// Validate checks if the Tool is properly configured
func (t *Tool) Validate() error {
	switch t.Type {
	case "":
		return errors.New("tool type is required")
	case ToolTypeFunction:
		if t.Function.Name == "" {
			return errors.New("function name is required")
		}
		if t.Function.Parameters == nil {
			return errors.New("function parameters are required")
		}
		// Validate that parameters is a valid JSON schema object
		if schemaType, ok := t.Function.Parameters["type"].(string); !ok || schemaType != "object" {
			return errors.New("function parameters must be a JSON schema with type 'object'")
		}
	case ToolTypeWebSearch, ToolTypeFileSearch, ToolTypeCodeInterpreter,
		ToolTypeImageGeneration, ToolTypeLocalShell:
		// Server tools carry optional configuration only
	case ToolTypeMCP:
		if t.Options["server_label"] == nil || t.Options["server_url"] == nil {
			return errors.New("mcp tool requires server_label and server_url options")
		}
	default:
		return fmt.Errorf("unsupported tool type: %s", t.Type)
	}

	return nil
}

// ToolChoice specifies tool selection behavior
type ToolChoice struct {
	Mode     ToolChoiceMode // Selection mode
	ToolName *string        // Required when Mode is ToolChoiceModeSpecific
}

// Validate checks if the ToolChoice is properly configured
func (tc *ToolChoice) Validate() error {
	if tc.Mode == ToolChoiceModeSpecific && tc.ToolName == nil {
		return errors.New("tool_name is required when mode is 'specific'")
	}

	if tc.Mode == ToolChoiceModeSpecific && *tc.ToolName == "" {
		return errors.New("tool_name cannot be empty when mode is 'specific'")
	}

	// Validate mode is one of the known values
	switch tc.Mode {
	case ToolChoiceModeAuto, ToolChoiceModeRequired, ToolChoiceModeNone, ToolChoiceModeSpecific:
		// Valid mode
	default:
		return fmt.Errorf("invalid tool choice mode: %s", tc.Mode)
	}

	return nil
}

// NewToolChoice creates a new ToolChoice with the specified mode
func NewToolChoice(mode ToolChoiceMode) (*ToolChoice, error) {
	tc := &ToolChoice{
		Mode: mode,
	}

	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool choice: %w", err)
	}

	return tc, nil
}

// NewSpecificToolChoice creates a ToolChoice for a specific tool
func NewSpecificToolChoice(toolName string) (*ToolChoice, error) {
	tc := &ToolChoice{
		Mode:     ToolChoiceModeSpecific,
		ToolName: &toolName,
	}

	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid specific tool choice: %w", err)
	}

	return tc, nil
}

// MapToolByName creates a built-in server tool from a user-friendly name.
//
// Supported names:
//   - "web_search", "search" → Web search tool
//   - "file_search" → File search tool
//   - "code_interpreter", "code_exec" → Code interpreter tool
//   - "image_generation", "image" → Image generation tool
//   - "local_shell", "shell" → Local shell tool
//
// Returns error if the name doesn't match any built-in tool.
func MapToolByName(name string) (*Tool, error) {
	switch name {
	case "web_search", "search":
		return NewWebSearchTool()
	case "file_search":
		return NewFileSearchTool()
	case "code_interpreter", "code_exec":
		return NewCodeInterpreterTool()
	case "image_generation", "image":
		return NewImageGenerationTool()
	case "local_shell", "shell":
		return NewLocalShellTool()
	default:
		return nil, fmt.Errorf("unknown built-in tool: %s", name)
	}
}
