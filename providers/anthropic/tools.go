package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	llmstream "github.com/voralis/llmstream-go"
)

// convertToolsToAnthropicTools converts library Tool format to Anthropic SDK format.
// This function knows the Anthropic API format and hardcodes the mappings.
func convertToolsToAnthropicTools(tools []llmstream.Tool) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	result := make([]anthropic.ToolUnionParam, 0, len(tools))

	for i, tool := range tools {
		var anthropicTool anthropic.ToolUnionParam
		var err error

		switch tool.Type {
		case llmstream.ToolTypeWebSearch:
			anthropicTool = convertWebSearchTool()

		case llmstream.ToolTypeFunction:
			// Some function names map to Anthropic's built-in client tools
			switch tool.Function.Name {
			case "text_editor":
				anthropicTool = convertTextEditorTool()
			case "bash":
				anthropicTool = convertBashTool()
			default:
				anthropicTool, err = convertCustomTool(&tool)
			}

		default:
			// file_search, code_interpreter, image_generation, local_shell
			// and mcp are OpenAI-hosted tools with no Anthropic equivalent
			err = fmt.Errorf("tool type '%s' not supported by Anthropic: %w",
				tool.Type, llmstream.ErrUnsupportedFeature)
		}

		if err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}

		result = append(result, anthropicTool)
	}

	return result, nil
}

// convertWebSearchTool builds the Anthropic server-side web search tool.
// https://docs.anthropic.com/en/docs/build-with-claude/web-search
func convertWebSearchTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
			// Name and Type have default values and will auto-marshal
			// Future: Add MaxUses, AllowedDomains, BlockedDomains, UserLocation when supported
		},
	}
}

// convertTextEditorTool builds the Anthropic client-side text editor tool.
// https://docs.anthropic.com/en/docs/build-with-claude/edit-code
func convertTextEditorTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTextEditor20250728: &anthropic.ToolTextEditor20250728Param{
			// Name and Type have default values and will auto-marshal
		},
	}
}

// convertBashTool builds the Anthropic client-side bash tool.
// https://docs.anthropic.com/en/docs/build-with-claude/computer-use
func convertBashTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfBashTool20250124: &anthropic.ToolBash20250124Param{
			// Name and Type have default values and will auto-marshal
		},
	}
}

// convertCustomTool converts a custom function tool to Anthropic format.
// Converts the flat JSON schema (tool.Function.Parameters) into Anthropic's
// input_schema structure.
func convertCustomTool(tool *llmstream.Tool) (anthropic.ToolUnionParam, error) {
	if tool.Function.Name == "" {
		return anthropic.ToolUnionParam{}, fmt.Errorf("function tool requires a name")
	}

	// Anthropic format needs:
	// - Type: "object"
	// - Properties: just the properties object (not full schema)
	// - ExtraFields: other schema fields like "required"
	properties := tool.Function.Parameters["properties"]

	// Type can be elided (zero value) - it will marshal as "object"
	schema := anthropic.ToolInputSchemaParam{
		Properties:  properties,
		ExtraFields: make(map[string]any),
	}

	if required, ok := tool.Function.Parameters["required"].([]interface{}); ok {
		schema.Required = make([]string, len(required))
		for i, v := range required {
			if str, ok := v.(string); ok {
				schema.Required[i] = str
			}
		}
	}

	// Copy other fields (additionalProperties, etc.) to ExtraFields
	for key, value := range tool.Function.Parameters {
		if key != "type" && key != "properties" && key != "required" {
			schema.ExtraFields[key] = value
		}
	}

	toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Function.Name)

	if tool.Function.Description != "" {
		if toolParam.OfTool == nil {
			toolParam.OfTool = &anthropic.ToolParam{}
		}
		toolParam.OfTool.Description = anthropic.String(tool.Function.Description)
	}

	return toolParam, nil
}

// convertToolChoice converts library ToolChoice to Anthropic format.
// Returns nil if no tool choice specified (lets provider decide).
func convertToolChoice(choice *llmstream.ToolChoice) (*anthropic.ToolChoiceUnionParam, error) {
	if choice == nil {
		return nil, nil
	}

	if err := choice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool choice: %w", err)
	}

	switch choice.Mode {
	case llmstream.ToolChoiceModeAuto:
		return &anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{},
		}, nil

	case llmstream.ToolChoiceModeRequired:
		// Anthropic calls this "any"
		return &anthropic.ToolChoiceUnionParam{
			OfAny: &anthropic.ToolChoiceAnyParam{},
		}, nil

	case llmstream.ToolChoiceModeNone:
		noneParam := anthropic.NewToolChoiceNoneParam()
		return &anthropic.ToolChoiceUnionParam{
			OfNone: &noneParam,
		}, nil

	case llmstream.ToolChoiceModeSpecific:
		if choice.ToolName == nil || *choice.ToolName == "" {
			return nil, fmt.Errorf("tool_name required for specific mode")
		}
		unionParam := anthropic.ToolChoiceParamOfTool(*choice.ToolName)
		return &unionParam, nil

	default:
		return nil, fmt.Errorf("unsupported tool choice mode: %s", choice.Mode)
	}
}
