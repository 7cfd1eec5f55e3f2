package llmstream

import (
	"encoding/json"
	"fmt"
)

// RequestParams represents all possible LLM request parameters across providers.
// All fields are optional pointers to distinguish "not set" from "set to zero value".
type RequestParams struct {
	// ===== Core Parameters (Most Providers) =====

	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-1.0)
	// 0.0 = deterministic, 1.0 = maximum randomness
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff (0.0-1.0)
	TopP *float64 `json:"top_p,omitempty"`

	// TopK limits sampling to top K tokens
	TopK *int `json:"top_k,omitempty"`

	// Stop sequences - generation stops if any of these are generated
	Stop []string `json:"stop,omitempty"`

	// Seed for deterministic sampling (if supported by provider)
	Seed *int `json:"seed,omitempty"`

	// System prompt override
	System *string `json:"system,omitempty"`

	// ===== Reasoning Parameters =====

	// ThinkingEnabled enables extended thinking / reasoning summaries
	ThinkingEnabled *bool `json:"thinking_enabled,omitempty"`

	// ThinkingLevel sets the reasoning effort: "low", "medium", "high".
	// Anthropic maps this to a token budget, OpenAI to reasoning.effort.
	ThinkingLevel *string `json:"thinking_level,omitempty"`

	// ===== OpenAI Responses Parameters =====

	// Store asks the provider to persist the response server-side
	Store *bool `json:"store,omitempty"`

	// PreviousResponseID continues a stored server-side conversation
	PreviousResponseID *string `json:"previous_response_id,omitempty"`

	// Truncation strategy: "auto" or "disabled"
	Truncation *string `json:"truncation,omitempty"`

	// ServiceTier requests a processing tier ("auto", "default", "flex")
	ServiceTier *string `json:"service_tier,omitempty"`

	// User is an end-user identifier for abuse monitoring
	User *string `json:"user,omitempty"`

	// Metadata attaches provider-side key/value tags to the request
	Metadata map[string]string `json:"metadata,omitempty"`

	// ResponseFormat for structured outputs (JSON mode, etc.)
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// ===== Tool Parameters =====

	// Tools available for the model to use
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice controls whether/which tools to use
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`

	// ParallelToolCalls allows the model to request multiple tools at once
	ParallelToolCalls *bool `json:"parallel_tool_calls,omitempty"`
}

// ResponseFormat specifies the format for structured outputs
type ResponseFormat struct {
	Type       string      `json:"type"`                  // "text", "json_object", "json_schema"
	JSONSchema interface{} `json:"json_schema,omitempty"` // Schema for structured output
}

// ValidateRequestParams validates request parameters
func ValidateRequestParams(params *RequestParams) error {
	if params == nil {
		return nil // nil params is valid
	}

	// Validate ranges
	if params.Temperature != nil {
		if *params.Temperature < 0.0 || *params.Temperature > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f: %w", *params.Temperature, ErrInvalidRequest)
		}
	}

	if params.TopP != nil {
		if *params.TopP < 0.0 || *params.TopP > 1.0 {
			return fmt.Errorf("top_p must be between 0.0 and 1.0, got %f: %w", *params.TopP, ErrInvalidRequest)
		}
	}

	if params.TopK != nil {
		if *params.TopK < 0 {
			return fmt.Errorf("top_k must be non-negative, got %d: %w", *params.TopK, ErrInvalidRequest)
		}
	}

	if params.MaxTokens != nil {
		if *params.MaxTokens < 1 {
			return fmt.Errorf("max_tokens must be positive, got %d: %w", *params.MaxTokens, ErrInvalidRequest)
		}
	}

	if params.ThinkingLevel != nil {
		validLevels := map[string]bool{"low": true, "medium": true, "high": true}
		if !validLevels[*params.ThinkingLevel] {
			return fmt.Errorf("thinking_level must be 'low', 'medium', or 'high', got '%s': %w", *params.ThinkingLevel, ErrInvalidRequest)
		}
	}

	if params.Truncation != nil {
		if *params.Truncation != "auto" && *params.Truncation != "disabled" {
			return fmt.Errorf("truncation must be 'auto' or 'disabled', got '%s': %w", *params.Truncation, ErrInvalidRequest)
		}
	}

	if params.ToolChoice != nil {
		if err := params.ToolChoice.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// GetRequestParamStruct unmarshals a JSONB map into a typed RequestParams struct
func GetRequestParamStruct(params map[string]interface{}) (*RequestParams, error) {
	if params == nil {
		return &RequestParams{}, nil
	}

	jsonBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var rp RequestParams
	if err := json.Unmarshal(jsonBytes, &rp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	return &rp, nil
}

// GetMaxTokens returns max_tokens with default fallback
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// GetTemperature returns temperature with default fallback
func (rp *RequestParams) GetTemperature(defaultValue float64) float64 {
	if rp.Temperature != nil {
		return *rp.Temperature
	}
	return defaultValue
}

// GetThinkingBudgetTokens converts thinking_level to token budget
// low = 2000, medium = 5000, high = 12000
func (rp *RequestParams) GetThinkingBudgetTokens() int {
	if rp.ThinkingLevel == nil {
		return 0 // Thinking not enabled
	}

	switch *rp.ThinkingLevel {
	case "low":
		return 2000
	case "medium":
		return 5000
	case "high":
		return 12000
	default:
		return 0
	}
}
