package llmstream

// GenerateRequest contains the parameters for an LLM generation request.
type GenerateRequest struct {
	// Messages contains the conversation history.
	// Each message has a Role (user/assistant/system/tool) and Parts.
	Messages []Message

	// Model is the model identifier (e.g., "gpt-5.2", "claude-haiku-4-5-20251001")
	Model string

	// Params contains all request parameters (temperature, max_tokens,
	// reasoning settings, tools, session options, etc.)
	// Provider adapters extract what they support from this unified struct.
	Params *RequestParams
}
