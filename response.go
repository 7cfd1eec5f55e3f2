package llmstream

// Response is the consolidated result of a generation, either returned
// directly by GenerateResponse or folded from a stream by ResultAccumulator.
type Response struct {
	// Output is the consolidated assistant message: the full visible
	// text plus message-level metadata.
	Output *Message

	// Messages contains the complete messages gathered during the
	// response (tool calls, attachments, and other non-text content).
	Messages []*Message

	// Metadata carries result-level data (response_id, model, status, ...).
	Metadata map[string]interface{}

	// Usage reports token consumption.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason FinishReason

	// Model is the model that served the request (may differ from the
	// request if aliased).
	Model string
}

// Text returns the consolidated visible text.
func (r *Response) Text() string {
	if r.Output == nil {
		return ""
	}
	return r.Output.Text()
}
