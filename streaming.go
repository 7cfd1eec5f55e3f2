package llmstream

// FinishReason indicates why the provider stopped generating.
type FinishReason string

const (
	// FinishReasonStop means generation completed normally.
	FinishReasonStop FinishReason = "stop"

	// FinishReasonLength means the output token limit was reached.
	FinishReasonLength FinishReason = "length"

	// FinishReasonContentFilter means the provider's content filter
	// truncated the response.
	FinishReasonContentFilter FinishReason = "content_filter"

	// FinishReasonUnspecified means the provider reported a status this
	// library does not recognize.
	FinishReasonUnspecified FinishReason = "unspecified"
)

// Stable metadata keys emitted by provider adapters.
//
// Result-level keys appear in StreamResult.Metadata; message-level keys
// appear in Message.Metadata on aggregate output messages. Consumers may
// rely on these names across releases.
const (
	// MetadataKeyThinking carries reasoning/thinking text. On partial
	// results the value is a single delta; on aggregate messages it is
	// the full concatenated transcript.
	MetadataKeyThinking = "thinking"

	// MetadataKeyResponseID is the provider's response identifier.
	MetadataKeyResponseID = "response_id"

	// MetadataKeyModel is the model that served the request.
	MetadataKeyModel = "model"

	// MetadataKeyStatus is the provider's terminal response status.
	MetadataKeyStatus = "status"

	// MetadataKeyContainerID identifies the code-execution container
	// observed during the response, when any.
	MetadataKeyContainerID = "container_id"

	// MetadataKeySession carries an opaque continuation token for
	// providers with server-side conversation persistence.
	MetadataKeySession = "session"

	// Tool telemetry log keys. Values are ordered slices of decoded
	// event records for the named tool.
	MetadataKeyWebSearch       = "web_search"
	MetadataKeyFileSearch      = "file_search"
	MetadataKeyImageGeneration = "image_generation"
	MetadataKeyCodeInterpreter = "code_interpreter"
	MetadataKeyLocalShell      = "local_shell"
	MetadataKeyMCP             = "mcp"
)

// TokenUsage reports token consumption for a response.
type TokenUsage struct {
	// InputTokens is the number of tokens in the input
	InputTokens int `json:"input_tokens"`

	// OutputTokens is the number of tokens in the output
	OutputTokens int `json:"output_tokens"`

	// TotalTokens is the provider-reported total
	TotalTokens int `json:"total_tokens"`
}

// StreamResult is a single result on a response stream. A stream consists
// of zero or more partial results followed by exactly one final aggregate
// (Final == true), or an error result (Err != nil) and nothing after it.
//
// Partial results carry either streamed text (Output with one text part)
// or metadata-only updates (thinking deltas, tool progress). The final
// aggregate carries the reconciled output message, any complete messages,
// usage, and the finish reason.
//
// Invariant: concatenating the text of Output across every result on the
// stream yields the model's visible text exactly once. When text was
// streamed incrementally, the final aggregate's Output therefore carries
// no text parts.
type StreamResult struct {
	// Output is the message content of this result (nil for
	// metadata-only partials).
	Output *Message

	// Messages contains complete standalone messages. Populated on the
	// final aggregate when non-text content must be preserved alongside
	// already-streamed text.
	Messages []*Message

	// Metadata carries result-level key/value data (see metadata keys).
	Metadata map[string]interface{}

	// Usage reports token consumption (final aggregate only).
	Usage *TokenUsage

	// FinishReason indicates why generation stopped (final aggregate only).
	FinishReason FinishReason

	// Final is true on exactly one result per successful stream.
	Final bool

	// Err terminates the stream; no final aggregate follows it.
	Err error
}
