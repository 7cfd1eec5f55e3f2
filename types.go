package llmstream

import (
	"encoding/json"
	"strings"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Part type constants
const (
	PartTypeText       = "text"        // Visible model text
	PartTypeData       = "data"        // Binary payload (generated images, container files)
	PartTypeLink       = "link"        // URL reference with optional title
	PartTypeToolCall   = "tool_call"   // Model-requested tool invocation
	PartTypeToolResult = "tool_result" // Result returned for a tool invocation
)

// Citation represents a reference from text content to an external source.
//
// Provider mappings:
// - OpenAI Responses: annotations[] → Citation (url_citation)
// - Anthropic: text.citations[] → Citation (web_search_result_location)
type Citation struct {
	// Type indicates the citation type
	// Values: "url_citation", "web_search_result"
	Type string `json:"type"`

	// URL is the cited resource URL
	URL string `json:"url"`

	// Title is the page/resource title
	Title string `json:"title"`

	// StartIndex is the character position in Text where the citation starts (optional)
	StartIndex *int `json:"start_index,omitempty"`

	// EndIndex is the character position in Text where the citation ends (optional)
	EndIndex *int `json:"end_index,omitempty"`

	// CitedText is the exact text that was cited (optional)
	CitedText *string `json:"cited_text,omitempty"`

	// ProviderData stores provider-specific citation data
	ProviderData json.RawMessage `json:"provider_data,omitempty"`
}

// Part is a single piece of message content. The PartType discriminator
// selects which fields are meaningful:
//
//   - text:        Text (plus optional Citations)
//   - data:        Data, MimeType, Name
//   - link:        URL, Title
//   - tool_call:   ToolCallID, ToolName, Arguments
//   - tool_result: ToolCallID, ToolName, Result
//
// Parts are provider-agnostic; adapters translate them to and from each
// vendor's content shapes.
type Part struct {
	// PartType indicates the type of part
	// Values: "text", "data", "link", "tool_call", "tool_result"
	PartType string `json:"part_type"`

	// Text contains the text for text parts
	Text string `json:"text,omitempty"`

	// Data contains the raw bytes for data parts
	Data []byte `json:"data,omitempty"`

	// MimeType is the sniffed or declared media type of Data
	MimeType string `json:"mime_type,omitempty"`

	// Name is a human-readable filename for data parts
	Name string `json:"name,omitempty"`

	// URL is the target of a link part
	URL string `json:"url,omitempty"`

	// Title is the display title of a link part
	Title string `json:"title,omitempty"`

	// ToolCallID correlates a tool_call with its tool_result
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName is the invoked tool's name
	ToolName string `json:"tool_name,omitempty"`

	// Arguments contains the decoded tool-call arguments.
	// When the wire payload is not a JSON object the raw string is
	// preserved under the "value" key.
	Arguments map[string]interface{} `json:"arguments,omitempty"`

	// Result contains the decoded tool result. Falls back to the raw
	// string when the payload is not valid JSON.
	Result interface{} `json:"result,omitempty"`

	// Citations contains references to external sources (text parts)
	Citations []Citation `json:"citations,omitempty"`

	// ProviderData stores raw provider-specific content that does not
	// map cleanly onto the normalized fields.
	ProviderData json.RawMessage `json:"provider_data,omitempty"`
}

// NewTextPart creates a text part.
func NewTextPart(text string) *Part {
	return &Part{PartType: PartTypeText, Text: text}
}

// NewDataPart creates a binary data part.
func NewDataPart(data []byte, mimeType, name string) *Part {
	return &Part{PartType: PartTypeData, Data: data, MimeType: mimeType, Name: name}
}

// NewLinkPart creates a link part.
func NewLinkPart(url, title string) *Part {
	return &Part{PartType: PartTypeLink, URL: url, Title: title}
}

// NewToolCallPart creates a tool_call part.
func NewToolCallPart(id, name string, arguments map[string]interface{}) *Part {
	return &Part{PartType: PartTypeToolCall, ToolCallID: id, ToolName: name, Arguments: arguments}
}

// NewToolResultPart creates a tool_result part.
func NewToolResultPart(id, name string, result interface{}) *Part {
	return &Part{PartType: PartTypeToolResult, ToolCallID: id, ToolName: name, Result: result}
}

// IsText returns true if this is a text part
func (p *Part) IsText() bool { return p.PartType == PartTypeText }

// IsData returns true if this is a data part
func (p *Part) IsData() bool { return p.PartType == PartTypeData }

// IsLink returns true if this is a link part
func (p *Part) IsLink() bool { return p.PartType == PartTypeLink }

// IsToolCall returns true if this is a tool_call part
func (p *Part) IsToolCall() bool { return p.PartType == PartTypeToolCall }

// IsToolResult returns true if this is a tool_result part
func (p *Part) IsToolResult() bool { return p.PartType == PartTypeToolResult }

// Message represents a single message: a role, an ordered list of parts,
// and message-level metadata (thinking transcripts, tool telemetry logs,
// session continuation tokens).
type Message struct {
	// Role is one of "user", "assistant", "system", "tool"
	Role string `json:"role"`

	// Parts is the ordered content of this message
	Parts []*Part `json:"parts"`

	// Metadata carries message-level key/value data. Keys emitted by
	// providers are listed in streaming.go.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewUserMessage creates a user message with a single text part.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []*Part{NewTextPart(text)}}
}

// NewAssistantMessage creates an assistant message with the given parts.
func NewAssistantMessage(parts ...*Part) Message {
	return Message{Role: RoleAssistant, Parts: parts}
}

// Text returns the concatenation of all text parts in order.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p != nil && p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// HasToolCalls returns true if any part is a tool_call.
func (m *Message) HasToolCalls() bool {
	for _, p := range m.Parts {
		if p != nil && p.IsToolCall() {
			return true
		}
	}
	return false
}

// ToolCalls returns all tool_call parts in order.
func (m *Message) ToolCalls() []*Part {
	var calls []*Part
	for _, p := range m.Parts {
		if p != nil && p.IsToolCall() {
			calls = append(calls, p)
		}
	}
	return calls
}

// SetMetadata sets a message-level metadata key, allocating the map if needed.
func (m *Message) SetMetadata(key string, value interface{}) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
}
