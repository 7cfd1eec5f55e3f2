package openai

import (
	"encoding/json"
	"fmt"
)

// Responses API stream event types consumed by the handler chain.
// Sub-events not named here are matched by prefix and either absorbed or
// recorded as tool telemetry.
const (
	eventError              = "error"
	eventResponseCompleted  = "response.completed"
	eventResponseFailed     = "response.failed"
	eventResponseIncomplete = "response.incomplete"

	eventResponseCreated    = "response.created"
	eventResponseInProgress = "response.in_progress"
	eventResponseQueued     = "response.queued"

	eventOutputItemAdded = "response.output_item.added"
	eventOutputItemDone  = "response.output_item.done"

	eventFunctionArgsDelta = "response.function_call_arguments.delta"
	eventFunctionArgsDone  = "response.function_call_arguments.done"

	eventOutputTextDelta = "response.output_text.delta"

	eventReasoningSummaryTextDelta = "response.reasoning_summary_text.delta"

	eventImagePartial  = "response.image_generation_call.partial_image"
	eventCodeDelta     = "response.code_interpreter_call_code.delta"
	eventCodeDone      = "response.code_interpreter_call_code.done"
	eventContentPart   = "response.content_part."
	eventOutputTextAny = "response.output_text."
	eventReasoningAny  = "response.reasoning"
)

// Output item types appearing in output_item events and response snapshots.
const (
	itemTypeMessage            = "message"
	itemTypeFunctionCall       = "function_call"
	itemTypeFunctionCallOutput = "function_call_output"
	itemTypeReasoning          = "reasoning"
	itemTypeImageGeneration    = "image_generation_call"
	itemTypeCodeInterpreter    = "code_interpreter_call"
	itemTypeWebSearch          = "web_search_call"
	itemTypeFileSearch         = "file_search_call"
	itemTypeLocalShell         = "local_shell_call"
	itemTypeMCPCall            = "mcp_call"
	itemTypeMCPListTools       = "mcp_list_tools"
)

// wireEvent is the decoded form of one SSE payload. Fields are a superset
// across event types; only the ones relevant to each type are populated.
// The raw payload is retained for telemetry logging.
type wireEvent struct {
	Type         string `json:"type"`
	OutputIndex  int64  `json:"output_index"`
	ItemID       string `json:"item_id"`
	ContentIndex int64  `json:"content_index"`
	SummaryIndex int64  `json:"summary_index"`

	// Delta payloads
	Delta     string `json:"delta"`
	Text      string `json:"text"`
	Arguments string `json:"arguments"`
	Code      string `json:"code"`

	// error events
	Message string `json:"message"`
	Param   string `json:"param"`

	// image_generation partials
	PartialImageB64   string `json:"partial_image_b64"`
	PartialImageIndex int64  `json:"partial_image_index"`

	// output_item events
	Item json.RawMessage `json:"item"`

	// terminal events
	Response *responseSnapshot `json:"response"`

	raw []byte
}

// decodeEvent parses one SSE data payload into a wireEvent, preserving the
// raw bytes.
func decodeEvent(data []byte) (*wireEvent, error) {
	var ev wireEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("malformed stream event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("stream event missing type")
	}
	ev.raw = append([]byte(nil), data...)
	return &ev, nil
}

// outputItem is an output item snapshot from output_item events or the
// terminal response snapshot.
type outputItem struct {
	Type        string                  `json:"type"`
	ID          string                  `json:"id"`
	Status      string                  `json:"status"`
	Role        string                  `json:"role"`
	Content     []contentPart           `json:"content"`
	CallID      string                  `json:"call_id"`
	Name        string                  `json:"name"`
	Arguments   string                  `json:"arguments"`
	Output      string                  `json:"output"`
	Result      string                  `json:"result"`
	ContainerID string                  `json:"container_id"`
	Outputs     []codeInterpreterOutput `json:"outputs"`

	raw json.RawMessage
}

// decodeItem parses an output item snapshot, preserving the raw bytes.
func decodeItem(data json.RawMessage) (*outputItem, error) {
	var item outputItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("malformed output item: %w", err)
	}
	if item.Type == "" {
		return nil, fmt.Errorf("output item missing type")
	}
	item.raw = append(json.RawMessage(nil), data...)
	return &item, nil
}

// contentPart is one content entry of an output message item.
type contentPart struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []annotation `json:"annotations"`
}

// annotation is a citation attached to output text.
type annotation struct {
	Type        string `json:"type"`
	ContainerID string `json:"container_id"`
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	StartIndex  int    `json:"start_index"`
	EndIndex    int    `json:"end_index"`
}

const (
	annotationContainerFile = "container_file_citation"
	annotationURL           = "url_citation"
)

// codeInterpreterOutput is one output entry of a code_interpreter_call item.
type codeInterpreterOutput struct {
	Type  string                `json:"type"`
	Logs  string                `json:"logs"`
	Files []codeInterpreterFile `json:"files"`
}

type codeInterpreterFile struct {
	FileID   string `json:"file_id"`
	MimeType string `json:"mime_type"`
}

// responseSnapshot is the Response object carried by terminal events (and
// returned whole by the non-streaming endpoint).
type responseSnapshot struct {
	ID                string             `json:"id"`
	Model             string             `json:"model"`
	Status            string             `json:"status"`
	Output            []json.RawMessage  `json:"output"`
	Usage             *wireUsage         `json:"usage"`
	IncompleteDetails *incompleteDetails `json:"incomplete_details"`
	Error             *wireError         `json:"error"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type incompleteDetails struct {
	Reason string `json:"reason"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

// Response statuses and incomplete reasons used for finish-reason mapping.
const (
	statusCompleted  = "completed"
	statusIncomplete = "incomplete"
	statusFailed     = "failed"

	incompleteMaxOutputTokens = "max_output_tokens"
	incompleteContentFilter   = "content_filter"
)
