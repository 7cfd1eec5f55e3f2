package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	llmstream "github.com/voralis/llmstream-go"
)

func TestConvertToAnthropicMessages_Text(t *testing.T) {
	messages := []llmstream.Message{
		llmstream.NewUserMessage("Hello, world!"),
	}

	result, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if string(result[0].Role) != "user" {
		t.Errorf("expected role user, got %s", result[0].Role)
	}
}

func TestConvertToAnthropicMessages_SystemSkipped(t *testing.T) {
	messages := []llmstream.Message{
		{
			Role:  llmstream.RoleSystem,
			Parts: []*llmstream.Part{llmstream.NewTextPart("You are helpful.")},
		},
		llmstream.NewUserMessage("Hi"),
	}

	result, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}

	// System messages are carried via params.System, not the message list
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
}

func TestConvertToAnthropicMessages_ToolCall(t *testing.T) {
	messages := []llmstream.Message{
		{
			Role: llmstream.RoleAssistant,
			Parts: []*llmstream.Part{
				llmstream.NewToolCallPart("toolu_123", "web_search", map[string]interface{}{
					"query": "weather in Paris",
				}),
			},
		},
	}

	result, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if string(result[0].Role) != "assistant" {
		t.Errorf("expected role assistant, got %s", result[0].Role)
	}
}

func TestConvertToAnthropicMessages_ToolResult(t *testing.T) {
	messages := []llmstream.Message{
		{
			Role: llmstream.RoleTool,
			Parts: []*llmstream.Part{
				llmstream.NewToolResultPart("toolu_123", "web_search", "Weather is sunny, 25C"),
			},
		},
	}

	result, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	// Tool results go back as user turns
	if string(result[0].Role) != "user" {
		t.Errorf("expected role user, got %s", result[0].Role)
	}
}

func TestConvertToAnthropicMessages_ToolCall_MissingID(t *testing.T) {
	messages := []llmstream.Message{
		{
			Role: llmstream.RoleAssistant,
			Parts: []*llmstream.Part{
				{
					PartType:  llmstream.PartTypeToolCall,
					ToolName:  "web_search",
					Arguments: map[string]interface{}{},
				},
			},
		},
	}

	_, err := convertToAnthropicMessages(messages)
	if err == nil {
		t.Error("expected error for missing tool call id, got nil")
	}
}

func TestConvertToAnthropicMessages_ToolResult_MissingID(t *testing.T) {
	messages := []llmstream.Message{
		{
			Role: llmstream.RoleTool,
			Parts: []*llmstream.Part{
				{
					PartType: llmstream.PartTypeToolResult,
					Result:   "result",
				},
			},
		},
	}

	_, err := convertToAnthropicMessages(messages)
	if err == nil {
		t.Error("expected error for missing tool call id, got nil")
	}
}

func TestConvertToAnthropicMessages_EmptyMessageDropped(t *testing.T) {
	messages := []llmstream.Message{
		{
			Role: llmstream.RoleAssistant,
			Parts: []*llmstream.Part{
				llmstream.NewDataPart([]byte{0x89, 0x50}, "image/png", "chart.png"),
			},
		},
		llmstream.NewUserMessage("next question"),
	}

	result, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}

	// Data parts are not replayable; a message left with no blocks is dropped
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
}

func TestEncodeToolResult(t *testing.T) {
	tests := []struct {
		name   string
		result interface{}
		want   string
	}{
		{"string passthrough", "plain text", "plain text"},
		{"object serialized", map[string]interface{}{"ok": true}, `{"ok":true}`},
		{"number serialized", float64(42), "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeToolResult(tt.result); got != tt.want {
				t.Errorf("encodeToolResult() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeToolInput(t *testing.T) {
	tests := []struct {
		name    string
		input   json.RawMessage
		wantKey string
		want    interface{}
	}{
		{"object", json.RawMessage(`{"query":"test"}`), "query", "test"},
		{"non-object wrapped", json.RawMessage(`"bare string"`), "value", `"bare string"`},
		{"malformed wrapped", json.RawMessage(`{broken`), "value", "{broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeToolInput(tt.input)
			if got[tt.wantKey] != tt.want {
				t.Errorf("decodeToolInput()[%q] = %v, want %v", tt.wantKey, got[tt.wantKey], tt.want)
			}
		})
	}
}

func TestDecodeToolInput_Empty(t *testing.T) {
	got := decodeToolInput(nil)
	if got == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestMapStopReason(t *testing.T) {
	tests := []struct {
		reason anthropic.StopReason
		want   llmstream.FinishReason
	}{
		{anthropic.StopReasonEndTurn, llmstream.FinishReasonStop},
		{anthropic.StopReasonStopSequence, llmstream.FinishReasonStop},
		{anthropic.StopReasonToolUse, llmstream.FinishReasonStop},
		{anthropic.StopReasonMaxTokens, llmstream.FinishReasonLength},
		{anthropic.StopReasonRefusal, llmstream.FinishReasonContentFilter},
		{anthropic.StopReason("something_new"), llmstream.FinishReasonUnspecified},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := mapStopReason(tt.reason); got != tt.want {
				t.Errorf("mapStopReason(%q) = %q, want %q", tt.reason, got, tt.want)
			}
		})
	}
}
