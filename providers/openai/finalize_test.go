package openai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmstream "github.com/voralis/llmstream-go"
)

func TestFinalize_NilSnapshot(t *testing.T) {
	m := newMachine(false, nil)

	_, err := m.finalize(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, m.finalized())
}

func TestFinalize_URLCitations(t *testing.T) {
	m := newMachine(false, nil)

	snap := &responseSnapshot{
		ID:     "resp_1",
		Model:  "gpt-5-mini",
		Status: statusCompleted,
		Output: []json.RawMessage{
			json.RawMessage(`{"type":"message","id":"msg_1","role":"assistant","content":[{"type":"output_text","text":"See the docs.","annotations":[{"type":"url_citation","url":"https://example.com/docs","title":"Docs","start_index":4,"end_index":12}]}]}`),
		},
	}

	res, err := m.finalize(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, res.Output.Parts, 1)
	part := res.Output.Parts[0]
	assert.Equal(t, "See the docs.", part.Text)

	require.Len(t, part.Citations, 1)
	cite := part.Citations[0]
	assert.Equal(t, "url_citation", cite.Type)
	assert.Equal(t, "https://example.com/docs", cite.URL)
	assert.Equal(t, "Docs", cite.Title)
	require.NotNil(t, cite.StartIndex)
	assert.Equal(t, 4, *cite.StartIndex)
	require.NotNil(t, cite.EndIndex)
	assert.Equal(t, 12, *cite.EndIndex)
}

func TestFinalize_ContainerFileCitations(t *testing.T) {
	fetcher := &fakeFetcher{}
	m := newMachine(false, fetcher)

	snap := &responseSnapshot{
		ID:     "resp_1",
		Status: statusCompleted,
		Output: []json.RawMessage{
			// The same file cited twice downloads once.
			json.RawMessage(`{"type":"message","id":"msg_1","role":"assistant","content":[{"type":"output_text","text":"chart","annotations":[{"type":"container_file_citation","container_id":"cntr_1","file_id":"file_1"},{"type":"container_file_citation","container_id":"cntr_1","file_id":"file_1"}]}]}`),
		},
	}

	res, err := m.finalize(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)

	var dataParts []*llmstream.Part
	for _, p := range res.Output.Parts {
		if p.IsData() {
			dataParts = append(dataParts, p)
		}
	}
	require.Len(t, dataParts, 1)
	assert.Equal(t, []byte("file-bytes"), dataParts[0].Data)
	assert.Equal(t, "file_1", dataParts[0].Name)
}

func TestFinalize_FunctionCallOutputItem(t *testing.T) {
	m := newMachine(false, nil)

	snap := &responseSnapshot{
		ID:     "resp_1",
		Status: statusCompleted,
		Output: []json.RawMessage{
			json.RawMessage(`{"type":"function_call_output","call_id":"call_1","output":"{\"temp\":21}"}`),
		},
	}

	res, err := m.finalize(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, res.Output.Parts, 1)
	part := res.Output.Parts[0]
	require.True(t, part.IsToolResult())
	assert.Equal(t, "call_1", part.ToolCallID)
	assert.Equal(t, map[string]interface{}{"temp": float64(21)}, part.Result)
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		name string
		snap responseSnapshot
		want llmstream.FinishReason
	}{
		{
			name: "completed",
			snap: responseSnapshot{Status: statusCompleted},
			want: llmstream.FinishReasonStop,
		},
		{
			name: "incomplete max tokens",
			snap: responseSnapshot{Status: statusIncomplete, IncompleteDetails: &incompleteDetails{Reason: incompleteMaxOutputTokens}},
			want: llmstream.FinishReasonLength,
		},
		{
			name: "incomplete content filter",
			snap: responseSnapshot{Status: statusIncomplete, IncompleteDetails: &incompleteDetails{Reason: incompleteContentFilter}},
			want: llmstream.FinishReasonContentFilter,
		},
		{
			name: "incomplete without details",
			snap: responseSnapshot{Status: statusIncomplete},
			want: llmstream.FinishReasonUnspecified,
		},
		{
			name: "unknown status",
			snap: responseSnapshot{Status: "cancelled"},
			want: llmstream.FinishReasonUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapFinishReason(&tt.snap))
		})
	}
}

func TestDecodeToolArguments(t *testing.T) {
	assert.Equal(t, map[string]interface{}{}, decodeToolArguments(""))

	assert.Equal(t,
		map[string]interface{}{"city": "Paris"},
		decodeToolArguments(`{"city":"Paris"}`))

	// Non-object payloads are preserved rather than dropped.
	assert.Equal(t,
		map[string]interface{}{"value": "not json"},
		decodeToolArguments("not json"))
}

func TestContinuationToken_RoundTrip(t *testing.T) {
	encoded, err := encodeContinuationToken("resp_abc")
	require.NoError(t, err)

	token, err := DecodeContinuationToken(encoded)
	require.NoError(t, err)
	assert.Equal(t, "resp_abc", token.ResponseID)
}

func TestDecodeContinuationToken_Errors(t *testing.T) {
	_, err := DecodeContinuationToken("{broken")
	assert.Error(t, err)

	_, err = DecodeContinuationToken("{}")
	assert.Error(t, err)
}

func TestWithoutTextParts(t *testing.T) {
	text := llmstream.NewTextPart("hello")
	call := llmstream.NewToolCallPart("call_1", "lookup", nil)
	data := llmstream.NewDataPart([]byte{1, 2}, "application/octet-stream", "blob")

	out := withoutTextParts([]*llmstream.Part{text, call, nil, data})
	require.Len(t, out, 2)
	assert.Same(t, call, out[0])
	assert.Same(t, data, out[1])
}
