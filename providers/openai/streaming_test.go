package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmstream "github.com/voralis/llmstream-go"
)

// sseBody renders event payloads as an SSE response body.
func sseBody(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		fmt.Fprintf(&b, "data: %s\n\n", p)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, body)
	}))
}

func collectResults(t *testing.T, results <-chan llmstream.StreamResult) []llmstream.StreamResult {
	t.Helper()
	var all []llmstream.StreamResult
	for res := range results {
		all = append(all, res)
	}
	return all
}

func TestStreamResponse_EndToEnd(t *testing.T) {
	server := sseServer(t, sseBody(
		`{"type":"response.created","response":{"id":"resp_1","model":"gpt-5-mini","status":"in_progress"}}`,
		`{"type":"response.output_item.added","output_index":0,"item":{"type":"message","id":"msg_1","role":"assistant"}}`,
		`{"type":"response.output_text.delta","output_index":0,"item_id":"msg_1","delta":"Hello, "}`,
		`{"type":"response.output_text.delta","output_index":0,"item_id":"msg_1","delta":"world"}`,
		`{"type":"response.completed","response":{"id":"resp_1","model":"gpt-5-mini","status":"completed","output":[{"type":"message","id":"msg_1","role":"assistant","content":[{"type":"output_text","text":"Hello, world"}]}],"usage":{"input_tokens":5,"output_tokens":3,"total_tokens":8}}}`,
	))
	defer server.Close()

	provider, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := provider.StreamResponse(ctx, &llmstream.GenerateRequest{
		Model:    "gpt-5-mini",
		Messages: []llmstream.Message{llmstream.NewUserMessage("Hi")},
	})
	require.NoError(t, err)

	acc := llmstream.NewResultAccumulator()
	var finals int
	for _, res := range collectResults(t, results) {
		require.NoError(t, res.Err)
		if res.Final {
			finals++
		}
		acc.Add(res)
	}
	assert.Equal(t, 1, finals)

	resp := acc.Response()
	assert.Equal(t, "Hello, world", resp.Text())
	assert.Equal(t, "gpt-5-mini", resp.Model)
	assert.Equal(t, llmstream.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 8, resp.Usage.TotalTokens)

	// Streamed text is not duplicated on the aggregate output.
	for _, part := range resp.Output.Parts {
		assert.False(t, part.IsText())
	}
}

func TestStreamResponse_EndsWithoutTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"partial\"}\n\n")
	}))
	defer server.Close()

	provider, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	results, err := provider.StreamResponse(context.Background(), &llmstream.GenerateRequest{
		Model:    "gpt-5-mini",
		Messages: []llmstream.Message{llmstream.NewUserMessage("Hi")},
	})
	require.NoError(t, err)

	all := collectResults(t, results)
	require.NotEmpty(t, all)

	last := all[len(all)-1]
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "terminal")
}

func TestStreamResponse_UnsupportedModel(t *testing.T) {
	provider, err := NewProvider("test-key")
	require.NoError(t, err)

	_, err = provider.StreamResponse(context.Background(), &llmstream.GenerateRequest{
		Model:    "claude-sonnet-4-5",
		Messages: []llmstream.Message{llmstream.NewUserMessage("Hi")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llmstream.ErrInvalidModel))
}

func TestStreamResponse_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	provider, err := NewProvider("bad-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = provider.StreamResponse(context.Background(), &llmstream.GenerateRequest{
		Model:    "gpt-5-mini",
		Messages: []llmstream.Message{llmstream.NewUserMessage("Hi")},
	})
	require.Error(t, err)
	assert.True(t, llmstream.IsAuthError(err))
}

func TestGenerateResponse_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"resp_1","model":"gpt-5-mini","status":"completed","output":[{"type":"message","id":"msg_1","role":"assistant","content":[{"type":"output_text","text":"Four."}]}],"usage":{"input_tokens":9,"output_tokens":2,"total_tokens":11}}`)
	}))
	defer server.Close()

	provider, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := provider.GenerateResponse(context.Background(), &llmstream.GenerateRequest{
		Model:    "gpt-5-mini",
		Messages: []llmstream.Message{llmstream.NewUserMessage("What is 2+2?")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Four.", resp.Text())
	assert.Equal(t, llmstream.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 11, resp.Usage.TotalTokens)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "Four.", resp.Messages[0].Text())
}

func TestGenerateResponse_FailedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"resp_1","status":"failed","error":{"code":"invalid_prompt","message":"prompt rejected"}}`)
	}))
	defer server.Close()

	provider, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = provider.GenerateResponse(context.Background(), &llmstream.GenerateRequest{
		Model:    "gpt-5-mini",
		Messages: []llmstream.Message{llmstream.NewUserMessage("Hi")},
	})
	require.Error(t, err)

	var failed *llmstream.RequestFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "invalid_prompt", failed.Code)
}

func TestGenerateResponse_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, llmstream.ErrRateLimited))
				assert.True(t, llmstream.IsRetryable(err))
			},
		},
		{
			name:   "invalid request",
			status: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, llmstream.ErrInvalidRequest))
				assert.False(t, llmstream.IsRetryable(err))
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, llmstream.ErrProviderUnavailable))
				assert.True(t, llmstream.IsRetryable(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"type":"api_error","message":"nope"}}`)
			}))
			defer server.Close()

			provider, err := NewProvider("test-key", WithBaseURL(server.URL))
			require.NoError(t, err)

			_, err = provider.GenerateResponse(context.Background(), &llmstream.GenerateRequest{
				Model:    "gpt-5-mini",
				Messages: []llmstream.Message{llmstream.NewUserMessage("Hi")},
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFetchContainerFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/containers/cntr_1/files/file_1/content", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
		fmt.Fprint(w, "a,b\n1,2\n")
	}))
	defer server.Close()

	provider, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	file, err := provider.FetchContainerFile(context.Background(), "cntr_1", "file_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), file.Bytes)
	assert.Equal(t, "text/csv", file.MimeType)
	assert.Equal(t, "report.csv", file.Filename)
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider("")
	assert.True(t, errors.Is(err, llmstream.ErrInvalidAPIKey))
}

func TestSupportsModel(t *testing.T) {
	provider, err := NewProvider("test-key")
	require.NoError(t, err)

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-5.2", true},
		{"gpt-5-mini", true},
		{"chatgpt-4o-latest", true},
		{"o1", true},
		{"o3-mini", true},
		{"o4-mini", true},
		{"codex-mini-latest", true},
		{"computer-use-preview", true},
		{"claude-sonnet-4-5", false},
		{"lorem-fast", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, provider.SupportsModel(tt.model))
		})
	}
}
