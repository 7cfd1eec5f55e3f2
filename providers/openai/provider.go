package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	llmstream "github.com/voralis/llmstream-go"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements the llmstream.Provider interface for the OpenAI
// Responses API. Streaming responses are consumed as SSE and mapped onto
// the provider-agnostic result model by a per-invocation state machine.
//
// Server tools (web_search, file_search, code_interpreter,
// image_generation) execute on the provider side; their progress is
// recorded as tool telemetry and their artifacts surface as data parts on
// the final aggregate.
type Provider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	session    bool
	fetcher    ContainerFileFetcher
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) { p.httpClient = client }
}

// WithBaseURL overrides the API base URL (for proxies and tests).
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithSessionPersistence enables continuation tokens on aggregate
// results. Pair with RequestParams.Store and PreviousResponseID.
func WithSessionPersistence(enabled bool) Option {
	return func(p *Provider) { p.session = enabled }
}

// WithContainerFileFetcher replaces the default container file fetcher.
func WithContainerFileFetcher(fetcher ContainerFileFetcher) Option {
	return func(p *Provider) { p.fetcher = fetcher }
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, llmstream.ErrInvalidAPIKey
	}

	p := &Provider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 300 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = p
	}

	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmstream.ProviderID {
	return llmstream.ProviderOpenAI
}

// SupportsModel returns true if this provider supports the given model.
// OpenAI model families: gpt-*, o-series reasoning models, codex.
func (p *Provider) SupportsModel(model string) bool {
	if model == "" {
		return false
	}
	prefixes := []string{"gpt-", "chatgpt-", "o1", "o3", "o4", "codex-", "computer-use"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// GenerateResponse generates a non-streaming response.
func (p *Provider) GenerateResponse(ctx context.Context, req *llmstream.GenerateRequest) (*llmstream.Response, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmstream.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by OpenAI",
			Err:      llmstream.ErrInvalidModel,
		}
	}

	apiReq, err := buildResponsesRequest(req)
	if err != nil {
		return nil, err
	}
	apiReq.Stream = false

	httpReq, err := p.buildHTTPRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var snap responseSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if snap.Status == statusFailed {
		failure := &llmstream.RequestFailedError{
			Provider: p.Name().String(),
			Message:  "response failed",
		}
		if snap.Error != nil {
			failure.Message = snap.Error.Message
			failure.Code = snap.Error.Code
			failure.Param = snap.Error.Param
		}
		return nil, failure
	}

	// Run the same finalization path as streaming; with no streamed text
	// the aggregate carries the full part list.
	m := newMachine(p.session, p.fetcher)
	final, err := m.finalize(ctx, &snap)
	if err != nil {
		return nil, err
	}

	acc := llmstream.NewResultAccumulator()
	acc.Add(*final)
	return acc.Response(), nil
}

// buildHTTPRequest creates an HTTP request for the Responses API.
func (p *Provider) buildHTTPRequest(ctx context.Context, req *responsesRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// handleErrorResponse parses error responses from the API.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
			Param   string `json:"param"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		// Fallback to plain text error
		return fmt.Errorf("openai error (HTTP %d): %s", resp.StatusCode, string(body))
	}

	// Map HTTP status codes to library errors
	switch resp.StatusCode {
	case 401:
		return llmstream.ErrInvalidAPIKey
	case 429:
		return &llmstream.ProviderError{
			Code:       llmstream.ErrorCodeRateLimited,
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
			Retryable:  true,
			Err:        llmstream.ErrRateLimited,
		}
	case 408:
		return &llmstream.ProviderError{
			Code:       llmstream.ErrorCodeTimeout,
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
			Retryable:  true,
			Err:        llmstream.ErrTimeout,
		}
	case 400, 404, 422:
		return &llmstream.ProviderError{
			Code:       llmstream.ErrorCodeInvalidRequest,
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
			Retryable:  false,
			Err:        llmstream.ErrInvalidRequest,
		}
	default:
		return &llmstream.ProviderError{
			Code:       llmstream.ErrorCodeProviderUnavailable,
			Provider:   p.Name().String(),
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
			Retryable:  resp.StatusCode >= 500,
			Err:        llmstream.ErrProviderUnavailable,
		}
	}
}

// FetchContainerFile is the default ContainerFileFetcher: it downloads a
// cited file from the containers content endpoint.
func (p *Provider) FetchContainerFile(ctx context.Context, containerID, fileID string) (*ContainerFile, error) {
	url := fmt.Sprintf("%s/containers/%s/files/%s/content", p.baseURL, containerID, fileID)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("container file download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read container file body: %w", err)
	}

	file := &ContainerFile{
		Bytes:    data,
		MimeType: resp.Header.Get("Content-Type"),
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, cdParams, err := mime.ParseMediaType(cd); err == nil {
			file.Filename = cdParams["filename"]
		}
	}

	return file, nil
}
