package openai

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	llmstream "github.com/voralis/llmstream-go"
)

// maxEventBytes bounds a single SSE data line. Image generation partials
// carry whole base64 frames in one event.
const maxEventBytes = 32 * 1024 * 1024

// StreamResponse generates a streaming response from the Responses API.
// One goroutine per invocation reads the SSE body, feeds the state
// machine in wire order, and forwards results over a buffered channel.
func (p *Provider) StreamResponse(ctx context.Context, req *llmstream.GenerateRequest) (<-chan llmstream.StreamResult, error) {
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
	apiReq.Stream = true

	httpReq, err := p.buildHTTPRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.handleErrorResponse(resp)
	}

	results := make(chan llmstream.StreamResult, 10)

	go func() {
		defer close(results)
		defer resp.Body.Close()

		if err := p.streamEvents(ctx, resp.Body, results); err != nil {
			select {
			case results <- llmstream.StreamResult{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return results, nil
}

// streamEvents runs the SSE scan loop, feeding each decoded event to the
// machine and forwarding its results. Returns nil after the final
// aggregate has been emitted.
func (p *Provider) streamEvents(ctx context.Context, body io.Reader, results chan<- llmstream.StreamResult) error {
	machine := newMachine(p.session, p.fetcher)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}

		ev, err := decodeEvent([]byte(data))
		if err != nil {
			log.Printf("[OPENAI] dropping undecodable stream event: %v", err)
			continue
		}

		out, err := machine.Process(ctx, ev)
		if err != nil {
			return err
		}
		for _, res := range out {
			select {
			case results <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if machine.finalized() {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return fmt.Errorf("stream ended without a terminal event")
}
