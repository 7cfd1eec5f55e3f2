package llmstream

import "strings"

// ResultAccumulator folds a stream of StreamResult values into a single
// Response. The fold is intentionally simple so any consumer can replicate
// it: text concatenates, messages collect in order, metadata merges with
// last-value-wins except the thinking key, which concatenates.
//
// Usage:
//
//	acc := llmstream.NewResultAccumulator()
//	for res := range stream {
//	    if res.Err != nil {
//	        return res.Err
//	    }
//	    acc.Add(res)
//	}
//	resp := acc.Response()
type ResultAccumulator struct {
	text     strings.Builder
	thinking strings.Builder
	messages []*Message
	metadata map[string]interface{}
	usage    TokenUsage
	finish   FinishReason
	output   *Message // final aggregate's output, kept for message metadata
}

// NewResultAccumulator creates an empty accumulator.
func NewResultAccumulator() *ResultAccumulator {
	return &ResultAccumulator{
		metadata: make(map[string]interface{}),
	}
}

// Add folds one stream result into the accumulator. Error results should
// be handled by the caller before accumulation.
func (a *ResultAccumulator) Add(res StreamResult) {
	if res.Output != nil {
		for _, p := range res.Output.Parts {
			if p != nil && p.IsText() {
				a.text.WriteString(p.Text)
			}
		}
		if res.Final {
			a.output = res.Output
		}
	}

	a.messages = append(a.messages, res.Messages...)

	for k, v := range res.Metadata {
		if k == MetadataKeyThinking {
			if s, ok := v.(string); ok {
				a.thinking.WriteString(s)
				continue
			}
		}
		a.metadata[k] = v
	}

	if res.Usage != nil {
		a.usage = *res.Usage
	}
	if res.FinishReason != "" {
		a.finish = res.FinishReason
	}
}

// Text returns the text accumulated so far.
func (a *ResultAccumulator) Text() string {
	return a.text.String()
}

// Thinking returns the thinking text accumulated so far.
func (a *ResultAccumulator) Thinking() string {
	return a.thinking.String()
}

// Response assembles the consolidated response from everything added.
func (a *ResultAccumulator) Response() *Response {
	out := &Message{Role: RoleAssistant}
	if text := a.text.String(); text != "" {
		out.Parts = []*Part{NewTextPart(text)}
	}
	if a.output != nil && a.output.Metadata != nil {
		out.Metadata = a.output.Metadata
	}
	if thinking := a.thinking.String(); thinking != "" {
		a.metadata[MetadataKeyThinking] = thinking
	}

	model, _ := a.metadata[MetadataKeyModel].(string)

	return &Response{
		Output:       out,
		Messages:     a.messages,
		Metadata:     a.metadata,
		Usage:        a.usage,
		FinishReason: a.finish,
		Model:        model,
	}
}
