package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	llmstream "github.com/voralis/llmstream-go"
)

// ContinuationToken is the decoded form of the session metadata value
// emitted when session persistence is enabled. Callers pass the response
// id back through RequestParams.PreviousResponseID to continue a stored
// conversation.
type ContinuationToken struct {
	ResponseID string `json:"response_id"`
}

// DecodeContinuationToken parses a session metadata value.
func DecodeContinuationToken(token string) (*ContinuationToken, error) {
	var t ContinuationToken
	if err := json.Unmarshal([]byte(token), &t); err != nil {
		return nil, fmt.Errorf("malformed continuation token: %w", err)
	}
	if t.ResponseID == "" {
		return nil, fmt.Errorf("continuation token missing response_id")
	}
	return &t, nil
}

func encodeContinuationToken(responseID string) (string, error) {
	b, err := json.Marshal(ContinuationToken{ResponseID: responseID})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// finalize builds the single final aggregate from the terminal response
// snapshot. It runs at most once per invocation; the phase gate in
// handleTerminal guarantees redelivered terminals cannot reach it again.
func (m *machine) finalize(ctx context.Context, snap *responseSnapshot) (*llmstream.StreamResult, error) {
	m.state.phase = phaseFinalized

	if snap == nil {
		return nil, fmt.Errorf("terminal event missing response snapshot")
	}

	var parts []*llmstream.Part
	for _, rawItem := range snap.Output {
		item, err := decodeItem(rawItem)
		if err != nil {
			log.Printf("[OPENAI] skipping malformed output item in final response: %v", err)
			continue
		}
		parts = append(parts, m.itemParts(item)...)
	}

	attachParts, err := m.attach.resolve(ctx, m.fetcher)
	if err != nil {
		return nil, err
	}
	parts = append(parts, attachParts...)

	msgMeta := m.messageMetadata(snap)
	resMeta := m.resultMetadata(snap)

	res := llmstream.StreamResult{
		Metadata:     resMeta,
		FinishReason: mapFinishReason(snap),
		Final:        true,
	}
	if snap.Usage != nil {
		res.Usage = &llmstream.TokenUsage{
			InputTokens:  snap.Usage.InputTokens,
			OutputTokens: snap.Usage.OutputTokens,
			TotalTokens:  snap.Usage.TotalTokens,
		}
	}

	// Reconciliation: text streamed incrementally must not be re-emitted
	// by the aggregate. When text was streamed the output carries only
	// metadata, and any non-text parts move to a standalone message.
	if m.state.hasStreamedText {
		res.Output = &llmstream.Message{Role: llmstream.RoleAssistant, Metadata: msgMeta}
		if nonText := withoutTextParts(parts); len(nonText) > 0 {
			res.Messages = []*llmstream.Message{{
				Role:     llmstream.RoleAssistant,
				Parts:    nonText,
				Metadata: msgMeta,
			}}
		}
	} else {
		full := &llmstream.Message{
			Role:     llmstream.RoleAssistant,
			Parts:    parts,
			Metadata: msgMeta,
		}
		res.Output = full
		res.Messages = []*llmstream.Message{full}
	}

	return &res, nil
}

// itemParts maps one final output item to zero or more parts, registering
// attachment side effects as it goes. Items whose content was captured
// incrementally (reasoning, search, shell, mcp) produce no parts.
func (m *machine) itemParts(item *outputItem) []*llmstream.Part {
	switch item.Type {
	case itemTypeMessage:
		return m.messageParts(item)

	case itemTypeFunctionCall:
		return []*llmstream.Part{m.functionCallPart(item)}

	case itemTypeFunctionCallOutput:
		var result interface{}
		if err := json.Unmarshal([]byte(item.Output), &result); err != nil {
			result = item.Output
		}
		return []*llmstream.Part{llmstream.NewToolResultPart(item.CallID, item.Name, result)}

	case itemTypeImageGeneration:
		m.attach.completeImage(item.Result)
		return nil

	case itemTypeReasoning, itemTypeCodeInterpreter, itemTypeWebSearch,
		itemTypeFileSearch, itemTypeLocalShell, itemTypeMCPCall, itemTypeMCPListTools:
		return nil

	default:
		log.Printf("[OPENAI] skipping unknown output item type=%q in final response", item.Type)
		return nil
	}
}

// messageParts converts an output message item's text content, lifting
// url citations onto the text parts and registering container-file
// citations with the attachment collector.
func (m *machine) messageParts(item *outputItem) []*llmstream.Part {
	var parts []*llmstream.Part
	for _, c := range item.Content {
		if c.Type != "output_text" {
			continue
		}

		var cites []llmstream.Citation
		for _, a := range c.Annotations {
			switch a.Type {
			case annotationContainerFile:
				m.attach.addCitation(a.ContainerID, a.FileID)
			case annotationURL:
				start, end := a.StartIndex, a.EndIndex
				cites = append(cites, llmstream.Citation{
					Type:       a.Type,
					URL:        a.URL,
					Title:      a.Title,
					StartIndex: &start,
					EndIndex:   &end,
				})
			}
		}

		p := llmstream.NewTextPart(c.Text)
		p.Citations = cites
		parts = append(parts, p)
	}
	return parts
}

// functionCallPart builds a tool_call part from a final function_call
// item, preferring the snapshot's arguments and falling back to the
// accumulated in-flight payload.
func (m *machine) functionCallPart(item *outputItem) *llmstream.Part {
	callID, name, args := item.CallID, item.Name, item.Arguments
	if fc := m.state.functionCallByItemID(item.ID); fc != nil {
		if args == "" {
			args = fc.arguments
		}
		if callID == "" {
			callID = fc.callID
		}
		if name == "" {
			name = fc.name
		}
	}
	return llmstream.NewToolCallPart(callID, name, decodeToolArguments(args))
}

// decodeToolArguments parses a tool arguments payload. Non-object
// payloads are preserved under the "value" key rather than dropped.
func decodeToolArguments(args string) map[string]interface{} {
	if args == "" {
		return map[string]interface{}{}
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(args), &decoded); err == nil {
		return decoded
	}
	return map[string]interface{}{"value": args}
}

// messageMetadata assembles the aggregate message's metadata: thinking
// transcript, non-empty tool logs, and the continuation token when
// session persistence is on.
func (m *machine) messageMetadata(snap *responseSnapshot) map[string]interface{} {
	meta := make(map[string]interface{})

	if thinking := m.state.thinking.String(); thinking != "" {
		meta[llmstream.MetadataKeyThinking] = thinking
	}
	for tool, events := range m.state.toolEvents {
		if len(events) > 0 {
			meta[tool] = events
		}
	}
	if m.session && snap.ID != "" {
		token, err := encodeContinuationToken(snap.ID)
		if err == nil {
			meta[llmstream.MetadataKeySession] = token
		}
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}

// resultMetadata assembles the aggregate's result-level metadata.
func (m *machine) resultMetadata(snap *responseSnapshot) map[string]interface{} {
	meta := make(map[string]interface{})
	if snap.ID != "" {
		meta[llmstream.MetadataKeyResponseID] = snap.ID
	}
	if snap.Model != "" {
		meta[llmstream.MetadataKeyModel] = snap.Model
	}
	if snap.Status != "" {
		meta[llmstream.MetadataKeyStatus] = snap.Status
	}
	if m.state.containerID != "" {
		meta[llmstream.MetadataKeyContainerID] = m.state.containerID
	}
	return meta
}

// mapFinishReason maps the terminal status onto the provider-agnostic
// finish reason.
func mapFinishReason(snap *responseSnapshot) llmstream.FinishReason {
	switch snap.Status {
	case statusCompleted:
		return llmstream.FinishReasonStop
	case statusIncomplete:
		if snap.IncompleteDetails != nil {
			switch snap.IncompleteDetails.Reason {
			case incompleteMaxOutputTokens:
				return llmstream.FinishReasonLength
			case incompleteContentFilter:
				return llmstream.FinishReasonContentFilter
			}
		}
		return llmstream.FinishReasonUnspecified
	default:
		return llmstream.FinishReasonUnspecified
	}
}

// withoutTextParts filters text parts out, preserving order.
func withoutTextParts(parts []*llmstream.Part) []*llmstream.Part {
	var out []*llmstream.Part
	for _, p := range parts {
		if p != nil && !p.IsText() {
			out = append(out, p)
		}
	}
	return out
}
