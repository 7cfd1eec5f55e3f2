package openai

import (
	"context"
	"log"
	"strings"

	"github.com/tidwall/gjson"

	llmstream "github.com/voralis/llmstream-go"
)

// machine maps one invocation's wire events onto stream results. Events
// are fed in wire order by a single goroutine; the machine never blocks
// and never retains state across invocations.
type machine struct {
	session  bool
	fetcher  ContainerFileFetcher
	state    *accumState
	attach   *attachmentCollector
	handlers []eventHandler
}

// eventHandler pairs a match predicate with a handler. The chain is
// walked in order and exactly one handler consumes each event.
type eventHandler struct {
	matches func(ev *wireEvent) bool
	handle  func(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error)
}

func newMachine(session bool, fetcher ContainerFileFetcher) *machine {
	m := &machine{
		session: session,
		fetcher: fetcher,
		state:   newAccumState(),
		attach:  newAttachmentCollector(),
	}
	m.handlers = []eventHandler{
		{matches: isTerminalEvent, handle: m.handleTerminal},
		{matches: isItemLifecycleEvent, handle: m.handleItemLifecycle},
		{matches: isFunctionArgsEvent, handle: m.handleFunctionArgs},
		{matches: isTextEvent, handle: m.handleText},
		{matches: isReasoningEvent, handle: m.handleReasoning},
		{matches: isToolTelemetryEvent, handle: m.handleToolTelemetry},
		{matches: isAbsorbedEvent, handle: m.handleAbsorbed},
	}
	return m
}

// Process routes one event to the first matching handler. Unrecognized
// event kinds are logged and dropped so new server event types never
// break existing consumers.
func (m *machine) Process(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	for _, h := range m.handlers {
		if h.matches(ev) {
			return h.handle(ctx, ev)
		}
	}
	log.Printf("[OPENAI] dropping unhandled stream event type=%q", ev.Type)
	return nil, nil
}

// finalized reports whether the final aggregate was already produced.
func (m *machine) finalized() bool {
	return m.state.phase == phaseFinalized
}

// ===== Match predicates, in chain priority order =====

func isTerminalEvent(ev *wireEvent) bool {
	switch ev.Type {
	case eventError, eventResponseCompleted, eventResponseFailed, eventResponseIncomplete:
		return true
	}
	return false
}

func isItemLifecycleEvent(ev *wireEvent) bool {
	return ev.Type == eventOutputItemAdded || ev.Type == eventOutputItemDone
}

func isFunctionArgsEvent(ev *wireEvent) bool {
	return ev.Type == eventFunctionArgsDelta || ev.Type == eventFunctionArgsDone
}

func isTextEvent(ev *wireEvent) bool {
	return strings.HasPrefix(ev.Type, eventOutputTextAny)
}

func isReasoningEvent(ev *wireEvent) bool {
	return strings.HasPrefix(ev.Type, eventReasoningAny)
}

func isToolTelemetryEvent(ev *wireEvent) bool {
	return toolNameForEvent(ev.Type) != ""
}

func isAbsorbedEvent(ev *wireEvent) bool {
	switch ev.Type {
	case eventResponseCreated, eventResponseInProgress, eventResponseQueued:
		return true
	}
	return strings.HasPrefix(ev.Type, eventContentPart)
}

// toolNameForEvent maps a telemetry event type to its stable tool log key,
// or "" when the event is not tool telemetry.
func toolNameForEvent(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "response.web_search_call."):
		return llmstream.MetadataKeyWebSearch
	case strings.HasPrefix(eventType, "response.file_search_call."):
		return llmstream.MetadataKeyFileSearch
	case strings.HasPrefix(eventType, "response.image_generation_call."):
		return llmstream.MetadataKeyImageGeneration
	case strings.HasPrefix(eventType, "response.code_interpreter_call"):
		return llmstream.MetadataKeyCodeInterpreter
	case strings.HasPrefix(eventType, "response.local_shell_call."):
		return llmstream.MetadataKeyLocalShell
	case strings.HasPrefix(eventType, "response.mcp_"):
		return llmstream.MetadataKeyMCP
	}
	return ""
}

// ===== Handlers =====

// handleTerminal maps success terminals to the final aggregate and failure
// terminals to a stream error. A redelivered terminal after finalization
// is dropped.
func (m *machine) handleTerminal(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	if m.finalized() {
		log.Printf("[OPENAI] dropping duplicate terminal event type=%q", ev.Type)
		return nil, nil
	}

	switch ev.Type {
	case eventError:
		return nil, &llmstream.RequestFailedError{
			Provider: llmstream.ProviderOpenAI.String(),
			Message:  ev.Message,
			Code:     ev.Code,
			Param:    ev.Param,
		}

	case eventResponseFailed:
		failure := &llmstream.RequestFailedError{
			Provider: llmstream.ProviderOpenAI.String(),
			Message:  "response failed",
		}
		if ev.Response != nil && ev.Response.Error != nil {
			failure.Message = ev.Response.Error.Message
			failure.Code = ev.Response.Error.Code
			failure.Param = ev.Response.Error.Param
		}
		return nil, failure

	default: // response.completed, response.incomplete
		res, err := m.finalize(ctx, ev.Response)
		if err != nil {
			return nil, err
		}
		return []llmstream.StreamResult{*res}, nil
	}
}

// handleItemLifecycle dispatches output_item.added/done by item type.
func (m *machine) handleItemLifecycle(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	item, err := decodeItem(ev.Item)
	if err != nil {
		log.Printf("[OPENAI] dropping %s with bad item payload: %v", ev.Type, err)
		return nil, nil
	}

	if ev.Type == eventOutputItemAdded {
		switch item.Type {
		case itemTypeFunctionCall:
			m.state.functionCalls[ev.OutputIndex] = &functionCallAccum{
				itemID:    item.ID,
				callID:    item.CallID,
				name:      item.Name,
				arguments: item.Arguments,
			}
		case itemTypeReasoning:
			m.state.reasoningIndices[ev.OutputIndex] = struct{}{}
		}
		return nil, nil
	}

	// output_item.done
	switch item.Type {
	case itemTypeImageGeneration:
		m.attach.completeImage(item.Result)
		return nil, nil

	case itemTypeCodeInterpreter:
		if item.ContainerID != "" {
			m.state.containerID = item.ContainerID
		}
		for _, out := range item.Outputs {
			if out.Type != "files" {
				continue
			}
			for _, f := range out.Files {
				m.attach.addCitation(item.ContainerID, f.FileID)
			}
		}
		record := decodeRecord(item.raw)
		m.state.logToolEvent(llmstream.MetadataKeyCodeInterpreter, record)
		return []llmstream.StreamResult{{
			Metadata: map[string]interface{}{
				llmstream.MetadataKeyCodeInterpreter: record,
			},
		}}, nil
	}

	return nil, nil
}

// handleFunctionArgs grows and then seals in-flight function calls.
// Partials are never emitted for argument fragments.
func (m *machine) handleFunctionArgs(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	fc, ok := m.state.functionCalls[ev.OutputIndex]
	if !ok {
		log.Printf("[OPENAI] dropping %s for unknown output_index=%d", ev.Type, ev.OutputIndex)
		return nil, nil
	}

	if ev.Type == eventFunctionArgsDelta {
		fc.arguments += ev.Delta
		return nil, nil
	}

	// arguments.done carries the complete, authoritative payload.
	fc.arguments = ev.Arguments
	return nil, nil
}

// handleText emits visible text deltas, suppressing those attributed to
// reasoning items and dropping empty fragments. output_text.done and
// annotation sub-events are absorbed: their content is already covered by
// the deltas and the final snapshot.
func (m *machine) handleText(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	if ev.Type != eventOutputTextDelta {
		return nil, nil
	}
	if m.state.isReasoningIndex(ev.OutputIndex) {
		return nil, nil
	}
	if ev.Delta == "" {
		return nil, nil
	}

	m.state.hasStreamedText = true
	m.state.streamedText.WriteString(ev.Delta)

	return []llmstream.StreamResult{{
		Output: &llmstream.Message{
			Role:  llmstream.RoleAssistant,
			Parts: []*llmstream.Part{llmstream.NewTextPart(ev.Delta)},
		},
	}}, nil
}

// handleReasoning emits summary text deltas as metadata-only partials and
// absorbs every other reasoning sub-event.
func (m *machine) handleReasoning(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	if ev.Type != eventReasoningSummaryTextDelta {
		return nil, nil
	}

	m.state.thinking.WriteString(ev.Delta)

	return []llmstream.StreamResult{{
		Metadata: map[string]interface{}{
			llmstream.MetadataKeyThinking: ev.Delta,
		},
	}}, nil
}

// handleToolTelemetry records server tool progress. Image fragments feed
// the attachment collector; code deltas buffer until the done event; all
// records land in the per-tool event log without emitting partials.
func (m *machine) handleToolTelemetry(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	switch ev.Type {
	case eventImagePartial:
		m.attach.recordPartialImage(ev.PartialImageB64, ev.PartialImageIndex)
		m.state.logToolEvent(llmstream.MetadataKeyImageGeneration, map[string]interface{}{
			"type":                ev.Type,
			"item_id":             ev.ItemID,
			"partial_image_index": ev.PartialImageIndex,
		})

	case eventCodeDelta:
		m.state.codeBuffer(ev.ItemID).WriteString(ev.Delta)

	case eventCodeDone:
		code := ev.Code
		if code == "" {
			code = m.state.codeBuffer(ev.ItemID).String()
		}
		delete(m.state.codeBuffers, ev.ItemID)
		m.state.logToolEvent(llmstream.MetadataKeyCodeInterpreter, map[string]interface{}{
			"type":    ev.Type,
			"item_id": ev.ItemID,
			"code":    code,
		})

	default:
		m.state.logToolEvent(toolNameForEvent(ev.Type), decodeRecord(ev.raw))
	}

	return nil, nil
}

// handleAbsorbed swallows known no-op lifecycle events.
func (m *machine) handleAbsorbed(ctx context.Context, ev *wireEvent) ([]llmstream.StreamResult, error) {
	return nil, nil
}

// decodeRecord converts a raw event or item payload into a generic record
// for telemetry logs.
func decodeRecord(raw []byte) interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	if v := gjson.ParseBytes(raw).Value(); v != nil {
		return v
	}
	return string(raw)
}
