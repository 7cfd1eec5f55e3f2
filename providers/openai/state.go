package openai

import (
	"strings"
)

// streamPhase tracks whether the final aggregate has been produced.
type streamPhase int

const (
	phaseStreaming streamPhase = iota
	phaseFinalized
)

// functionCallAccum assembles one function call across its lifecycle:
// created on output_item.added, grown by argument deltas, overwritten by
// the authoritative arguments.done payload.
type functionCallAccum struct {
	itemID    string
	callID    string
	name      string
	arguments string
}

// accumState holds all mutable per-invocation stream state. A fresh value
// is created for every StreamResponse call; nothing is shared across
// invocations.
type accumState struct {
	// thinking accumulates reasoning summary text for the aggregate's
	// message metadata.
	thinking strings.Builder

	// functionCalls tracks in-flight function calls by output index.
	functionCalls map[int64]*functionCallAccum

	// hasStreamedText records whether any text delta was emitted, which
	// drives final-aggregate reconciliation.
	hasStreamedText bool
	streamedText    strings.Builder

	// toolEvents is the per-tool telemetry log keyed by stable tool name.
	toolEvents map[string][]interface{}

	// reasoningIndices marks output indexes owned by reasoning items so
	// their text deltas are suppressed from the visible stream.
	reasoningIndices map[int64]struct{}

	// codeBuffers accumulates code interpreter source deltas per item.
	codeBuffers map[string]*strings.Builder

	// containerID is the code-execution container observed, if any.
	containerID string

	phase streamPhase
}

func newAccumState() *accumState {
	return &accumState{
		functionCalls:    make(map[int64]*functionCallAccum),
		toolEvents:       make(map[string][]interface{}),
		reasoningIndices: make(map[int64]struct{}),
		codeBuffers:      make(map[string]*strings.Builder),
	}
}

// logToolEvent appends one decoded record to the named tool's event log.
func (s *accumState) logToolEvent(tool string, record interface{}) {
	s.toolEvents[tool] = append(s.toolEvents[tool], record)
}

// isReasoningIndex reports whether the output index belongs to a
// reasoning item.
func (s *accumState) isReasoningIndex(idx int64) bool {
	_, ok := s.reasoningIndices[idx]
	return ok
}

// functionCallByItemID finds an in-flight function call by item id.
// Used at finalization when the snapshot item carries no arguments.
func (s *accumState) functionCallByItemID(itemID string) *functionCallAccum {
	for _, fc := range s.functionCalls {
		if fc.itemID == itemID {
			return fc
		}
	}
	return nil
}

// codeBuffer returns the code accumulation buffer for an item, creating
// it on first use.
func (s *accumState) codeBuffer(itemID string) *strings.Builder {
	buf, ok := s.codeBuffers[itemID]
	if !ok {
		buf = &strings.Builder{}
		s.codeBuffers[itemID] = buf
	}
	return buf
}
