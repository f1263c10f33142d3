package core

// DefaultConfidence is assumed when a model omits the confidence field or
// returns something non-numeric.
const DefaultConfidence = 0.70

// IntentCandidate is the classifier's verdict for one turn: a member of the
// closed vocabulary, a clamped confidence and the slots that support it.
// Candidates are produced fresh each turn and never persisted directly; the
// dialogue manager decides what, if anything, enters DialogueState.
type IntentCandidate struct {
	Intent        Intent  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	Slots         Slots   `json:"slots,omitempty"`
	NeedsMoreInfo bool    `json:"needs_more_info,omitempty"`

	// Source records which pipeline stage produced the candidate
	// (heuristic, pending_slot, cache, model, fallback). Diagnostic only.
	Source string `json:"source,omitempty"`
}

// ClampConfidence forces v into [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Unrecognized builds the reserved candidate, keeping any pre-parsed slots so
// downstream consumers can still see what the deterministic extractor found.
func Unrecognized(slots Slots, source string) IntentCandidate {
	return IntentCandidate{Intent: IntentUnrecognized, Confidence: 0, Slots: slots, Source: source}
}
