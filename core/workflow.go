package core

import "time"

// Stage enumerates the closed set of workflow stages a continuation may
// declare. Anything else marks the structure as forged or corrupted.
type Stage string

const (
	StageInitial    Stage = "initial"
	StageClarifying Stage = "clarifying"
	StageChoosing   Stage = "choosing"
	StageCollecting Stage = "collecting"
	StageExecuting  Stage = "executing"
	StageRefining   Stage = "refining"
	StageCompleted  Stage = "completed"
)

// ValidStage reports membership in the closed stage set.
func ValidStage(s Stage) bool {
	switch s {
	case StageInitial, StageClarifying, StageChoosing, StageCollecting,
		StageExecuting, StageRefining, StageCompleted:
		return true
	}
	return false
}

// WorkflowContext is the legacy continuation bridge: a sanitized copy of a
// subset of dialogue fields that a caller carries between turns to resume a
// multi-turn sub-conversation. It crosses a trust boundary on every turn and
// is therefore revalidated from scratch by workflow.Validator regardless of
// how trustworthy the accompanying DialogueState looks.
type WorkflowContext struct {
	Type       Intent    `json:"type"`
	Stage      Stage     `json:"stage"`
	Token      Token     `json:"token"`
	StrategyID string    `json:"strategy_id,omitempty"`
	Slots      Slots     `json:"slots,omitempty"`
	Filters    Slots     `json:"filters,omitempty"`
	Created    time.Time `json:"created"`
}

// WorkflowTTL bounds the age of a continuation measured from its own creation
// time, independent of DialogueState freshness.
const WorkflowTTL = 300 * time.Second

// Expired reports whether the continuation is too old to honor.
func (w *WorkflowContext) Expired(now time.Time) bool {
	return w == nil || now.Sub(w.Created) > WorkflowTTL
}

// Clone returns a deep copy, nil-safe.
func (w *WorkflowContext) Clone() *WorkflowContext {
	if w == nil {
		return nil
	}
	out := *w
	out.Slots = w.Slots.Clone()
	out.Filters = w.Filters.Clone()
	return &out
}
