package testutil

import (
	"time"

	"github.com/dvitale/gias/core"
)

// StateBuilder constructs dialogue states with fluent chaining for tests.
// Example:
//
//	st := NewStateBuilder().Confirmed(core.IntentPlanDetail).Slot("plan_code", "A1").Build()
type StateBuilder struct {
	state *core.DialogueState
}

// NewStateBuilder creates a builder seeded with a fresh state stamped now.
func NewStateBuilder() *StateBuilder {
	return &StateBuilder{state: core.NewDialogueState(time.Now())}
}

// Confirmed sets the confirmed intent (chainable).
func (b *StateBuilder) Confirmed(intent core.Intent) *StateBuilder {
	b.state.ConfirmedIntent = intent
	return b
}

// Slot sets a remembered slot value (chainable).
func (b *StateBuilder) Slot(key, value string) *StateBuilder {
	b.state.Slots.Set(key, value)
	return b
}

// Missing marks slots the state is still waiting for (chainable).
func (b *StateBuilder) Missing(names ...string) *StateBuilder {
	b.state.MissingSlots = names
	return b
}

// Pending attaches a replay-protected question (chainable).
func (b *StateBuilder) Pending(kind core.QuestionKind, token core.Token) *StateBuilder {
	b.state.Pending = &core.PendingQuestion{Kind: kind, Token: token}
	return b
}

// Strategy sets the confirmed strategy id (chainable).
func (b *StateBuilder) Strategy(id string) *StateBuilder {
	b.state.StrategyID = id
	return b
}

// AgedBy pushes the timestamp into the past (chainable).
func (b *StateBuilder) AgedBy(d time.Duration) *StateBuilder {
	b.state.Timestamp = b.state.Timestamp.Add(-d)
	return b
}

// Build returns the assembled state.
func (b *StateBuilder) Build() *core.DialogueState {
	return b.state
}
