package core

import "time"

// StateTTL bounds how long an echoed DialogueState stays trustworthy. A state
// whose timestamp is exactly StateTTL old is still accepted; one second more
// and it is treated identically to no state at all.
const StateTTL = 300 * time.Second

// DialogueState is the opaque cross-turn memory echoed back verbatim by the
// caller on every turn. The core never deletes it; it simply starts empty
// when the echoed copy is absent or expired.
//
// Contract:
//   - Prepare must be called once per turn before any read: it rejects
//     expired state, bumps the turn counter and refreshes the timestamp
//   - slot and filter merges follow the additive rule (Slots.Merge)
//   - Clone produces an independent deep copy for safe divergence.
type DialogueState struct {
	Goal             string           `json:"goal,omitempty"`
	Candidates       []string         `json:"candidates,omitempty"`
	ConfirmedIntent  Intent           `json:"confirmed_intent,omitempty"`
	StrategyID       string           `json:"strategy_id,omitempty"`
	Slots            Slots            `json:"slots,omitempty"`
	MissingSlots     []string         `json:"missing_slots,omitempty"`
	Filters          Slots            `json:"filters,omitempty"`
	Clarifications   []string         `json:"clarifications,omitempty"`
	TurnCount        int              `json:"turn_count"`
	LastToolIntent   Intent           `json:"last_tool_intent,omitempty"`
	LastToolSlots    Slots            `json:"last_tool_slots,omitempty"`
	ResponseContext  string           `json:"response_context,omitempty"`
	Pending          *PendingQuestion `json:"pending,omitempty"`
	PendingStrategy  string           `json:"pending_strategy,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

// NewDialogueState returns an empty state stamped at now.
func NewDialogueState(now time.Time) *DialogueState {
	return &DialogueState{Slots: NewSlots(), Filters: NewSlots(), Timestamp: now}
}

// Expired reports whether the state is too old to trust at the given instant.
// A nil state is expired by definition.
func (d *DialogueState) Expired(now time.Time) bool {
	return d == nil || now.Sub(d.Timestamp) > StateTTL
}

// Prepare validates and refreshes a possibly-absent echoed state. An expired
// or nil input yields a fresh empty state; a live one gets its turn counter
// incremented and its timestamp moved to now. The returned state is always
// safe to mutate for the remainder of the turn.
func (d *DialogueState) Prepare(now time.Time) *DialogueState {
	if d.Expired(now) {
		s := NewDialogueState(now)
		s.TurnCount = 1
		return s
	}
	s := d.Clone()
	s.TurnCount++
	s.Timestamp = now
	if s.Slots == nil {
		s.Slots = NewSlots()
	}
	if s.Filters == nil {
		s.Filters = NewSlots()
	}
	return s
}

// MergeSlots applies the additive rule to the remembered slot map.
func (d *DialogueState) MergeSlots(in Slots) { d.Slots = d.Slots.Merge(in) }

// MergeFilters applies the additive rule to the remembered filter map.
func (d *DialogueState) MergeFilters(in Slots) { d.Filters = d.Filters.Merge(in) }

// RecordToolRun remembers the last executed tool intent and the slots it ran
// with, for "repeat the previous search" style follow-ups.
func (d *DialogueState) RecordToolRun(intent Intent, slots Slots) {
	d.LastToolIntent = intent
	d.LastToolSlots = slots.Clone()
}

// Clone returns a deep copy of the state.
func (d *DialogueState) Clone() *DialogueState {
	if d == nil {
		return nil
	}
	out := *d
	out.Slots = d.Slots.Clone()
	out.Filters = d.Filters.Clone()
	out.LastToolSlots = d.LastToolSlots.Clone()
	out.Candidates = append([]string(nil), d.Candidates...)
	out.MissingSlots = append([]string(nil), d.MissingSlots...)
	out.Clarifications = append([]string(nil), d.Clarifications...)
	if d.Pending != nil {
		p := *d.Pending
		out.Pending = &p
	}
	return &out
}
